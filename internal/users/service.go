package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/carstoreapp/carstore-backend/pkg/db/models"
	pkgerrors "github.com/carstoreapp/carstore-backend/pkg/errors"
)

// profileCacheScope namespaces the cached /users/me payload under the
// per-user cache prefix, so logout's cache invalidation sweeps it away.
const profileCacheScope = "profile"

const profileCacheTTL = 5 * time.Minute

type profileCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	UserCacheKey(userID, scope string) string
}

// Service exposes the profile operations behind /users/me.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
}

// UpdateProfileInput holds optional profile mutations.
type UpdateProfileInput struct {
	Name  *string
	Phone *string
}

type service struct {
	repo  *Repository
	cache profileCache
}

// NewService constructs the users service. A nil cache disables the
// profile read cache without changing behavior otherwise.
func NewService(repo *Repository, cache profileCache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, cache: cache}, nil
}

// GetProfile returns the caller's account payload, served from the
// per-user cache when a fresh copy is there.
func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	if cached := s.cachedProfile(ctx, userID); cached != nil {
		return cached, nil
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := NewProfileDTO(user)
	s.storeProfile(ctx, userID, profile)
	return profile, nil
}

// UpdateProfile applies partial profile changes.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	name := user.Name
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
	}
	phone := user.Phone
	if input.Phone != nil {
		trimmed := strings.TrimSpace(*input.Phone)
		phone = &trimmed
	}

	if err := s.repo.UpdateProfile(ctx, userID, name, phone); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update profile")
	}
	s.dropProfile(ctx, userID)

	user.Name = name
	user.Phone = phone
	return NewProfileDTO(user), nil
}

// cachedProfile returns the cached payload or nil. Any cache failure,
// including a plain miss, falls through to the database.
func (s *service) cachedProfile(ctx context.Context, userID uuid.UUID) *ProfileDTO {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.UserCacheKey(userID.String(), profileCacheScope))
	if err != nil || raw == "" {
		return nil
	}
	var profile ProfileDTO
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil
	}
	return &profile
}

// storeProfile writes the payload best effort. A failed write only costs
// the next read a database round trip.
func (s *service) storeProfile(ctx context.Context, userID uuid.UUID, profile *ProfileDTO) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, s.cache.UserCacheKey(userID.String(), profileCacheScope), string(raw), profileCacheTTL)
}

func (s *service) dropProfile(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, s.cache.UserCacheKey(userID.String(), profileCacheScope))
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
