package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/carstoreapp/carstore-backend/internal/users"
	pkgauth "github.com/carstoreapp/carstore-backend/pkg/auth"
	"github.com/carstoreapp/carstore-backend/pkg/auth/session"
	"github.com/carstoreapp/carstore-backend/pkg/config"
	"github.com/carstoreapp/carstore-backend/pkg/db"
	"github.com/carstoreapp/carstore-backend/pkg/db/models"
	"github.com/carstoreapp/carstore-backend/pkg/enums"
	pkgerrors "github.com/carstoreapp/carstore-backend/pkg/errors"
	"github.com/carstoreapp/carstore-backend/pkg/logger"
	"github.com/carstoreapp/carstore-backend/pkg/security"
)

// Service exposes registration, login, refresh, and the logout coordinator.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResultDTO, error)
	Login(ctx context.Context, input LoginInput) (*AuthResultDTO, error)
	Refresh(ctx context.Context, userID uuid.UUID, role enums.MemberRole, oldAccessID, refreshToken string) (*AuthResultDTO, error)
	Logout(ctx context.Context, userID uuid.UUID, accessID string) error
}

type userStore interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type cacheInvalidator interface {
	InvalidateUserCache(ctx context.Context, userID string) error
}

type cartClearer interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	users    userStore
	sessions sessionManager
	cache    cacheInvalidator
	carts    cartClearer
	cfg      *config.Config
	logger   *logger.Logger
	now      func() time.Time
}

// NewService constructs the auth service.
func NewService(
	userRepo userStore,
	sessions sessionManager,
	cache cacheInvalidator,
	carts cartClearer,
	cfg *config.Config,
	logg *logger.Logger,
) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user store required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache invalidator required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:    userRepo,
		sessions: sessions,
		cache:    cache,
		carts:    carts,
		cfg:      cfg,
		logger:   logg,
		now:      time.Now,
	}, nil
}

// Register creates the account and signs the user in.
func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResultDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}

	hash, err := security.HashPassword(input.Password, s.cfg.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Phone:        input.Phone,
		Role:         enums.MemberRoleUser,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert user")
	}

	s.logger.Info(s.logger.WithUserID(ctx, user.ID.String()), "user registered")
	return s.issueCredentials(ctx, user)
}

// Login verifies the credentials and mints a fresh session.
func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResultDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		// login still succeeds; the timestamp is advisory
		s.logger.Warn(s.logger.WithUserID(ctx, user.ID.String()), "update last login failed")
	}

	return s.issueCredentials(ctx, user)
}

// Refresh rotates the refresh session and mints a new access token.
func (s *service) Refresh(ctx context.Context, userID uuid.UUID, role enums.MemberRole, oldAccessID, refreshToken string) (*AuthResultDTO, error) {
	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, oldAccessID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "load user")
	}
	if user.Role != role {
		// role changed since the token was minted; force a clean login
		_ = s.sessions.Revoke(ctx, newAccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session role mismatch")
	}

	token, err := pkgauth.MintAccessToken(s.cfg.JWT, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &AuthResultDTO{
		AccessToken:  token,
		RefreshToken: newRefresh,
		User:         *users.NewProfileDTO(user),
	}, nil
}

// Logout revokes the session, drops cached per-user state, and clears the
// cart. Every step runs even when an earlier one fails; the failures come
// back aggregated. Logging out an already-dead session succeeds.
func (s *service) Logout(ctx context.Context, userID uuid.UUID, accessID string) error {
	var errs error

	if strings.TrimSpace(accessID) != "" {
		if err := s.sessions.Revoke(ctx, accessID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("revoke session: %w", err))
		}
	}
	if err := s.cache.InvalidateUserCache(ctx, userID.String()); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("invalidate cache: %w", err))
	}
	if err := s.carts.Clear(ctx, userID); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("clear cart: %w", err))
	}

	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "logout")
	}

	s.logger.Info(s.logger.WithUserID(ctx, userID.String()), "user logged out")
	return nil
}

func (s *service) issueCredentials(ctx context.Context, user *models.User) (*AuthResultDTO, error) {
	accessID := session.NewAccessID()

	token, err := pkgauth.MintAccessToken(s.cfg.JWT, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	return &AuthResultDTO{
		AccessToken:  token,
		RefreshToken: refresh,
		User:         *users.NewProfileDTO(user),
	}, nil
}
