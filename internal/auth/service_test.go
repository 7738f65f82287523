package auth

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/carstoreapp/carstore-backend/internal/users"
	pkgauth "github.com/carstoreapp/carstore-backend/pkg/auth"
	"github.com/carstoreapp/carstore-backend/pkg/config"
	"github.com/carstoreapp/carstore-backend/pkg/db/models"
	"github.com/carstoreapp/carstore-backend/pkg/enums"
	pkgerrors "github.com/carstoreapp/carstore-backend/pkg/errors"
	"github.com/carstoreapp/carstore-backend/pkg/logger"
)

type stubSessions struct {
	generated  []string
	revoked    []string
	failRevoke error
}

func (s *stubSessions) Generate(_ context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if provided != "refresh-"+oldAccessID {
		return "", "", fmt.Errorf("bad token")
	}
	next := oldAccessID + "-next"
	return next, "refresh-" + next, nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return s.failRevoke
}

type stubCache struct {
	invalidated []string
	err         error
}

func (s *stubCache) InvalidateUserCache(_ context.Context, userID string) error {
	s.invalidated = append(s.invalidated, userID)
	return s.err
}

type stubCarts struct {
	cleared []uuid.UUID
	err     error
}

func (s *stubCarts) Clear(_ context.Context, userID uuid.UUID) error {
	s.cleared = append(s.cleared, userID)
	return s.err
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:                 "test-secret",
			Issuer:                 "carstore-test",
			ExpirationMinutes:      15,
			RefreshTokenTTLMinutes: 60,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	}
}

type fixture struct {
	svc      Service
	userRepo *users.Repository
	sessions *stubSessions
	cache    *stubCache
	carts    *stubCarts
	cfg      *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	f := &fixture{
		userRepo: users.NewRepository(conn),
		sessions: &stubSessions{},
		cache:    &stubCache{},
		carts:    &stubCarts{},
		cfg:      testConfig(),
	}
	svc, err := NewService(f.userRepo, f.sessions, f.cache, f.carts, f.cfg,
		logger.New(logger.Options{ServiceName: "auth-test"}))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestRegisterIssuesCredentials(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Register(context.Background(), RegisterInput{
		Email:    "Driver@Example.com",
		Password: "correct-horse",
		Name:     "Pat Driver",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "driver@example.com", result.User.Email, "email is normalized")
	assert.Equal(t, enums.MemberRoleUser, result.User.Role)

	claims, err := pkgauth.ParseAccessToken(f.cfg.JWT, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	require.Len(t, f.sessions.generated, 1)
	assert.Equal(t, claims.ID, f.sessions.generated[0], "jti matches the session key")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	input := RegisterInput{Email: "driver@example.com", Password: "correct-horse", Name: "Pat"}
	_, err := f.svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{Password: "correct-horse", Name: "Pat"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.Register(context.Background(), RegisterInput{Email: "x@example.com", Password: "short", Name: "Pat"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestLoginVerifiesPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Email: "driver@example.com", Password: "correct-horse", Name: "Pat",
	})
	require.NoError(t, err)

	result, err := f.svc.Login(context.Background(), LoginInput{Email: "driver@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)

	_, err = f.svc.Login(context.Background(), LoginInput{Email: "driver@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = f.svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "correct-horse"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newFixture(t)

	registered, err := f.svc.Register(context.Background(), RegisterInput{
		Email: "driver@example.com", Password: "correct-horse", Name: "Pat",
	})
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(f.cfg.JWT, registered.AccessToken)
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(context.Background(), claims.UserID, claims.Role, claims.ID, registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registered.AccessToken, refreshed.AccessToken)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)

	_, err = f.svc.Refresh(context.Background(), claims.UserID, claims.Role, claims.ID, "stolen-token")
	require.Error(t, err)
}

func TestLogoutRunsAllSteps(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	require.NoError(t, f.svc.Logout(context.Background(), userID, "access-1"))
	assert.Equal(t, []string{"access-1"}, f.sessions.revoked)
	assert.Equal(t, []string{userID.String()}, f.cache.invalidated)
	assert.Equal(t, []uuid.UUID{userID}, f.carts.cleared)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	require.NoError(t, f.svc.Logout(context.Background(), userID, "access-1"))
	require.NoError(t, f.svc.Logout(context.Background(), userID, "access-1"), "second logout succeeds")
}

func TestLogoutAggregatesPartialFailures(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.sessions.failRevoke = fmt.Errorf("redis down")
	f.cache.err = fmt.Errorf("redis down")

	err := f.svc.Logout(context.Background(), userID, "access-1")
	require.Error(t, err)

	// the cart step still ran despite earlier failures
	assert.Equal(t, []uuid.UUID{userID}, f.carts.cleared)
}
