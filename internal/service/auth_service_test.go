package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/config"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/repository"
	"github.com/structura-group/pipeline-api/internal/service"
	"github.com/structura-group/pipeline-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T, db *gorm.DB, bootstrap config.BootstrapConfig) *service.AuthService {
	t.Helper()
	logger := zap.NewNop()
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	activity := service.NewActivityService(activityRepo, logger)
	tokens := auth.NewTokenManager("test-secret", "pipeline-api", time.Hour)
	return service.NewAuthService(userRepo, tokens, activity, bootstrap, logger)
}

func TestAuthService_Register(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newAuthService(t, db, config.BootstrapConfig{})
	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)
	ctx := testutil.ContextFor(admin)

	t.Run("creates account", func(t *testing.T) {
		user, err := svc.Register(ctx, &domain.RegisterRequest{
			Email:          "agent@example.com",
			Password:       "long-enough-password",
			Name:           "New Agent",
			Role:           domain.RoleSalesAgent,
			CommissionRate: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSalesAgent, user.Role)
		assert.True(t, user.IsActive)
		assert.Equal(t, 5.0, user.CommissionRate)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, &domain.RegisterRequest{
			Email:    "agent@example.com",
			Password: "long-enough-password",
			Name:     "Impostor",
			Role:     domain.RoleSalesAgent,
		})
		assert.ErrorIs(t, err, service.ErrDuplicateEmail)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.Register(ctx, &domain.RegisterRequest{
			Email:    "intern@example.com",
			Password: "long-enough-password",
			Name:     "Intern",
			Role:     domain.Role("intern"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("store failure surfaces instead of creating", func(t *testing.T) {
		brokenDB := testutil.OpenTestDB(t)
		broken := newAuthService(t, brokenDB, config.BootstrapConfig{})
		require.NoError(t, brokenDB.Migrator().DropTable(&domain.User{}))

		_, err := broken.Register(ctx, &domain.RegisterRequest{
			Email:    "ghost@example.com",
			Password: "long-enough-password",
			Name:     "Ghost",
			Role:     domain.RoleSalesAgent,
		})
		require.Error(t, err)
		assert.NotErrorIs(t, err, service.ErrDuplicateEmail)
	})
}

func TestAuthService_Login(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newAuthService(t, db, config.BootstrapConfig{})
	user := testutil.CreateTestUserWithPassword(t, db, domain.RoleProjectManager, "correct-horse")
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, &domain.LoginRequest{Email: user.Email, Password: "correct-horse"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, user.ID, resp.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: user.Email, Password: "battery-staple"})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("deactivated account", func(t *testing.T) {
		gone := testutil.CreateTestUserWithPassword(t, db, domain.RoleFabricator, "correct-horse")
		require.NoError(t, db.Model(&domain.User{}).Where("id = ?", gone.ID).Update("is_active", false).Error)

		_, err := svc.Login(ctx, &domain.LoginRequest{Email: gone.Email, Password: "correct-horse"})
		assert.ErrorIs(t, err, service.ErrAccountDeactivated)
	})
}

func TestAuthService_InitAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled bootstrap", func(t *testing.T) {
		db := testutil.OpenTestDB(t)
		svc := newAuthService(t, db, config.BootstrapConfig{Enabled: false})

		_, _, err := svc.InitAdmin(ctx)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("creates admin once", func(t *testing.T) {
		db := testutil.OpenTestDB(t)
		svc := newAuthService(t, db, config.BootstrapConfig{
			Enabled:       true,
			AdminEmail:    "admin@example.com",
			AdminPassword: "bootstrap-password",
			AdminName:     "Bootstrap Admin",
		})

		user, created, err := svc.InitAdmin(ctx)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, domain.RoleAdmin, user.Role)
		assert.Equal(t, "admin@example.com", user.Email)

		// A second call reports the existing admin instead of creating
		// another one.
		again, created, err := svc.InitAdmin(ctx)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, user.ID, again.ID)

		var count int64
		require.NoError(t, db.Model(&domain.User{}).Where("role = ?", domain.RoleAdmin).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}
