// Package testutil provides shared test fixtures. Tests run against an
// in-memory sqlite database migrated from the same models as production.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/database"
	"github.com/structura-group/pipeline-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB opens a fresh in-memory database with the full schema.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A unique shared-cache name keeps the database alive across the
	// connection pool while isolating parallel tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, database.AutoMigrate(db), "failed to migrate test schema")

	return db
}

// CreateTestUser inserts an active user with the given role.
func CreateTestUser(t *testing.T, db *gorm.DB, role domain.Role) *domain.User {
	t.Helper()

	user := &domain.User{
		Email:        fmt.Sprintf("%s-%s@example.com", role, uuid.NewString()[:8]),
		PasswordHash: "unused",
		Name:         fmt.Sprintf("Test %s", role),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestUserWithPassword inserts an active user with a bcrypt hash of
// the given password.
func CreateTestUserWithPassword(t *testing.T, db *gorm.DB, role domain.Role, password string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		Email:        fmt.Sprintf("%s-%s@example.com", role, uuid.NewString()[:8]),
		PasswordHash: string(hash),
		Name:         fmt.Sprintf("Test %s", role),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestDeal inserts a deal created by the given user. Optional mutators
// adjust the record before insert.
func CreateTestDeal(t *testing.T, db *gorm.DB, createdBy uuid.UUID, mutate ...func(*domain.Deal)) *domain.Deal {
	t.Helper()

	deal := &domain.Deal{
		Title:          fmt.Sprintf("Deal %s", uuid.NewString()[:8]),
		ClientName:     "Test Client",
		ClientCategory: domain.ClientCategoryBusiness,
		Stage:          domain.DealStageInquiry,
		CreatedBy:      createdBy,
	}
	for _, m := range mutate {
		m(deal)
	}
	require.NoError(t, db.Create(deal).Error)
	return deal
}

// UserCtx builds the auth context for a stored user.
func UserCtx(user *domain.User) *auth.UserContext {
	return &auth.UserContext{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}
}

// ContextFor returns a request context authenticated as the given user.
func ContextFor(user *domain.User) context.Context {
	return auth.WithUserContext(context.Background(), UserCtx(user))
}
