package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Email:     "pm@example.com",
		Name:      "Project Manager",
		Role:      domain.RoleProjectManager,
	}
}

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "pipeline-api", time.Hour)
	user := testUser()

	token, expiresAt, err := tm.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Name, claims.Name)
	assert.Equal(t, domain.RoleProjectManager, claims.Role)
}

func TestTokenManager_Validate(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "pipeline-api", time.Hour)

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewTokenManager("test-secret", "pipeline-api", -time.Minute)
		token, _, err := expired.Issue(testUser())
		require.NoError(t, err)

		_, err = tm.Validate(token)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := auth.NewTokenManager("other-secret", "pipeline-api", time.Hour)
		token, _, err := other.Issue(testUser())
		require.NoError(t, err)

		_, err = tm.Validate(token)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := auth.NewTokenManager("test-secret", "someone-else", time.Hour)
		token, _, err := other.Issue(testUser())
		require.NoError(t, err)

		_, err = tm.Validate(token)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := tm.Validate("not.a.token")
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})
}
