package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeResolver struct {
	users map[uuid.UUID]*domain.User
}

func (f *fakeResolver) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func TestMiddleware_Authenticate(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "pipeline-api", time.Hour)

	active := testUser()
	deactivated := &domain.User{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Email:     "gone@example.com",
		Name:      "Former Employee",
		Role:      domain.RoleSupervisor,
		IsActive:  false,
	}
	active.IsActive = true

	resolver := &fakeResolver{users: map[uuid.UUID]*domain.User{
		active.ID:      active,
		deactivated.ID: deactivated,
	}}
	mw := auth.NewMiddleware(tm, resolver, zap.NewNop())

	var captured *auth.UserContext
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	do := func(authHeader string) *httptest.ResponseRecorder {
		captured = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid token", func(t *testing.T) {
		token, _, err := tm.Issue(active)
		require.NoError(t, err)

		rec := do("Bearer " + token)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, active.ID, captured.UserID)
		assert.Equal(t, active.Role, captured.Role)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := do("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		rec := do("Token abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown subject", func(t *testing.T) {
		ghost := testUser()
		token, _, err := tm.Issue(ghost)
		require.NoError(t, err)

		rec := do("Bearer " + token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deactivated account rejected despite valid token", func(t *testing.T) {
		token, _, err := tm.Issue(deactivated)
		require.NoError(t, err)

		rec := do("Bearer " + token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, captured)
	})
}

func TestMiddleware_RequireAction(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", "pipeline-api", time.Hour)
	mw := auth.NewMiddleware(tm, &fakeResolver{}, zap.NewNop())

	handler := mw.RequireAction(auth.ActionApproveQuotation)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(role domain.Role, withCtx bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotations/abc/approve", nil)
		if withCtx {
			ctx := auth.WithUserContext(req.Context(), &auth.UserContext{UserID: uuid.New(), Role: role})
			req = req.WithContext(ctx)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do(domain.RoleAdmin, true).Code)
	assert.Equal(t, http.StatusOK, do(domain.RoleProjectManager, true).Code)
	assert.Equal(t, http.StatusForbidden, do(domain.RoleSalesAgent, true).Code)
	assert.Equal(t, http.StatusForbidden, do(domain.RoleClientB2B, true).Code)
	assert.Equal(t, http.StatusForbidden, do(domain.RoleAdmin, false).Code)
}
