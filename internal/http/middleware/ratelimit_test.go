package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/config"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/http/middleware"
	"go.uber.org/zap"
)

func newTestRateLimiter(cfg *config.RateLimitConfig) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg, zap.NewNop())
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := newTestRateLimiter(&config.RateLimitConfig{
		Enabled:           false,
		RequestsPerMinute: 5,
	})

	calls := 0
	handler := rl.LimitByIP(countingHandler(&calls))

	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 100, calls)
}

func TestRateLimiter_LimitByIP(t *testing.T) {
	rl := newTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 3,
	})

	calls := 0
	handler := rl.LimitByIP(countingHandler(&calls))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
	assert.Equal(t, 3, calls)

	// A different IP still has its own budget
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.2:12345"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_WhitelistedIP(t *testing.T) {
	rl := newTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		WhitelistIPs:      []string{"127.0.0.1"},
	})

	calls := 0
	handler := rl.LimitByIP(countingHandler(&calls))

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 50, calls)
}

func TestRateLimiter_WhitelistedPath(t *testing.T) {
	rl := newTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		WhitelistPaths:    []string{"/health", "/uploads/*"},
	})

	calls := 0
	handler := rl.LimitByIP(countingHandler(&calls))

	t.Run("exact match", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = "10.0.0.3:12345"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("prefix match", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			req := httptest.NewRequest(http.MethodGet, "/uploads/deals/photo.jpg", nil)
			req.RemoteAddr = "10.0.0.3:12345"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestRateLimiter_XForwardedFor(t *testing.T) {
	rl := newTestRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2,
		WhitelistIPs:      []string{"203.0.113.7"},
	})

	calls := 0
	handler := rl.LimitByIP(countingHandler(&calls))

	// The first IP in X-Forwarded-For wins over RemoteAddr
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.4:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.4")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 10, calls)
}

func TestRateLimiter_LimitLogin(t *testing.T) {
	rl := newTestRateLimiter(&config.RateLimitConfig{
		Enabled:                true,
		RequestsPerMinute:      100,
		LoginRequestsPerMinute: 2,
		// Whitelists must not bypass the login limiter
		WhitelistIPs: []string{"10.0.0.5"},
	})

	calls := 0
	handler := rl.LimitLogin(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.5:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.5:12345"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 2, calls)
}

func TestRateLimiter_LimitByUser(t *testing.T) {
	rl := newTestRateLimiter(&config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     100,
		RequestsPerMinuteAuth: 3,
	})

	calls := 0
	handler := rl.Limit(countingHandler(&calls))

	userCtx := &auth.UserContext{
		UserID: uuid.New(),
		Email:  "pm@example.com",
		Role:   domain.RoleProjectManager,
	}

	authedRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil)
		req.RemoteAddr = "10.0.0.6:12345"
		return req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	}

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest())
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Another user from the same IP is keyed separately
	other := &auth.UserContext{
		UserID: uuid.New(),
		Email:  "agent@example.com",
		Role:   domain.RoleSalesAgent,
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/deals", nil)
	req.RemoteAddr = "10.0.0.6:12345"
	req = req.WithContext(auth.WithUserContext(req.Context(), other))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 4, calls)
}
