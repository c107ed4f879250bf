package router_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/config"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/http/handler"
	"github.com/structura-group/pipeline-api/internal/http/middleware"
	"github.com/structura-group/pipeline-api/internal/http/router"
	"github.com/structura-group/pipeline-api/internal/repository"
	"github.com/structura-group/pipeline-api/internal/service"
	"github.com/structura-group/pipeline-api/internal/storage"
	"github.com/structura-group/pipeline-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newTestServer wires the full HTTP stack against an in-memory database,
// mirroring the composition in cmd/api.
func newTestServer(t *testing.T, db *gorm.DB) (http.Handler, *auth.TokenManager) {
	t.Helper()

	logger := zap.NewNop()
	cfg := &config.Config{
		App: config.AppConfig{Name: "pipeline-api", Environment: "development"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "pipeline-api", ExpiryHours: 1},
		Storage: config.StorageConfig{
			Mode:            "local",
			LocalBasePath:   t.TempDir(),
			MaxUploadSizeMB: 10,
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.LocalBasePath)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	dealRepo := repository.NewDealRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	changeOrderRepo := repository.NewChangeOrderRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	financialEntryRepo := repository.NewFinancialEntryRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	progressLogRepo := repository.NewProgressLogRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	activityLogRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	activityService := service.NewActivityService(activityLogRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, logger)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Hour)
	authService := service.NewAuthService(userRepo, tokens, activityService, cfg.Bootstrap, logger)
	userService := service.NewUserService(userRepo, activityService, logger)
	dealService := service.NewDealService(dealRepo, taskRepo, activityService, notificationService, logger)
	taskService := service.NewTaskService(taskRepo, dealRepo, dealService, activityService, notificationService, logger)
	documentService := service.NewDocumentService(documentRepo, dealRepo, fileStorage, activityService, logger)
	changeOrderService := service.NewChangeOrderService(changeOrderRepo, dealRepo, activityService, notificationService, logger)
	quotationService := service.NewQuotationService(quotationRepo, dealRepo, commissionRepo, userRepo, activityService, notificationService, logger)
	financialService := service.NewFinancialService(financialEntryRepo, dealRepo, activityService, logger)
	commissionService := service.NewCommissionService(commissionRepo, dealRepo, userRepo, activityService, notificationService, logger)
	progressService := service.NewProgressService(progressLogRepo, taskRepo, dealRepo, dealService, activityService, logger)
	messageService := service.NewMessageService(messageRepo, dealRepo, activityService, logger)
	dashboardService := service.NewDashboardService(dealRepo, taskRepo, documentRepo, commissionRepo, userRepo, activityService, logger)

	authMiddleware := auth.NewMiddleware(tokens, userRepo, logger)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, logger)

	rt := router.NewRouter(
		cfg,
		logger,
		db,
		authMiddleware,
		rateLimiter,
		handler.NewAuthHandler(authService, logger),
		handler.NewUserHandler(userService, logger),
		handler.NewDealHandler(dealService, logger),
		handler.NewTaskHandler(taskService, logger),
		handler.NewDocumentHandler(documentService, cfg.Storage.MaxUploadSizeMB, logger),
		handler.NewChangeOrderHandler(changeOrderService, logger),
		handler.NewQuotationHandler(quotationService, logger),
		handler.NewFinancialHandler(financialService, logger),
		handler.NewCommissionHandler(commissionService, logger),
		handler.NewProgressHandler(progressService, logger),
		handler.NewMessageHandler(messageService, logger),
		handler.NewNotificationHandler(notificationService, logger),
		handler.NewDashboardHandler(dashboardService, logger),
	)
	return rt.Setup(), tokens
}

func doRequest(t *testing.T, h http.Handler, tokens *auth.TokenManager, user *domain.User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, _, err := tokens.Issue(user)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_DecisionRoutesUsePut(t *testing.T) {
	db := testutil.OpenTestDB(t)
	h, tokens := newTestServer(t, db)
	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)

	t.Run("document approval round trip", func(t *testing.T) {
		deal := testutil.CreateTestDeal(t, db, admin.ID)
		doc := &domain.Document{
			DealID:      deal.ID,
			Name:        "site-plan.pdf",
			Category:    domain.DocumentCategoryInternal,
			StoragePath: "unused",
			Status:      domain.ApprovalStatusPending,
			UploadedBy:  admin.ID,
		}
		require.NoError(t, db.Create(doc).Error)

		rec := doRequest(t, h, tokens, admin, http.MethodPut,
			fmt.Sprintf("/api/v1/documents/%s/approve", doc.ID), "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, string(domain.ApprovalStatusApproved), got.Status)
	})

	t.Run("post is not accepted on decision routes", func(t *testing.T) {
		paths := []string{
			fmt.Sprintf("/api/v1/documents/%s/approve", uuid.NewString()),
			fmt.Sprintf("/api/v1/change-orders/%s/approve", uuid.NewString()),
			fmt.Sprintf("/api/v1/quotations/%s/approve", uuid.NewString()),
			fmt.Sprintf("/api/v1/commissions/%s/release", uuid.NewString()),
		}
		for _, path := range paths {
			rec := doRequest(t, h, tokens, admin, http.MethodPost, path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "POST %s", path)
		}
	})

	t.Run("put reaches the handlers", func(t *testing.T) {
		// Unknown IDs pass the method router and fail lookup instead.
		paths := []string{
			fmt.Sprintf("/api/v1/change-orders/%s/approve", uuid.NewString()),
			fmt.Sprintf("/api/v1/change-orders/%s/reject", uuid.NewString()),
			fmt.Sprintf("/api/v1/quotations/%s/send", uuid.NewString()),
			fmt.Sprintf("/api/v1/quotations/%s/approve", uuid.NewString()),
			fmt.Sprintf("/api/v1/quotations/%s/reject", uuid.NewString()),
			fmt.Sprintf("/api/v1/documents/%s/reject", uuid.NewString()),
		}
		for _, path := range paths {
			rec := doRequest(t, h, tokens, admin, http.MethodPut, path, "")
			assert.Equal(t, http.StatusNotFound, rec.Code, "PUT %s", path)
		}

		rec := doRequest(t, h, tokens, admin, http.MethodPut,
			fmt.Sprintf("/api/v1/commissions/%s/release", uuid.NewString()),
			`{"amount": 100}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRouter_DashboardRecentActivity(t *testing.T) {
	db := testutil.OpenTestDB(t)
	h, tokens := newTestServer(t, db)
	admin := testutil.CreateTestUser(t, db, domain.RoleAdmin)

	rec := doRequest(t, h, tokens, admin, http.MethodGet, "/api/v1/dashboard/recent-activity", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRouter_UserRoutesSplitReadAndManage(t *testing.T) {
	db := testutil.OpenTestDB(t)
	h, tokens := newTestServer(t, db)
	pm := testutil.CreateTestUser(t, db, domain.RoleProjectManager)
	agent := testutil.CreateTestUser(t, db, domain.RoleSalesAgent)

	t.Run("project manager lists users", func(t *testing.T) {
		rec := doRequest(t, h, tokens, pm, http.MethodGet, "/api/v1/users", "")
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("project manager reads a single user", func(t *testing.T) {
		rec := doRequest(t, h, tokens, pm, http.MethodGet, "/api/v1/users/"+agent.ID.String(), "")
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("project manager may not mutate users", func(t *testing.T) {
		rec := doRequest(t, h, tokens, pm, http.MethodPut,
			"/api/v1/users/"+agent.ID.String(), `{"name":"Renamed"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = doRequest(t, h, tokens, pm, http.MethodDelete,
			"/api/v1/users/"+agent.ID.String(), "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("sales agent may not list users", func(t *testing.T) {
		rec := doRequest(t, h, tokens, agent, http.MethodGet, "/api/v1/users", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
