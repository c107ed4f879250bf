package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/config"
	"github.com/structura-group/pipeline-api/internal/database"
	"github.com/structura-group/pipeline-api/internal/http/handler"
	"github.com/structura-group/pipeline-api/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	dealHandler         *handler.DealHandler
	taskHandler         *handler.TaskHandler
	documentHandler     *handler.DocumentHandler
	changeOrderHandler  *handler.ChangeOrderHandler
	quotationHandler    *handler.QuotationHandler
	financialHandler    *handler.FinancialHandler
	commissionHandler   *handler.CommissionHandler
	progressHandler     *handler.ProgressHandler
	messageHandler      *handler.MessageHandler
	notificationHandler *handler.NotificationHandler
	dashboardHandler    *handler.DashboardHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	dealHandler *handler.DealHandler,
	taskHandler *handler.TaskHandler,
	documentHandler *handler.DocumentHandler,
	changeOrderHandler *handler.ChangeOrderHandler,
	quotationHandler *handler.QuotationHandler,
	financialHandler *handler.FinancialHandler,
	commissionHandler *handler.CommissionHandler,
	progressHandler *handler.ProgressHandler,
	messageHandler *handler.MessageHandler,
	notificationHandler *handler.NotificationHandler,
	dashboardHandler *handler.DashboardHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		authHandler:         authHandler,
		userHandler:         userHandler,
		dealHandler:         dealHandler,
		taskHandler:         taskHandler,
		documentHandler:     documentHandler,
		changeOrderHandler:  changeOrderHandler,
		quotationHandler:    quotationHandler,
		financialHandler:    financialHandler,
		commissionHandler:   commissionHandler,
		progressHandler:     progressHandler,
		messageHandler:      messageHandler,
		notificationHandler: notificationHandler,
		dashboardHandler:    dashboardHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": map[bool]string{true: "healthy", false: "unhealthy"}[allHealthy],
			"checks": checks,
		})
	})

	// Serve uploaded files directly in local storage mode
	if rt.cfg.Storage.Mode == "local" {
		fileServer := http.FileServer(http.Dir(rt.cfg.Storage.LocalBasePath))
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(rt.rateLimiter.LimitLogin)
			r.Post("/auth/login", rt.authHandler.Login)
			if rt.cfg.Bootstrap.Enabled {
				r.Post("/auth/init-admin", rt.authHandler.InitAdmin)
			}
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)
			r.With(rt.authMiddleware.RequireAction(auth.ActionManageUsers)).
				Post("/auth/register", rt.authHandler.Register)

			// Users: admin and PM may read, only admin may mutate
			r.Route("/users", func(r chi.Router) {
				r.With(rt.authMiddleware.RequireAction(auth.ActionViewUsers)).
					Get("/", rt.userHandler.List)
				r.With(rt.authMiddleware.RequireAction(auth.ActionViewUsers)).
					Get("/{id}", rt.userHandler.Get)
				r.With(rt.authMiddleware.RequireAction(auth.ActionManageUsers)).
					Put("/{id}", rt.userHandler.Update)
				r.With(rt.authMiddleware.RequireAction(auth.ActionManageUsers)).
					Delete("/{id}", rt.userHandler.Delete)
			})

			// Deals and nested resources
			r.Route("/deals", func(r chi.Router) {
				r.Get("/", rt.dealHandler.List)
				r.With(rt.authMiddleware.RequireAction(auth.ActionCreateDeal)).
					Post("/", rt.dealHandler.Create)
				r.Get("/{id}", rt.dealHandler.Get)
				r.With(rt.authMiddleware.RequireAction(auth.ActionUpdateDeal)).
					Put("/{id}", rt.dealHandler.Update)
				r.With(rt.authMiddleware.RequireAction(auth.ActionDeleteDeal)).
					Delete("/{id}", rt.dealHandler.Delete)

				r.With(rt.authMiddleware.RequireAction(auth.ActionCreateTask)).
					Post("/{dealId}/tasks", rt.taskHandler.Create)
				r.With(rt.authMiddleware.RequireAction(auth.ActionUploadDocument)).
					Post("/{dealId}/documents", rt.documentHandler.Upload)
				r.With(rt.authMiddleware.RequireAction(auth.ActionUpdateDeal)).
					Post("/{dealId}/change-orders", rt.changeOrderHandler.Create)
				r.With(rt.authMiddleware.RequireAction(auth.ActionUpdateDeal)).
					Post("/{dealId}/quotations", rt.quotationHandler.Create)
				r.With(rt.authMiddleware.RequireAction(auth.ActionCreateFinancialEntry)).
					Post("/{dealId}/financial-entries", rt.financialHandler.Create)
				r.With(rt.authMiddleware.RequireAction(auth.ActionCreateProgressLog)).
					Post("/{dealId}/progress-logs", rt.progressHandler.Create)
				r.With(rt.authMiddleware.RequireAction(auth.ActionCreateMessage)).
					Post("/{dealId}/messages", rt.messageHandler.Create)
			})

			// Tasks
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", rt.taskHandler.List)
				r.Get("/{id}", rt.taskHandler.Get)
				r.With(rt.authMiddleware.RequireAction(auth.ActionUpdateTaskStatus)).
					Put("/{id}", rt.taskHandler.Update)
			})

			// Documents
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", rt.documentHandler.List)
				r.Get("/{id}", rt.documentHandler.Get)
				r.Get("/{id}/download", rt.documentHandler.Download)
				r.With(rt.authMiddleware.RequireAction(auth.ActionApproveDocument)).
					Put("/{id}/approve", rt.documentHandler.Approve)
				r.With(rt.authMiddleware.RequireAction(auth.ActionApproveDocument)).
					Put("/{id}/reject", rt.documentHandler.Reject)
			})

			// Change orders
			r.Route("/change-orders", func(r chi.Router) {
				r.Get("/", rt.changeOrderHandler.List)
				r.Get("/{id}", rt.changeOrderHandler.Get)
				r.With(rt.authMiddleware.RequireAction(auth.ActionApproveChangeOrder)).
					Put("/{id}/approve", rt.changeOrderHandler.Approve)
				r.With(rt.authMiddleware.RequireAction(auth.ActionApproveChangeOrder)).
					Put("/{id}/reject", rt.changeOrderHandler.Reject)
			})

			// Quotations
			r.Route("/quotations", func(r chi.Router) {
				r.Get("/", rt.quotationHandler.List)
				r.Get("/{id}", rt.quotationHandler.Get)
				r.With(rt.authMiddleware.RequireAction(auth.ActionUpdateDeal)).
					Put("/{id}/send", rt.quotationHandler.Send)
				r.With(rt.authMiddleware.RequireAction(auth.ActionApproveQuotation)).
					Put("/{id}/approve", rt.quotationHandler.Approve)
				r.With(rt.authMiddleware.RequireAction(auth.ActionApproveQuotation)).
					Put("/{id}/reject", rt.quotationHandler.Reject)
			})

			// Financial entries
			r.Route("/financial-entries", func(r chi.Router) {
				r.Get("/", rt.financialHandler.List)
				r.Get("/{id}", rt.financialHandler.Get)
				r.With(rt.authMiddleware.RequireAction(auth.ActionSetFinancialStatus)).
					Put("/{id}/status", rt.financialHandler.SetStatus)
			})

			// Commissions
			r.Route("/commissions", func(r chi.Router) {
				r.Get("/", rt.commissionHandler.List)
				r.Get("/{id}", rt.commissionHandler.Get)
				r.With(rt.authMiddleware.RequireAction(auth.ActionReleaseCommission)).
					Put("/{id}/release", rt.commissionHandler.Release)
			})

			// Progress logs and messages
			r.Get("/progress-logs", rt.progressHandler.List)
			r.Get("/messages", rt.messageHandler.List)

			// Notifications
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.notificationHandler.List)
				r.Put("/read-all", rt.notificationHandler.MarkAllRead)
				r.Put("/{id}/read", rt.notificationHandler.MarkRead)
			})

			// Dashboard
			r.Route("/dashboard", func(r chi.Router) {
				r.Use(rt.authMiddleware.RequireAction(auth.ActionViewDashboard))
				r.Get("/stats", rt.dashboardHandler.Stats)
				r.Get("/pipeline", rt.dashboardHandler.Pipeline)
				r.Get("/recent-activity", rt.dashboardHandler.RecentActivity)
			})
		})
	})

	return r
}
