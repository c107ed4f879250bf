package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/config"
	"github.com/structura-group/pipeline-api/internal/database"
	"github.com/structura-group/pipeline-api/internal/http/handler"
	"github.com/structura-group/pipeline-api/internal/http/middleware"
	"github.com/structura-group/pipeline-api/internal/http/router"
	"github.com/structura-group/pipeline-api/internal/jobs"
	"github.com/structura-group/pipeline-api/internal/logger"
	"github.com/structura-group/pipeline-api/internal/reporting"
	"github.com/structura-group/pipeline-api/internal/repository"
	"github.com/structura-group/pipeline-api/internal/service"
	"github.com/structura-group/pipeline-api/internal/storage"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Schema migrations run through cmd/migrate; auto-migration is a
	// development convenience only
	if cfg.App.Environment == "development" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate schema: %w", err)
		}
		log.Info("Schema auto-migration complete")
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize reporting warehouse connection (optional, write-only export)
	// The app continues without it if not configured
	var reportingClient *reporting.Client
	if cfg.Reporting.Enabled {
		reportingClient, err = reporting.NewClient(&cfg.Reporting, log)
		if err != nil {
			log.Warn("Reporting warehouse connection failed, continuing without it",
				zap.Error(err),
			)
		} else if reportingClient != nil {
			log.Info("Reporting warehouse connected successfully",
				zap.Int("max_open_conns", cfg.Reporting.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.Reporting.QueryTimeout),
			)
		}
	} else {
		log.Info("Reporting warehouse not configured, skipping")
	}

	// Initialize repositories
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

	// Initialize services
	// Activity and notification services first (most others depend on them)
	activityService := service.NewActivityService(activityLogRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, log)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiryDuration())
	authService := service.NewAuthService(userRepo, tokens, activityService, cfg.Bootstrap, log)
	userService := service.NewUserService(userRepo, activityService, log)
	dealService := service.NewDealService(dealRepo, taskRepo, activityService, notificationService, log)
	taskService := service.NewTaskService(taskRepo, dealRepo, dealService, activityService, notificationService, log)
	documentService := service.NewDocumentService(documentRepo, dealRepo, fileStorage, activityService, log)
	changeOrderService := service.NewChangeOrderService(changeOrderRepo, dealRepo, activityService, notificationService, log)
	quotationService := service.NewQuotationService(quotationRepo, dealRepo, commissionRepo, userRepo, activityService, notificationService, log)
	financialService := service.NewFinancialService(financialEntryRepo, dealRepo, activityService, log)
	commissionService := service.NewCommissionService(commissionRepo, dealRepo, userRepo, activityService, notificationService, log)
	progressService := service.NewProgressService(progressLogRepo, taskRepo, dealRepo, dealService, activityService, log)
	messageService := service.NewMessageService(messageRepo, dealRepo, activityService, log)
	dashboardService := service.NewDashboardService(dealRepo, taskRepo, documentRepo, commissionRepo, userRepo, activityService, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(tokens, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, log)
	userHandler := handler.NewUserHandler(userService, log)
	dealHandler := handler.NewDealHandler(dealService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	documentHandler := handler.NewDocumentHandler(documentService, cfg.Storage.MaxUploadSizeMB, log)
	changeOrderHandler := handler.NewChangeOrderHandler(changeOrderService, log)
	quotationHandler := handler.NewQuotationHandler(quotationService, log)
	financialHandler := handler.NewFinancialHandler(financialService, log)
	commissionHandler := handler.NewCommissionHandler(commissionService, log)
	progressHandler := handler.NewProgressHandler(progressService, log)
	messageHandler := handler.NewMessageHandler(messageService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		userHandler,
		dealHandler,
		taskHandler,
		documentHandler,
		changeOrderHandler,
		quotationHandler,
		financialHandler,
		commissionHandler,
		progressHandler,
		messageHandler,
		notificationHandler,
		dashboardHandler,
	)

	// Initialize and start scheduler for background jobs
	scheduler := jobs.NewScheduler(log)
	jobTimeout := cfg.Jobs.JobTimeoutDuration()

	reconcileJob := jobs.NewRollupReconcileJob(dealRepo, dealService, log, jobTimeout)
	if err := scheduler.AddJob(jobs.RollupReconcileJobName, cfg.Jobs.RollupReconcileCron, reconcileJob.Run); err != nil {
		log.Error("Failed to register rollup reconcile job", zap.Error(err))
	}

	if reportingClient != nil {
		exportJob := jobs.NewReportingExportJob(dashboardService, commissionRepo, reportingClient, log, jobTimeout)
		if err := scheduler.AddJob(jobs.ReportingExportJobName, cfg.Jobs.ReportingExportCron, exportJob.Run); err != nil {
			log.Error("Failed to register reporting export job", zap.Error(err))
		}
	}

	scheduler.Start()
	log.Info("Scheduler started",
		zap.String("rollup_reconcile_cron", cfg.Jobs.RollupReconcileCron),
		zap.String("reporting_export_cron", cfg.Jobs.ReportingExportCron),
		zap.Duration("timeout", jobTimeout),
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler
		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
		log.Info("Scheduler stopped")

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close reporting warehouse connection if initialized
		if reportingClient != nil {
			if err := reportingClient.Close(); err != nil {
				log.Warn("Error closing reporting warehouse connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
