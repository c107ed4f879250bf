package service_test

import (
	"testing"

	"github.com/structura-group/pipeline-api/internal/repository"
	"github.com/structura-group/pipeline-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// services bundles the full service graph over one test database.
type services struct {
	deals       *service.DealService
	tasks       *service.TaskService
	changes     *service.ChangeOrderService
	quotations  *service.QuotationService
	financials  *service.FinancialService
	commissions *service.CommissionService
	progress    *service.ProgressService
	messages    *service.MessageService
	users       *service.UserService
	dashboard   *service.DashboardService

	dealRepo       *repository.DealRepository
	taskRepo       *repository.TaskRepository
	commissionRepo *repository.CommissionRepository
	userRepo       *repository.UserRepository
}

func newServices(t *testing.T, db *gorm.DB) *services {
	t.Helper()
	logger := zap.NewNop()

	userRepo := repository.NewUserRepository(db)
	dealRepo := repository.NewDealRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	changeOrderRepo := repository.NewChangeOrderRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	financialRepo := repository.NewFinancialEntryRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	progressRepo := repository.NewProgressLogRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	activity := service.NewActivityService(activityRepo, logger)
	notifications := service.NewNotificationService(notificationRepo, logger)

	deals := service.NewDealService(dealRepo, taskRepo, activity, notifications, logger)

	return &services{
		deals:       deals,
		tasks:       service.NewTaskService(taskRepo, dealRepo, deals, activity, notifications, logger),
		changes:     service.NewChangeOrderService(changeOrderRepo, dealRepo, activity, notifications, logger),
		quotations:  service.NewQuotationService(quotationRepo, dealRepo, commissionRepo, userRepo, activity, notifications, logger),
		financials:  service.NewFinancialService(financialRepo, dealRepo, activity, logger),
		commissions: service.NewCommissionService(commissionRepo, dealRepo, userRepo, activity, notifications, logger),
		progress:    service.NewProgressService(progressRepo, taskRepo, dealRepo, deals, activity, logger),
		messages:    service.NewMessageService(messageRepo, dealRepo, activity, logger),
		users:       service.NewUserService(userRepo, activity, logger),
		dashboard:   service.NewDashboardService(dealRepo, taskRepo, documentRepo, commissionRepo, userRepo, activity, logger),

		dealRepo:       dealRepo,
		taskRepo:       taskRepo,
		commissionRepo: commissionRepo,
		userRepo:       userRepo,
	}
}
