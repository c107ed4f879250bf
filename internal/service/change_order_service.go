package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/mapper"
	"github.com/structura-group/pipeline-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChangeOrderService manages change requests against a deal. Approval folds
// the value impact into the deal's approved value and budget exactly once;
// the decision write and the aggregate write are sequential, not atomic, so
// a failure in between leaves the aggregates one reconcile run behind.
type ChangeOrderService struct {
	changeOrderRepo *repository.ChangeOrderRepository
	dealRepo        *repository.DealRepository
	activity        *ActivityService
	notifications   *NotificationService
	logger          *zap.Logger
}

func NewChangeOrderService(
	changeOrderRepo *repository.ChangeOrderRepository,
	dealRepo *repository.DealRepository,
	activity *ActivityService,
	notifications *NotificationService,
	logger *zap.Logger,
) *ChangeOrderService {
	return &ChangeOrderService{
		changeOrderRepo: changeOrderRepo,
		dealRepo:        dealRepo,
		activity:        activity,
		notifications:   notifications,
		logger:          logger,
	}
}

func (s *ChangeOrderService) Create(ctx context.Context, user *auth.UserContext, dealID uuid.UUID, req *domain.CreateChangeOrderRequest) (*domain.ChangeOrderDTO, error) {
	deal, err := s.dealRepo.FindVisibleByID(ctx, user, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	order := &domain.ChangeOrder{
		DealID:      dealID,
		Title:       req.Title,
		Description: req.Description,
		ValueImpact: req.ValueImpact,
		Status:      domain.ApprovalStatusPending,
		RequestedBy: user.UserID,
	}

	if err := s.changeOrderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create change order: %w", err)
	}

	s.activity.Record(ctx, "change_order", order.ID, &dealID, "change_order_created",
		fmt.Sprintf("Change order '%s' requested on deal '%s'", order.Title, deal.Title))

	dto := mapper.ToChangeOrderDTO(order)
	return &dto, nil
}

func (s *ChangeOrderService) GetByID(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.ChangeOrderDTO, error) {
	order, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToChangeOrderDTO(order)
	return &dto, nil
}

func (s *ChangeOrderService) List(ctx context.Context, user *auth.UserContext, dealID *uuid.UUID) ([]domain.ChangeOrderDTO, error) {
	orders, err := s.changeOrderRepo.List(ctx, user, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list change orders: %w", err)
	}

	dtos := make([]domain.ChangeOrderDTO, len(orders))
	for i := range orders {
		dtos[i] = mapper.ToChangeOrderDTO(&orders[i])
	}
	return dtos, nil
}

// Approve marks a pending change order approved and adds its value impact to
// the deal's approved value and budget. A second approval call finds the
// order already decided and changes nothing.
func (s *ChangeOrderService) Approve(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.ChangeOrderDTO, error) {
	order, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	decided, err := s.changeOrderRepo.SetDecision(ctx, id, domain.ApprovalStatusApproved, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to approve change order: %w", err)
	}
	if !decided {
		return nil, ErrAlreadyDecided
	}

	if err := s.dealRepo.AddApprovedValue(ctx, order.DealID, order.ValueImpact); err != nil {
		s.logger.Error("approved value rollup failed, reconcile will catch up",
			zap.String("dealId", order.DealID.String()), zap.Error(err))
	}

	s.activity.Record(ctx, "change_order", order.ID, &order.DealID, "change_order_approved",
		fmt.Sprintf("Change order '%s' approved, value impact %.2f", order.Title, order.ValueImpact))
	s.notifications.Notify(ctx, order.RequestedBy, domain.NotificationTypeApproval,
		"Change order approved",
		fmt.Sprintf("Change order '%s' was approved", order.Title),
		"change_order", &order.ID)

	return s.GetByID(ctx, user, id)
}

// Reject marks a pending change order rejected. Aggregates stay untouched.
func (s *ChangeOrderService) Reject(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.ChangeOrderDTO, error) {
	order, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	decided, err := s.changeOrderRepo.SetDecision(ctx, id, domain.ApprovalStatusRejected, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to reject change order: %w", err)
	}
	if !decided {
		return nil, ErrAlreadyDecided
	}

	s.activity.Record(ctx, "change_order", order.ID, &order.DealID, "change_order_rejected",
		fmt.Sprintf("Change order '%s' rejected", order.Title))
	s.notifications.Notify(ctx, order.RequestedBy, domain.NotificationTypeApproval,
		"Change order rejected",
		fmt.Sprintf("Change order '%s' was rejected", order.Title),
		"change_order", &order.ID)

	return s.GetByID(ctx, user, id)
}

func (s *ChangeOrderService) findVisible(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.ChangeOrder, error) {
	order, err := s.changeOrderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.dealRepo.FindVisibleByID(ctx, user, order.DealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}
