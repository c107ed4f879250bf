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

// CommissionService serves commission records and handles explicit releases.
// A release adds to the commission's released amount and to the agent's
// cumulative earned stat. Nothing stops the released amount from exceeding
// the earned amount; an over-release is logged as a warning and applied.
type CommissionService struct {
	commissionRepo *repository.CommissionRepository
	dealRepo       *repository.DealRepository
	userRepo       *repository.UserRepository
	activity       *ActivityService
	notifications  *NotificationService
	logger         *zap.Logger
}

func NewCommissionService(
	commissionRepo *repository.CommissionRepository,
	dealRepo *repository.DealRepository,
	userRepo *repository.UserRepository,
	activity *ActivityService,
	notifications *NotificationService,
	logger *zap.Logger,
) *CommissionService {
	return &CommissionService{
		commissionRepo: commissionRepo,
		dealRepo:       dealRepo,
		userRepo:       userRepo,
		activity:       activity,
		notifications:  notifications,
		logger:         logger,
	}
}

func (s *CommissionService) GetByID(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.CommissionDTO, error) {
	commission, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToCommissionDTO(commission)
	return &dto, nil
}

func (s *CommissionService) List(ctx context.Context, user *auth.UserContext, dealID *uuid.UUID) ([]domain.CommissionDTO, error) {
	commissions, err := s.commissionRepo.List(ctx, user, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}

	dtos := make([]domain.CommissionDTO, len(commissions))
	for i := range commissions {
		dtos[i] = mapper.ToCommissionDTO(&commissions[i])
	}
	return dtos, nil
}

// Release pays out part of a commission. The released amount and the agent's
// cumulative earned stat both grow by the released amount.
func (s *CommissionService) Release(ctx context.Context, user *auth.UserContext, id uuid.UUID, amount float64) (*domain.CommissionDTO, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: release amount must be positive", ErrInvalidInput)
	}

	commission, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	newReleased := commission.ReleasedAmount + amount
	if newReleased > commission.EarnedAmount {
		s.logger.Warn("commission release exceeds earned amount",
			zap.String("commissionId", commission.ID.String()),
			zap.Float64("earned", commission.EarnedAmount),
			zap.Float64("released", newReleased))
	}

	status := domain.CommissionStatusPartiallyReleased
	if newReleased >= commission.EarnedAmount {
		status = domain.CommissionStatusReleased
	}

	if err := s.commissionRepo.Release(ctx, id, amount, status); err != nil {
		return nil, fmt.Errorf("failed to release commission: %w", err)
	}

	if err := s.userRepo.AddCommissionEarned(ctx, commission.AgentID, amount); err != nil {
		s.logger.Error("agent commission stat update failed",
			zap.String("agentId", commission.AgentID.String()), zap.Error(err))
	}

	s.activity.Record(ctx, "commission", commission.ID, &commission.DealID, "commission_released",
		fmt.Sprintf("Commission release of %.2f, total released %.2f of %.2f", amount, newReleased, commission.EarnedAmount))
	s.notifications.Notify(ctx, commission.AgentID, domain.NotificationTypeCommission,
		"Commission released",
		fmt.Sprintf("A commission payment of %.2f was released to you", amount),
		"commission", &commission.ID)

	return s.GetByID(ctx, user, id)
}

func (s *CommissionService) findVisible(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.Commission, error) {
	commission, err := s.commissionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Agents see their own commissions even on deals they cannot read.
	if user.Role == domain.RoleSalesAgent && commission.AgentID == user.UserID {
		return commission, nil
	}

	if _, err := s.dealRepo.FindVisibleByID(ctx, user, commission.DealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return commission, nil
}
