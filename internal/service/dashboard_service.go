package service

import (
	"context"
	"fmt"

	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/repository"
	"go.uber.org/zap"
)

// DashboardService aggregates role-specific counters. Every number respects
// the caller's deal visibility; only the fields relevant to the role are
// populated in the response.
type DashboardService struct {
	dealRepo       *repository.DealRepository
	taskRepo       *repository.TaskRepository
	documentRepo   *repository.DocumentRepository
	commissionRepo *repository.CommissionRepository
	userRepo       *repository.UserRepository
	activity       *ActivityService
	logger         *zap.Logger
}

func NewDashboardService(
	dealRepo *repository.DealRepository,
	taskRepo *repository.TaskRepository,
	documentRepo *repository.DocumentRepository,
	commissionRepo *repository.CommissionRepository,
	userRepo *repository.UserRepository,
	activity *ActivityService,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		dealRepo:       dealRepo,
		taskRepo:       taskRepo,
		documentRepo:   documentRepo,
		commissionRepo: commissionRepo,
		userRepo:       userRepo,
		activity:       activity,
		logger:         logger,
	}
}

func (s *DashboardService) Stats(ctx context.Context, user *auth.UserContext) (*domain.DashboardStatsDTO, error) {
	stats := &domain.DashboardStatsDTO{}

	total, err := s.dealRepo.CountVisible(ctx, user, false)
	if err != nil {
		return nil, fmt.Errorf("failed to count deals: %w", err)
	}
	stats.TotalDeals = total

	active, err := s.dealRepo.CountVisible(ctx, user, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count active deals: %w", err)
	}
	stats.ActiveDeals = active

	switch user.Role {
	case domain.RoleAdmin:
		if err := s.fillValueStats(ctx, user, stats); err != nil {
			return nil, err
		}
		users, err := s.userRepo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count users: %w", err)
		}
		stats.TotalUsers = &users
		pending, err := s.documentRepo.CountPending(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count pending documents: %w", err)
		}
		stats.PendingApprovals = &pending

	case domain.RoleProjectManager:
		if err := s.fillValueStats(ctx, user, stats); err != nil {
			return nil, err
		}
		openTasks, err := s.taskRepo.CountAssignedOpen(ctx, user.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to count open tasks: %w", err)
		}
		stats.OpenTasks = &openTasks

	case domain.RoleSalesAgent:
		earned, err := s.commissionRepo.SumEarnedByAgent(ctx, user.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum earned commission: %w", err)
		}
		stats.TotalCommissionEarned = &earned
		released, err := s.commissionRepo.SumReleasedByAgent(ctx, user.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum released commission: %w", err)
		}
		stats.CommissionReleased = &released

	case domain.RoleSupervisor, domain.RoleFabricator:
		jobs, err := s.taskRepo.CountAssignedOpen(ctx, user.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to count assigned jobs: %w", err)
		}
		stats.AssignedJobs = &jobs
	}

	return stats, nil
}

// Pipeline returns the per-stage deal breakdown over the caller's visible
// deals, every stage present even when empty.
func (s *DashboardService) Pipeline(ctx context.Context, user *auth.UserContext) ([]domain.PipelineStageDTO, error) {
	breakdown, err := s.dealRepo.PipelineBreakdown(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline breakdown: %w", err)
	}
	return breakdown, nil
}

// RecentActivity returns the newest activity entries the caller may see.
func (s *DashboardService) RecentActivity(ctx context.Context, user *auth.UserContext, limit int) ([]domain.ActivityLogDTO, error) {
	return s.activity.ListRecent(ctx, user, limit)
}

func (s *DashboardService) fillValueStats(ctx context.Context, user *auth.UserContext, stats *domain.DashboardStatsDTO) error {
	pipelineValue, err := s.dealRepo.SumEstimatedValue(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to sum pipeline value: %w", err)
	}
	stats.TotalPipelineValue = &pipelineValue

	contractValue, err := s.dealRepo.SumContractValue(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to sum contract value: %w", err)
	}
	stats.TotalContractValue = &contractValue
	return nil
}
