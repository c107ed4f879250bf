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

// ProgressService appends site progress logs. A log linked to a task with a
// progress value overwrites that task's progress and triggers the deal's
// rollup recalculation.
type ProgressService struct {
	progressRepo *repository.ProgressLogRepository
	taskRepo     *repository.TaskRepository
	dealRepo     *repository.DealRepository
	deals        *DealService
	activity     *ActivityService
	logger       *zap.Logger
}

func NewProgressService(
	progressRepo *repository.ProgressLogRepository,
	taskRepo *repository.TaskRepository,
	dealRepo *repository.DealRepository,
	deals *DealService,
	activity *ActivityService,
	logger *zap.Logger,
) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		taskRepo:     taskRepo,
		dealRepo:     dealRepo,
		deals:        deals,
		activity:     activity,
		logger:       logger,
	}
}

func (s *ProgressService) Create(ctx context.Context, user *auth.UserContext, dealID uuid.UUID, req *domain.CreateProgressLogRequest) (*domain.ProgressLogDTO, error) {
	deal, err := s.dealRepo.FindVisibleByID(ctx, user, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.TaskID != nil {
		task, err := s.taskRepo.FindByID(ctx, *req.TaskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: linked task not found", ErrInvalidInput)
			}
			return nil, err
		}
		if task.DealID != dealID {
			return nil, fmt.Errorf("%w: task belongs to a different deal", ErrInvalidInput)
		}
	}

	log := &domain.ProgressLog{
		DealID:        dealID,
		TaskID:        req.TaskID,
		Note:          req.Note,
		Progress:      req.Progress,
		PhotoPaths:    req.PhotoPaths,
		ClientVisible: req.ClientVisible,
		CreatedBy:     user.UserID,
	}

	if err := s.progressRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to create progress log: %w", err)
	}

	if req.TaskID != nil && req.Progress != nil {
		if err := s.taskRepo.Update(ctx, *req.TaskID, map[string]interface{}{"progress": *req.Progress}); err != nil {
			s.logger.Error("task progress update from log failed",
				zap.String("taskId", req.TaskID.String()), zap.Error(err))
		} else if err := s.deals.RecalculateProgress(ctx, dealID); err != nil {
			s.logger.Error("rollup after progress log failed",
				zap.String("dealId", dealID.String()), zap.Error(err))
		}
	}

	s.activity.Record(ctx, "progress_log", log.ID, &dealID, "progress_logged",
		fmt.Sprintf("Progress logged on deal '%s'", deal.Title))

	dto := mapper.ToProgressLogDTO(log)
	return &dto, nil
}

func (s *ProgressService) List(ctx context.Context, user *auth.UserContext, dealID *uuid.UUID) ([]domain.ProgressLogDTO, error) {
	logs, err := s.progressRepo.List(ctx, user, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress logs: %w", err)
	}

	dtos := make([]domain.ProgressLogDTO, len(logs))
	for i := range logs {
		dtos[i] = mapper.ToProgressLogDTO(&logs[i])
	}
	return dtos, nil
}
