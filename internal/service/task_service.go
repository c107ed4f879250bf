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

// TaskService manages tasks under a deal and keeps the parent's rollup
// progress current after every progress-affecting mutation.
type TaskService struct {
	taskRepo      *repository.TaskRepository
	dealRepo      *repository.DealRepository
	deals         *DealService
	activity      *ActivityService
	notifications *NotificationService
	logger        *zap.Logger
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	dealRepo *repository.DealRepository,
	deals *DealService,
	activity *ActivityService,
	notifications *NotificationService,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		dealRepo:      dealRepo,
		deals:         deals,
		activity:      activity,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *TaskService) Create(ctx context.Context, user *auth.UserContext, dealID uuid.UUID, req *domain.CreateTaskRequest) (*domain.TaskDTO, error) {
	deal, err := s.dealRepo.FindVisibleByID(ctx, user, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.TaskStatusPending
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown task status %q", ErrInvalidInput, status)
	}

	task := &domain.Task{
		DealID:        dealID,
		Name:          req.Name,
		Description:   req.Description,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Status:        status,
		Progress:      req.Progress,
		AssignedTo:    req.AssignedTo,
		IsMilestone:   req.IsMilestone,
		ClientVisible: req.ClientVisible,
		DependsOn:     req.DependsOn,
		CreatedBy:     user.UserID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.deals.RecalculateProgress(ctx, dealID); err != nil {
		s.logger.Error("rollup after task create failed",
			zap.String("dealId", dealID.String()), zap.Error(err))
	}

	s.activity.Record(ctx, "task", task.ID, &dealID, "task_created",
		fmt.Sprintf("Task '%s' created on deal '%s'", task.Name, deal.Title))
	for _, assigneeID := range task.AssignedTo {
		s.notifications.Notify(ctx, assigneeID, domain.NotificationTypeAssignment,
			"Task assigned",
			fmt.Sprintf("You are assigned to task '%s' on deal '%s'", task.Name, deal.Title),
			"task", &task.ID)
	}

	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

func (s *TaskService) GetByID(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.dealRepo.FindVisibleByID(ctx, user, task.DealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

func (s *TaskService) List(ctx context.Context, user *auth.UserContext, filters repository.TaskFilters) ([]domain.TaskDTO, error) {
	tasks, err := s.taskRepo.List(ctx, user, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	dtos := make([]domain.TaskDTO, len(tasks))
	for i := range tasks {
		dtos[i] = mapper.ToTaskDTO(&tasks[i])
	}
	return dtos, nil
}

// Update applies a partial update. Supervisors and fabricators may only move
// status and progress; any other field from them is rejected. A task moved to
// completed without an explicit progress value lands at 100.
func (s *TaskService) Update(ctx context.Context, user *auth.UserContext, id uuid.UUID, req *domain.UpdateTaskRequest) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.dealRepo.FindVisibleByID(ctx, user, task.DealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	statusOnly := user.Role == domain.RoleSupervisor || user.Role == domain.RoleFabricator
	if statusOnly {
		touchesOther := req.Name != nil || req.Description != nil || req.StartDate != nil ||
			req.EndDate != nil || req.AssignedTo != nil || req.IsMilestone != nil ||
			req.ClientVisible != nil || req.DependsOn != nil
		if touchesOther {
			return nil, ErrPermissionDenied
		}
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown task status %q", ErrInvalidInput, *req.Status)
		}
		updates["status"] = *req.Status
		if *req.Status == domain.TaskStatusCompleted && req.Progress == nil {
			updates["progress"] = 100.0
		}
	}
	if req.Progress != nil {
		updates["progress"] = *req.Progress
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = domain.UUIDList(req.AssignedTo)
	}
	if req.IsMilestone != nil {
		updates["is_milestone"] = *req.IsMilestone
	}
	if req.ClientVisible != nil {
		updates["client_visible"] = *req.ClientVisible
	}
	if req.DependsOn != nil {
		updates["depends_on"] = domain.UUIDList(req.DependsOn)
	}

	if len(updates) == 0 {
		return nil, ErrEmptyUpdate
	}

	if err := s.taskRepo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if _, touched := updates["progress"]; touched || req.Status != nil {
		if err := s.deals.RecalculateProgress(ctx, task.DealID); err != nil {
			s.logger.Error("rollup after task update failed",
				zap.String("dealId", task.DealID.String()), zap.Error(err))
		}
	}

	updated, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, "task", updated.ID, &updated.DealID, "task_updated",
		fmt.Sprintf("Task '%s' updated", updated.Name))

	dto := mapper.ToTaskDTO(updated)
	return &dto, nil
}
