package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// TaskFilters narrows task listings
type TaskFilters struct {
	DealID *uuid.UUID
	Status *domain.TaskStatus
}

// List returns tasks under the caller's visible deals, further narrowed by
// the role-specific task scope.
func (r *TaskRepository) List(ctx context.Context, user *auth.UserContext, filters TaskFilters) ([]domain.Task, error) {
	var tasks []domain.Task
	query := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("deal_id IN (?)", visibleDealIDs(r.db.WithContext(ctx), user)).
		Scopes(TaskVisibilityScope(user))
	if filters.DealID != nil {
		query = query.Where("deal_id = ?", *filters.DealID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	err := query.Order("created_at ASC").Find(&tasks).Error
	return tasks, err
}

// Update applies a partial field-set update. Omitted fields stay unchanged.
func (r *TaskRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).Updates(updates).Error
}

// ProgressValues returns the progress of every task under a deal. The
// parent rollup is the unweighted mean of these values.
func (r *TaskRepository) ProgressValues(ctx context.Context, dealID uuid.UUID) ([]float64, error) {
	var values []float64
	err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("deal_id = ?", dealID).
		Pluck("progress", &values).Error
	return values, err
}

// CountAssignedOpen counts open tasks assigned to the user.
func (r *TaskRepository) CountAssignedOpen(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("assigned_to LIKE ?", jsonListPattern(userID.String())).
		Where("status NOT IN ?", []domain.TaskStatus{domain.TaskStatusCompleted}).
		Count(&count).Error
	return count, err
}
