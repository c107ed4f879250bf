package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type ProgressLogRepository struct {
	db *gorm.DB
}

func NewProgressLogRepository(db *gorm.DB) *ProgressLogRepository {
	return &ProgressLogRepository{db: db}
}

func (r *ProgressLogRepository) Create(ctx context.Context, log *domain.ProgressLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// List returns progress logs under the caller's visible deals, newest
// first. Internal logs are hidden from client roles.
func (r *ProgressLogRepository) List(ctx context.Context, user *auth.UserContext, dealID *uuid.UUID) ([]domain.ProgressLog, error) {
	var logs []domain.ProgressLog
	query := r.db.WithContext(ctx).Model(&domain.ProgressLog{}).
		Where("deal_id IN (?)", visibleDealIDs(r.db.WithContext(ctx), user)).
		Scopes(ProgressLogVisibilityScope(user))
	if dealID != nil {
		query = query.Where("deal_id = ?", *dealID)
	}
	err := query.Order("created_at DESC").Find(&logs).Error
	return logs, err
}
