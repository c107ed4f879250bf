package repository

import (
	"context"

	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

// ActivityLogRepository is append-only: rows are created and listed, never
// updated or deleted.
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListRecent returns the most recent entries. Non-admin callers only see
// activity on their visible deals or their own actions.
func (r *ActivityLogRepository) ListRecent(ctx context.Context, user *auth.UserContext, limit int) ([]domain.ActivityLog, error) {
	var entries []domain.ActivityLog
	query := r.db.WithContext(ctx).Model(&domain.ActivityLog{})
	if user.Role != domain.RoleAdmin {
		query = query.Where("deal_id IN (?) OR actor_id = ?",
			visibleDealIDs(r.db.WithContext(ctx), user), user.UserID)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
