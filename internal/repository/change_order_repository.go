package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type ChangeOrderRepository struct {
	db *gorm.DB
}

func NewChangeOrderRepository(db *gorm.DB) *ChangeOrderRepository {
	return &ChangeOrderRepository{db: db}
}

func (r *ChangeOrderRepository) Create(ctx context.Context, order *domain.ChangeOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *ChangeOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ChangeOrder, error) {
	var order domain.ChangeOrder
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *ChangeOrderRepository) List(ctx context.Context, user *auth.UserContext, dealID *uuid.UUID) ([]domain.ChangeOrder, error) {
	var orders []domain.ChangeOrder
	query := r.db.WithContext(ctx).Model(&domain.ChangeOrder{}).
		Where("deal_id IN (?)", visibleDealIDs(r.db.WithContext(ctx), user))
	if dealID != nil {
		query = query.Where("deal_id = ?", *dealID)
	}
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

// SetDecision records the approval decision. The caller has already checked
// the order is still pending; the status guard here keeps a double approval
// from applying twice under a race.
func (r *ChangeOrderRepository) SetDecision(ctx context.Context, id uuid.UUID, status domain.ApprovalStatus, approverID uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&domain.ChangeOrder{}).
		Where("id = ? AND status = ?", id, domain.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"approved_by": approverID,
			"approved_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
