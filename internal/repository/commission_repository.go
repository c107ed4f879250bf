package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

func (r *CommissionRepository) Create(ctx context.Context, commission *domain.Commission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

func (r *CommissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Commission, error) {
	var commission domain.Commission
	err := r.db.WithContext(ctx).First(&commission, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// List returns commissions the caller may see. Sales agents only see their
// own; other non-admin roles are bound to their visible deals.
func (r *CommissionRepository) List(ctx context.Context, user *auth.UserContext, dealID *uuid.UUID) ([]domain.Commission, error) {
	var commissions []domain.Commission
	query := r.db.WithContext(ctx).Model(&domain.Commission{})
	switch user.Role {
	case domain.RoleAdmin:
	case domain.RoleSalesAgent:
		query = query.Where("agent_id = ?", user.UserID)
	default:
		query = query.Where("deal_id IN (?)", visibleDealIDs(r.db.WithContext(ctx), user))
	}
	if dealID != nil {
		query = query.Where("deal_id = ?", *dealID)
	}
	err := query.Order("created_at DESC").Find(&commissions).Error
	return commissions, err
}

// Release adds a released amount and refreshes the status.
func (r *CommissionRepository) Release(ctx context.Context, id uuid.UUID, amount float64, status domain.CommissionStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Commission{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"released_amount": gorm.Expr("released_amount + ?", amount),
			"status":          status,
		}).Error
}

// SumEarnedByAgent totals earned commission for an agent.
func (r *CommissionRepository) SumEarnedByAgent(ctx context.Context, agentID uuid.UUID) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&domain.Commission{}).
		Where("agent_id = ?", agentID).
		Select("COALESCE(SUM(earned_amount), 0)").
		Scan(&total).Error
	return total, err
}

// SumReleasedByAgent totals released commission for an agent.
func (r *CommissionRepository) SumReleasedByAgent(ctx context.Context, agentID uuid.UUID) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&domain.Commission{}).
		Where("agent_id = ?", agentID).
		Select("COALESCE(SUM(released_amount), 0)").
		Scan(&total).Error
	return total, err
}

// ListAll returns every commission row, used by the reporting export job.
func (r *CommissionRepository) ListAll(ctx context.Context) ([]domain.Commission, error) {
	var commissions []domain.Commission
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&commissions).Error
	return commissions, err
}
