package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type QuotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

func (r *QuotationRepository) Create(ctx context.Context, quotation *domain.Quotation) error {
	return r.db.WithContext(ctx).Create(quotation).Error
}

func (r *QuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Quotation, error) {
	var quotation domain.Quotation
	err := r.db.WithContext(ctx).First(&quotation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *QuotationRepository) List(ctx context.Context, user *auth.UserContext, dealID *uuid.UUID) ([]domain.Quotation, error) {
	var quotations []domain.Quotation
	query := r.db.WithContext(ctx).Model(&domain.Quotation{}).
		Where("deal_id IN (?)", visibleDealIDs(r.db.WithContext(ctx), user))
	if dealID != nil {
		query = query.Where("deal_id = ?", *dealID)
	}
	err := query.Order("created_at DESC").Find(&quotations).Error
	return quotations, err
}

// CountByDeal counts quotations on a deal, used for quote numbering.
func (r *QuotationRepository) CountByDeal(ctx context.Context, dealID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Quotation{}).
		Where("deal_id = ?", dealID).
		Count(&count).Error
	return count, err
}

// MarkSent moves a draft quotation to sent.
func (r *QuotationRepository) MarkSent(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Quotation{}).
		Where("id = ? AND status = ?", id, domain.QuotationStatusDraft).
		Update("status", domain.QuotationStatusSent)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetDecision records the approval decision, guarded against double
// application the same way change orders are.
func (r *QuotationRepository) SetDecision(ctx context.Context, id uuid.UUID, status domain.QuotationStatus, approverID uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&domain.Quotation{}).
		Where("id = ? AND status IN ?", id, []domain.QuotationStatus{domain.QuotationStatusDraft, domain.QuotationStatusSent}).
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
