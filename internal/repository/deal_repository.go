package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type DealRepository struct {
	db *gorm.DB
}

func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

func (r *DealRepository) Create(ctx context.Context, deal *domain.Deal) error {
	return r.db.WithContext(ctx).Create(deal).Error
}

func (r *DealRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Deal, error) {
	var deal domain.Deal
	err := r.db.WithContext(ctx).First(&deal, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// FindVisibleByID loads a deal only when the caller's visibility predicate
// matches it. A deal outside the predicate reads as not found.
func (r *DealRepository) FindVisibleByID(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.Deal, error) {
	var deal domain.Deal
	err := r.db.WithContext(ctx).
		Scopes(DealVisibilityScope(user)).
		First(&deal, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &deal, nil
}

// DealFilters narrows deal listings
type DealFilters struct {
	Stage          *domain.DealStage
	ClientCategory *domain.ClientCategory
	AssignedPM     *uuid.UUID
	Search         *string
}

func (r *DealRepository) applyFilters(query *gorm.DB, filters DealFilters) *gorm.DB {
	if filters.Stage != nil {
		query = query.Where("stage = ?", *filters.Stage)
	}
	if filters.ClientCategory != nil {
		query = query.Where("client_category = ?", *filters.ClientCategory)
	}
	if filters.AssignedPM != nil {
		query = query.Where("assigned_pm = ?", *filters.AssignedPM)
	}
	if filters.Search != nil && *filters.Search != "" {
		pattern := "%" + *filters.Search + "%"
		query = query.Where("title LIKE ? OR client_name LIKE ?", pattern, pattern)
	}
	return query
}

// List returns the deals matching the caller's visibility predicate and the
// given filters, newest first.
func (r *DealRepository) List(ctx context.Context, user *auth.UserContext, filters DealFilters) ([]domain.Deal, error) {
	var deals []domain.Deal
	query := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Scopes(DealVisibilityScope(user))
	query = r.applyFilters(query, filters)
	err := query.Order("created_at DESC").Find(&deals).Error
	return deals, err
}

// Update applies a partial field-set update. Omitted fields stay unchanged.
func (r *DealRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&domain.Deal{}).Where("id = ?", id).Updates(updates).Error
}

// Delete hard-deletes a deal and cascades over its children in one
// transaction.
func (r *DealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&domain.Task{},
			&domain.Document{},
			&domain.ChangeOrder{},
			&domain.Quotation{},
			&domain.FinancialEntry{},
			&domain.Commission{},
			&domain.ProgressLog{},
			&domain.Message{},
		} {
			if err := tx.Where("deal_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&domain.Deal{}, "id = ?", id).Error
	})
}

// SetProgress overwrites the denormalized progress rollup.
func (r *DealRepository) SetProgress(ctx context.Context, id uuid.UUID, progress float64) error {
	return r.db.WithContext(ctx).Model(&domain.Deal{}).Where("id = ?", id).
		Update("progress_percentage", progress).Error
}

// AddApprovedValue adds a change-order impact to the approved value and
// budget in one statement.
func (r *DealRepository) AddApprovedValue(ctx context.Context, id uuid.UUID, impact float64) error {
	return r.db.WithContext(ctx).Model(&domain.Deal{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"approved_value": gorm.Expr("approved_value + ?", impact),
			"budget":         gorm.Expr("budget + ?", impact),
		}).Error
}

// AddActuals increments the running actuals total.
func (r *DealRepository) AddActuals(ctx context.Context, id uuid.UUID, amount float64) error {
	return r.db.WithContext(ctx).Model(&domain.Deal{}).Where("id = ?", id).
		Update("actuals", gorm.Expr("actuals + ?", amount)).Error
}

// PromoteToContract moves the deal to the contract stage and fixes its
// contract value, as triggered by quotation approval.
func (r *DealRepository) PromoteToContract(ctx context.Context, id uuid.UUID, contractValue float64) error {
	return r.db.WithContext(ctx).Model(&domain.Deal{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"stage":          domain.DealStageContract,
			"contract_value": contractValue,
		}).Error
}

// PipelineBreakdown returns per-stage deal count and summed estimated value
// over the caller's visible deals. Stages without deals appear with zeros.
func (r *DealRepository) PipelineBreakdown(ctx context.Context, user *auth.UserContext) ([]domain.PipelineStageDTO, error) {
	type row struct {
		Stage domain.DealStage
		Count int64
		Value float64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Scopes(DealVisibilityScope(user)).
		Select("stage, COUNT(*) as count, COALESCE(SUM(estimated_value), 0) as value").
		Group("stage").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	byStage := make(map[domain.DealStage]row, len(rows))
	for _, item := range rows {
		byStage[item.Stage] = item
	}

	breakdown := make([]domain.PipelineStageDTO, 0, len(domain.AllDealStages))
	for _, stage := range domain.AllDealStages {
		item := byStage[stage]
		breakdown = append(breakdown, domain.PipelineStageDTO{
			Stage: stage,
			Count: item.Count,
			Value: item.Value,
		})
	}
	return breakdown, nil
}

// CountVisible counts the caller's visible deals, optionally restricted to
// open stages.
func (r *DealRepository) CountVisible(ctx context.Context, user *auth.UserContext, activeOnly bool) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Scopes(DealVisibilityScope(user))
	if activeOnly {
		query = query.Where("stage NOT IN ?", []domain.DealStage{domain.DealStageCompleted, domain.DealStageClosed})
	}
	err := query.Count(&count).Error
	return count, err
}

// SumEstimatedValue totals estimated value over the caller's visible deals.
func (r *DealRepository) SumEstimatedValue(ctx context.Context, user *auth.UserContext) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Scopes(DealVisibilityScope(user)).
		Select("COALESCE(SUM(estimated_value), 0)").
		Scan(&total).Error
	return total, err
}

// SumContractValue totals contract value over the caller's visible deals.
func (r *DealRepository) SumContractValue(ctx context.Context, user *auth.UserContext) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).
		Scopes(DealVisibilityScope(user)).
		Select("COALESCE(SUM(contract_value), 0)").
		Scan(&total).Error
	return total, err
}

// ListIDs returns every deal id. Used by the rollup reconciliation job.
func (r *DealRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.Deal{}).Pluck("id", &ids).Error
	return ids, err
}
