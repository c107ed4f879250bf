package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type FinancialEntryRepository struct {
	db *gorm.DB
}

func NewFinancialEntryRepository(db *gorm.DB) *FinancialEntryRepository {
	return &FinancialEntryRepository{db: db}
}

func (r *FinancialEntryRepository) Create(ctx context.Context, entry *domain.FinancialEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *FinancialEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FinancialEntry, error) {
	var entry domain.FinancialEntry
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FinancialEntryFilters narrows financial entry listings
type FinancialEntryFilters struct {
	DealID    *uuid.UUID
	EntryType *domain.FinancialEntryType
	Status    *domain.FinancialEntryStatus
}

// List returns financial entries under the caller's visible deals. Client
// roles only receive invoice entries.
func (r *FinancialEntryRepository) List(ctx context.Context, user *auth.UserContext, filters FinancialEntryFilters) ([]domain.FinancialEntry, error) {
	var entries []domain.FinancialEntry
	query := r.db.WithContext(ctx).Model(&domain.FinancialEntry{}).
		Where("deal_id IN (?)", visibleDealIDs(r.db.WithContext(ctx), user))
	if user.Role.IsClient() {
		query = query.Where("entry_type = ?", domain.FinancialEntryInvoice)
	}
	if filters.DealID != nil {
		query = query.Where("deal_id = ?", *filters.DealID)
	}
	if filters.EntryType != nil {
		query = query.Where("entry_type = ?", *filters.EntryType)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	err := query.Order("entry_date DESC").Find(&entries).Error
	return entries, err
}

// SetStatus updates the settlement status.
func (r *FinancialEntryRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.FinancialEntryStatus) error {
	return r.db.WithContext(ctx).Model(&domain.FinancialEntry{}).Where("id = ?", id).
		Update("status", status).Error
}
