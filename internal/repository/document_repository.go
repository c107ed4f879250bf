package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// DocumentFilters narrows document listings
type DocumentFilters struct {
	DealID   *uuid.UUID
	Category *domain.DocumentCategory
	Status   *domain.ApprovalStatus
}

// List returns documents under the caller's visible deals. Client roles
// only receive approved, client-visible documents.
func (r *DocumentRepository) List(ctx context.Context, user *auth.UserContext, filters DocumentFilters) ([]domain.Document, error) {
	var docs []domain.Document
	query := r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("deal_id IN (?)", visibleDealIDs(r.db.WithContext(ctx), user)).
		Scopes(DocumentVisibilityScope(user))
	if filters.DealID != nil {
		query = query.Where("deal_id = ?", *filters.DealID)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	err := query.Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// NextVersion returns the version a re-upload under the same deal and
// logical name should carry. Starts at 1 for a new name.
func (r *DocumentRepository) NextVersion(ctx context.Context, dealID uuid.UUID, name string) (int, error) {
	var maxVersion int
	err := r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("deal_id = ? AND name = ?", dealID, name).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error
	if err != nil {
		return 0, err
	}
	return maxVersion + 1, nil
}

// SetStatus updates the approval status.
func (r *DocumentRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.ApprovalStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Document{}).Where("id = ?", id).
		Update("status", status).Error
}

// CountPending counts documents awaiting approval.
func (r *DocumentRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Document{}).
		Where("status = ?", domain.ApprovalStatusPending).
		Count(&count).Error
	return count, err
}
