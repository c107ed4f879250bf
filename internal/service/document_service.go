package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/mapper"
	"github.com/structura-group/pipeline-api/internal/repository"
	"github.com/structura-group/pipeline-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UploadDocumentInput carries the multipart upload fields the handler parsed.
type UploadDocumentInput struct {
	Name          string
	DocumentType  string
	Category      domain.DocumentCategory
	ContentType   string
	ClientVisible bool
	Data          io.Reader
}

// DocumentService stores document files and their metadata. A re-upload under
// the same deal and name gets the next version number; prior file content is
// not retained.
type DocumentService struct {
	documentRepo *repository.DocumentRepository
	dealRepo     *repository.DealRepository
	store        storage.Storage
	activity     *ActivityService
	logger       *zap.Logger
}

func NewDocumentService(
	documentRepo *repository.DocumentRepository,
	dealRepo *repository.DealRepository,
	store storage.Storage,
	activity *ActivityService,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		dealRepo:     dealRepo,
		store:        store,
		activity:     activity,
		logger:       logger,
	}
}

func (s *DocumentService) Upload(ctx context.Context, user *auth.UserContext, dealID uuid.UUID, input *UploadDocumentInput) (*domain.DocumentDTO, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: document name is required", ErrInvalidInput)
	}

	deal, err := s.dealRepo.FindVisibleByID(ctx, user, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	category := input.Category
	if category == "" {
		category = domain.DocumentCategoryInternal
	}

	version, err := s.documentRepo.NextVersion(ctx, dealID, input.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to determine version: %w", err)
	}

	storagePath, size, err := s.store.Upload(ctx, fmt.Sprintf("%s_v%d_%s", dealID, version, input.Name), input.ContentType, input.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &domain.Document{
		DealID:        dealID,
		Name:          input.Name,
		DocumentType:  input.DocumentType,
		Category:      category,
		StoragePath:   storagePath,
		ContentType:   input.ContentType,
		SizeBytes:     size,
		Version:       version,
		Status:        domain.ApprovalStatusPending,
		ClientVisible: input.ClientVisible,
		UploadedBy:    user.UserID,
	}

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// Metadata write failed, drop the stored file so nothing leaks.
		if delErr := s.store.Delete(ctx, storagePath); delErr != nil {
			s.logger.Error("failed to remove orphaned file",
				zap.String("storagePath", storagePath), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.activity.Record(ctx, "document", doc.ID, &dealID, "document_uploaded",
		fmt.Sprintf("Document '%s' v%d uploaded to deal '%s'", doc.Name, doc.Version, deal.Title))

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

func (s *DocumentService) GetByID(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.DocumentDTO, error) {
	doc, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

func (s *DocumentService) List(ctx context.Context, user *auth.UserContext, filters repository.DocumentFilters) ([]domain.DocumentDTO, error) {
	docs, err := s.documentRepo.List(ctx, user, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	dtos := make([]domain.DocumentDTO, len(docs))
	for i := range docs {
		dtos[i] = mapper.ToDocumentDTO(&docs[i])
	}
	return dtos, nil
}

// Download opens the stored file for a document the caller may see.
func (s *DocumentService) Download(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.DocumentDTO, io.ReadCloser, error) {
	doc, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.store.Download(ctx, doc.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	dto := mapper.ToDocumentDTO(doc)
	return &dto, reader, nil
}

// SetStatus approves or rejects a document.
func (s *DocumentService) SetStatus(ctx context.Context, user *auth.UserContext, id uuid.UUID, status domain.ApprovalStatus) (*domain.DocumentDTO, error) {
	if status != domain.ApprovalStatusApproved && status != domain.ApprovalStatusRejected {
		return nil, fmt.Errorf("%w: status must be approved or rejected", ErrInvalidInput)
	}

	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.dealRepo.FindVisibleByID(ctx, user, doc.DealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.documentRepo.SetStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update document status: %w", err)
	}
	doc.Status = status

	s.activity.Record(ctx, "document", doc.ID, &doc.DealID, "document_"+string(status),
		fmt.Sprintf("Document '%s' v%d %s", doc.Name, doc.Version, status))

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// findVisible loads a document and applies the same per-role rules the list
// query uses: the parent deal must be visible, and clients only see approved,
// client-visible documents.
func (s *DocumentService) findVisible(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.Document, error) {
	doc, err := s.documentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if _, err := s.dealRepo.FindVisibleByID(ctx, user, doc.DealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if user.Role.IsClient() && (!doc.ClientVisible || doc.Status != domain.ApprovalStatusApproved) {
		return nil, ErrNotFound
	}

	return doc, nil
}
