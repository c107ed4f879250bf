package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/mapper"
	"github.com/structura-group/pipeline-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FinancialService manages money movements on a deal. Payment entries add
// their amount to the deal's actuals at creation time.
type FinancialService struct {
	entryRepo *repository.FinancialEntryRepository
	dealRepo  *repository.DealRepository
	activity  *ActivityService
	logger    *zap.Logger
}

func NewFinancialService(
	entryRepo *repository.FinancialEntryRepository,
	dealRepo *repository.DealRepository,
	activity *ActivityService,
	logger *zap.Logger,
) *FinancialService {
	return &FinancialService{
		entryRepo: entryRepo,
		dealRepo:  dealRepo,
		activity:  activity,
		logger:    logger,
	}
}

func (s *FinancialService) Create(ctx context.Context, user *auth.UserContext, dealID uuid.UUID, req *domain.CreateFinancialEntryRequest) (*domain.FinancialEntryDTO, error) {
	if !req.EntryType.IsValid() {
		return nil, fmt.Errorf("%w: unknown entry type %q", ErrInvalidInput, req.EntryType)
	}

	deal, err := s.dealRepo.FindVisibleByID(ctx, user, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entryDate := time.Now().UTC()
	if req.EntryDate != nil {
		entryDate = *req.EntryDate
	}

	entry := &domain.FinancialEntry{
		DealID:      dealID,
		EntryType:   req.EntryType,
		Amount:      req.Amount,
		Description: req.Description,
		Status:      domain.FinancialEntryStatusPending,
		EntryDate:   entryDate,
		CreatedBy:   user.UserID,
	}

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create financial entry: %w", err)
	}

	if entry.EntryType == domain.FinancialEntryPayment {
		if err := s.dealRepo.AddActuals(ctx, dealID, entry.Amount); err != nil {
			s.logger.Error("actuals rollup failed, reconcile will catch up",
				zap.String("dealId", dealID.String()), zap.Error(err))
		}
	}

	s.activity.Record(ctx, "financial_entry", entry.ID, &dealID, "financial_entry_created",
		fmt.Sprintf("%s of %.2f recorded on deal '%s'", entry.EntryType, entry.Amount, deal.Title))

	dto := mapper.ToFinancialEntryDTO(entry)
	return &dto, nil
}

func (s *FinancialService) GetByID(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.FinancialEntryDTO, error) {
	entry, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToFinancialEntryDTO(entry)
	return &dto, nil
}

func (s *FinancialService) List(ctx context.Context, user *auth.UserContext, filters repository.FinancialEntryFilters) ([]domain.FinancialEntryDTO, error) {
	entries, err := s.entryRepo.List(ctx, user, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list financial entries: %w", err)
	}

	dtos := make([]domain.FinancialEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToFinancialEntryDTO(&entries[i])
	}
	return dtos, nil
}

// SetStatus sets the settlement status of an entry.
func (s *FinancialService) SetStatus(ctx context.Context, user *auth.UserContext, id uuid.UUID, status domain.FinancialEntryStatus) (*domain.FinancialEntryDTO, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	entry, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if err := s.entryRepo.SetStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update entry status: %w", err)
	}
	entry.Status = status

	s.activity.Record(ctx, "financial_entry", entry.ID, &entry.DealID, "financial_status_changed",
		fmt.Sprintf("%s of %.2f marked %s", entry.EntryType, entry.Amount, status))

	dto := mapper.ToFinancialEntryDTO(entry)
	return &dto, nil
}

func (s *FinancialService) findVisible(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.FinancialEntry, error) {
	entry, err := s.entryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.dealRepo.FindVisibleByID(ctx, user, entry.DealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if user.Role.IsClient() && entry.EntryType != domain.FinancialEntryInvoice {
		return nil, ErrNotFound
	}
	return entry, nil
}
