package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/mapper"
	"github.com/structura-group/pipeline-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuotationService manages priced offers. Approving a quotation promotes the
// deal to the contract stage, fixes its contract value at the quotation total
// and, when the deal carries a referral agent, creates that agent's
// commission record from the contract value and the agent's rate.
type QuotationService struct {
	quotationRepo  *repository.QuotationRepository
	dealRepo       *repository.DealRepository
	commissionRepo *repository.CommissionRepository
	userRepo       *repository.UserRepository
	activity       *ActivityService
	notifications  *NotificationService
	logger         *zap.Logger
}

func NewQuotationService(
	quotationRepo *repository.QuotationRepository,
	dealRepo *repository.DealRepository,
	commissionRepo *repository.CommissionRepository,
	userRepo *repository.UserRepository,
	activity *ActivityService,
	notifications *NotificationService,
	logger *zap.Logger,
) *QuotationService {
	return &QuotationService{
		quotationRepo:  quotationRepo,
		dealRepo:       dealRepo,
		commissionRepo: commissionRepo,
		userRepo:       userRepo,
		activity:       activity,
		notifications:  notifications,
		logger:         logger,
	}
}

func (s *QuotationService) Create(ctx context.Context, user *auth.UserContext, dealID uuid.UUID, req *domain.CreateQuotationRequest) (*domain.QuotationDTO, error) {
	deal, err := s.dealRepo.FindVisibleByID(ctx, user, dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	items := make(domain.QuotationItems, len(req.Items))
	total := 0.0
	for i, item := range req.Items {
		item.Total = item.Quantity * item.UnitPrice
		items[i] = item
		total += item.Total
	}

	count, err := s.quotationRepo.CountByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to number quotation: %w", err)
	}

	quotation := &domain.Quotation{
		DealID:      dealID,
		QuoteNumber: fmt.Sprintf("QT-%s-%03d", strings.ToUpper(dealID.String()[:8]), count+1),
		Items:       items,
		TotalAmount: total,
		Status:      domain.QuotationStatusDraft,
		ValidUntil:  req.ValidUntil,
		CreatedBy:   user.UserID,
	}

	if err := s.quotationRepo.Create(ctx, quotation); err != nil {
		return nil, fmt.Errorf("failed to create quotation: %w", err)
	}

	s.activity.Record(ctx, "quotation", quotation.ID, &dealID, "quotation_created",
		fmt.Sprintf("Quotation %s for %.2f created on deal '%s'", quotation.QuoteNumber, total, deal.Title))

	dto := mapper.ToQuotationDTO(quotation)
	return &dto, nil
}

func (s *QuotationService) GetByID(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.QuotationDTO, error) {
	quotation, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToQuotationDTO(quotation)
	return &dto, nil
}

func (s *QuotationService) List(ctx context.Context, user *auth.UserContext, dealID *uuid.UUID) ([]domain.QuotationDTO, error) {
	quotations, err := s.quotationRepo.List(ctx, user, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}

	dtos := make([]domain.QuotationDTO, len(quotations))
	for i := range quotations {
		dtos[i] = mapper.ToQuotationDTO(&quotations[i])
	}
	return dtos, nil
}

// Send moves a draft quotation to sent.
func (s *QuotationService) Send(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.QuotationDTO, error) {
	quotation, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	sent, err := s.quotationRepo.MarkSent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to send quotation: %w", err)
	}
	if !sent {
		return nil, ErrAlreadyDecided
	}

	s.activity.Record(ctx, "quotation", quotation.ID, &quotation.DealID, "quotation_sent",
		fmt.Sprintf("Quotation %s sent", quotation.QuoteNumber))

	return s.GetByID(ctx, user, id)
}

// Approve accepts a draft or sent quotation. The deal moves to the contract
// stage with the quotation total as contract value; a referral agent on the
// deal gets a commission record earned at contract_value x rate/100. A second
// approval call finds the quotation already decided and changes nothing.
func (s *QuotationService) Approve(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.QuotationDTO, error) {
	quotation, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	decided, err := s.quotationRepo.SetDecision(ctx, id, domain.QuotationStatusApproved, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to approve quotation: %w", err)
	}
	if !decided {
		return nil, ErrAlreadyDecided
	}

	if err := s.dealRepo.PromoteToContract(ctx, quotation.DealID, quotation.TotalAmount); err != nil {
		s.logger.Error("contract promotion failed, reconcile will catch up",
			zap.String("dealId", quotation.DealID.String()), zap.Error(err))
	}

	deal, err := s.dealRepo.FindByID(ctx, quotation.DealID)
	if err == nil && deal.ReferralAgentID != nil {
		s.createCommission(ctx, deal, quotation.TotalAmount)
	}

	s.activity.Record(ctx, "quotation", quotation.ID, &quotation.DealID, "quotation_approved",
		fmt.Sprintf("Quotation %s approved, contract value %.2f", quotation.QuoteNumber, quotation.TotalAmount))
	s.notifications.Notify(ctx, quotation.CreatedBy, domain.NotificationTypeApproval,
		"Quotation approved",
		fmt.Sprintf("Quotation %s was approved", quotation.QuoteNumber),
		"quotation", &quotation.ID)

	return s.GetByID(ctx, user, id)
}

// Reject declines a draft or sent quotation. The deal stays where it is.
func (s *QuotationService) Reject(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.QuotationDTO, error) {
	quotation, err := s.findVisible(ctx, user, id)
	if err != nil {
		return nil, err
	}

	decided, err := s.quotationRepo.SetDecision(ctx, id, domain.QuotationStatusRejected, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to reject quotation: %w", err)
	}
	if !decided {
		return nil, ErrAlreadyDecided
	}

	s.activity.Record(ctx, "quotation", quotation.ID, &quotation.DealID, "quotation_rejected",
		fmt.Sprintf("Quotation %s rejected", quotation.QuoteNumber))
	s.notifications.Notify(ctx, quotation.CreatedBy, domain.NotificationTypeApproval,
		"Quotation rejected",
		fmt.Sprintf("Quotation %s was rejected", quotation.QuoteNumber),
		"quotation", &quotation.ID)

	return s.GetByID(ctx, user, id)
}

func (s *QuotationService) createCommission(ctx context.Context, deal *domain.Deal, contractValue float64) {
	agent, err := s.userRepo.FindByID(ctx, *deal.ReferralAgentID)
	if err != nil {
		s.logger.Error("referral agent lookup failed, no commission created",
			zap.String("dealId", deal.ID.String()), zap.Error(err))
		return
	}

	commission := &domain.Commission{
		DealID:       deal.ID,
		AgentID:      agent.ID,
		Rate:         agent.CommissionRate,
		EarnedAmount: contractValue * agent.CommissionRate / 100,
		Status:       domain.CommissionStatusPending,
	}

	if err := s.commissionRepo.Create(ctx, commission); err != nil {
		s.logger.Error("commission creation failed",
			zap.String("dealId", deal.ID.String()),
			zap.String("agentId", agent.ID.String()),
			zap.Error(err))
		return
	}

	s.notifications.Notify(ctx, agent.ID, domain.NotificationTypeCommission,
		"Commission earned",
		fmt.Sprintf("Deal '%s' entered contract stage, commission %.2f earned", deal.Title, commission.EarnedAmount),
		"commission", &commission.ID)
}

func (s *QuotationService) findVisible(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.Quotation, error) {
	quotation, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.dealRepo.FindVisibleByID(ctx, user, quotation.DealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return quotation, nil
}
