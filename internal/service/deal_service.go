package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/mapper"
	"github.com/structura-group/pipeline-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DealService owns the deal lifecycle and the progress rollup. Every read
// goes through the caller's visibility predicate; a deal outside it reads as
// not found rather than forbidden.
type DealService struct {
	dealRepo      *repository.DealRepository
	taskRepo      *repository.TaskRepository
	activity      *ActivityService
	notifications *NotificationService
	logger        *zap.Logger
}

func NewDealService(
	dealRepo *repository.DealRepository,
	taskRepo *repository.TaskRepository,
	activity *ActivityService,
	notifications *NotificationService,
	logger *zap.Logger,
) *DealService {
	return &DealService{
		dealRepo:      dealRepo,
		taskRepo:      taskRepo,
		activity:      activity,
		notifications: notifications,
		logger:        logger,
	}
}

func (s *DealService) Create(ctx context.Context, user *auth.UserContext, req *domain.CreateDealRequest) (*domain.DealDTO, error) {
	stage := req.Stage
	if stage == "" {
		stage = domain.DealStageInquiry
	}
	if !stage.IsValid() {
		return nil, fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, stage)
	}

	category := req.ClientCategory
	if category == "" {
		category = domain.ClientCategoryBusiness
	}
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: unknown client category %q", ErrInvalidInput, category)
	}

	deal := &domain.Deal{
		Title:               req.Title,
		Description:         req.Description,
		ClientID:            req.ClientID,
		ClientName:          req.ClientName,
		ClientEmail:         req.ClientEmail,
		ClientPhone:         req.ClientPhone,
		ClientCategory:      category,
		ServiceTypes:        req.ServiceTypes,
		Location:            req.Location,
		Stage:               stage,
		EstimatedValue:      req.EstimatedValue,
		AssignedPM:          req.AssignedPM,
		AssignedSupervisor:  req.AssignedSupervisor,
		AssignedFabricators: req.AssignedFabricators,
		ReferralAgentID:     req.ReferralAgentID,
		PartnerIDs:          req.PartnerIDs,
		InternalNotes:       req.InternalNotes,
		ExpectedStartDate:   req.ExpectedStartDate,
		ExpectedEndDate:     req.ExpectedEndDate,
		CreatedBy:           user.UserID,
	}

	// A sales agent creating a deal is its referral agent unless one was
	// named explicitly. A partner is added to the partner list the same way.
	switch user.Role {
	case domain.RoleSalesAgent:
		if deal.ReferralAgentID == nil {
			id := user.UserID
			deal.ReferralAgentID = &id
		}
	case domain.RolePartner:
		if !deal.PartnerIDs.Contains(user.UserID) {
			deal.PartnerIDs = append(deal.PartnerIDs, user.UserID)
		}
	}

	if err := s.dealRepo.Create(ctx, deal); err != nil {
		return nil, fmt.Errorf("failed to create deal: %w", err)
	}

	s.activity.Record(ctx, "deal", deal.ID, &deal.ID, "deal_created",
		fmt.Sprintf("Deal '%s' created in stage %s", deal.Title, deal.Stage))
	s.notifyAssignments(ctx, deal, nil)

	dto := mapper.ToDealDTO(deal, user.Role)
	return &dto, nil
}

func (s *DealService) GetByID(ctx context.Context, user *auth.UserContext, id uuid.UUID) (*domain.DealDTO, error) {
	deal, err := s.dealRepo.FindVisibleByID(ctx, user, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	dto := mapper.ToDealDTO(deal, user.Role)
	return &dto, nil
}

func (s *DealService) List(ctx context.Context, user *auth.UserContext, filters repository.DealFilters) ([]domain.DealDTO, error) {
	deals, err := s.dealRepo.List(ctx, user, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	dtos := make([]domain.DealDTO, len(deals))
	for i := range deals {
		dtos[i] = mapper.ToDealDTO(&deals[i], user.Role)
	}
	return dtos, nil
}

// Update applies a partial update. Assignment fields additionally require the
// assign-team permission; omitted fields stay untouched.
func (s *DealService) Update(ctx context.Context, user *auth.UserContext, id uuid.UUID, req *domain.UpdateDealRequest) (*domain.DealDTO, error) {
	before, err := s.dealRepo.FindVisibleByID(ctx, user, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	touchesAssignments := req.AssignedPM != nil || req.AssignedSupervisor != nil ||
		req.AssignedFabricators != nil || req.PartnerIDs != nil || req.ReferralAgentID != nil
	if touchesAssignments && !auth.Can(user.Role, auth.ActionAssignTeam) {
		return nil, ErrPermissionDenied
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ClientID != nil {
		updates["client_id"] = *req.ClientID
	}
	if req.ClientName != nil {
		updates["client_name"] = *req.ClientName
	}
	if req.ClientEmail != nil {
		updates["client_email"] = *req.ClientEmail
	}
	if req.ClientPhone != nil {
		updates["client_phone"] = *req.ClientPhone
	}
	if req.ClientCategory != nil {
		if !req.ClientCategory.IsValid() {
			return nil, fmt.Errorf("%w: unknown client category %q", ErrInvalidInput, *req.ClientCategory)
		}
		updates["client_category"] = *req.ClientCategory
	}
	if req.ServiceTypes != nil {
		updates["service_types"] = domain.StringList(req.ServiceTypes)
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Stage != nil {
		if !req.Stage.IsValid() {
			return nil, fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, *req.Stage)
		}
		updates["stage"] = *req.Stage
	}
	if req.EstimatedValue != nil {
		updates["estimated_value"] = *req.EstimatedValue
	}
	if req.AssignedPM != nil {
		updates["assigned_pm"] = *req.AssignedPM
	}
	if req.AssignedSupervisor != nil {
		updates["assigned_supervisor"] = *req.AssignedSupervisor
	}
	if req.AssignedFabricators != nil {
		updates["assigned_fabricators"] = domain.UUIDList(req.AssignedFabricators)
	}
	if req.ReferralAgentID != nil {
		updates["referral_agent_id"] = *req.ReferralAgentID
	}
	if req.PartnerIDs != nil {
		updates["partner_ids"] = domain.UUIDList(req.PartnerIDs)
	}
	if req.InternalNotes != nil {
		updates["internal_notes"] = *req.InternalNotes
	}
	if req.ExpectedStartDate != nil {
		updates["expected_start_date"] = *req.ExpectedStartDate
	}
	if req.ExpectedEndDate != nil {
		updates["expected_end_date"] = *req.ExpectedEndDate
	}

	if len(updates) == 0 {
		return nil, ErrEmptyUpdate
	}

	if err := s.dealRepo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("failed to update deal: %w", err)
	}

	deal, err := s.dealRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, "deal", deal.ID, &deal.ID, "deal_updated",
		fmt.Sprintf("Deal '%s' updated", deal.Title))
	if req.Stage != nil && before.Stage != deal.Stage {
		s.activity.Record(ctx, "deal", deal.ID, &deal.ID, "stage_changed",
			fmt.Sprintf("Deal '%s' moved from %s to %s", deal.Title, before.Stage, deal.Stage))
		if deal.AssignedPM != nil {
			s.notifications.Notify(ctx, *deal.AssignedPM, domain.NotificationTypeStageChange,
				"Deal stage changed",
				fmt.Sprintf("Deal '%s' is now in stage %s", deal.Title, deal.Stage),
				"deal", &deal.ID)
		}
	}
	if touchesAssignments {
		s.notifyAssignments(ctx, deal, before)
	}

	dto := mapper.ToDealDTO(deal, user.Role)
	return &dto, nil
}

// Delete removes a deal and everything under it.
func (s *DealService) Delete(ctx context.Context, user *auth.UserContext, id uuid.UUID) error {
	deal, err := s.dealRepo.FindVisibleByID(ctx, user, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.dealRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}

	s.activity.Record(ctx, "deal", id, nil, "deal_deleted",
		fmt.Sprintf("Deal '%s' deleted with all child records", deal.Title))

	return nil
}

// RecalculateProgress recomputes the deal's rollup progress as the mean of
// all its task progress values, rounded to two decimals. No tasks means zero.
func (s *DealService) RecalculateProgress(ctx context.Context, dealID uuid.UUID) error {
	values, err := s.taskRepo.ProgressValues(ctx, dealID)
	if err != nil {
		return fmt.Errorf("failed to load task progress: %w", err)
	}

	progress := 0.0
	if len(values) > 0 {
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		progress = math.Round(sum/float64(len(values))*100) / 100
	}

	if err := s.dealRepo.SetProgress(ctx, dealID, progress); err != nil {
		return fmt.Errorf("failed to store rollup progress: %w", err)
	}
	return nil
}

// notifyAssignments tells newly assigned team members about the deal. With a
// nil before every current assignee counts as new.
func (s *DealService) notifyAssignments(ctx context.Context, deal *domain.Deal, before *domain.Deal) {
	newAssignee := func(id *uuid.UUID, prev *uuid.UUID) bool {
		if id == nil {
			return false
		}
		return before == nil || prev == nil || *prev != *id
	}

	if newAssignee(deal.AssignedPM, assignedPMOf(before)) {
		s.notifications.Notify(ctx, *deal.AssignedPM, domain.NotificationTypeAssignment,
			"Assigned as project manager",
			fmt.Sprintf("You manage deal '%s'", deal.Title), "deal", &deal.ID)
	}
	if newAssignee(deal.AssignedSupervisor, assignedSupervisorOf(before)) {
		s.notifications.Notify(ctx, *deal.AssignedSupervisor, domain.NotificationTypeAssignment,
			"Assigned as supervisor",
			fmt.Sprintf("You supervise deal '%s'", deal.Title), "deal", &deal.ID)
	}
	for _, fabricatorID := range deal.AssignedFabricators {
		if before != nil && before.AssignedFabricators.Contains(fabricatorID) {
			continue
		}
		s.notifications.Notify(ctx, fabricatorID, domain.NotificationTypeAssignment,
			"Assigned as fabricator",
			fmt.Sprintf("You are assigned to deal '%s'", deal.Title), "deal", &deal.ID)
	}
}

func assignedPMOf(deal *domain.Deal) *uuid.UUID {
	if deal == nil {
		return nil
	}
	return deal.AssignedPM
}

func assignedSupervisorOf(deal *domain.Deal) *uuid.UUID {
	if deal == nil {
		return nil
	}
	return deal.AssignedSupervisor
}
