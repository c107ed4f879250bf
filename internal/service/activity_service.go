package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/mapper"
	"github.com/structura-group/pipeline-api/internal/repository"
	"go.uber.org/zap"
)

// ActivityService records and lists the append-only activity trail. Recording
// is best effort: a failed write is logged and never fails the caller's
// operation.
type ActivityService struct {
	activityRepo *repository.ActivityLogRepository
	logger       *zap.Logger
}

func NewActivityService(activityRepo *repository.ActivityLogRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// Record appends an activity entry attributed to the caller in ctx.
func (s *ActivityService) Record(ctx context.Context, entityType string, entityID uuid.UUID, dealID *uuid.UUID, action, description string) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return
	}

	entry := &domain.ActivityLog{
		EntityType:  entityType,
		EntityID:    entityID,
		DealID:      dealID,
		Action:      action,
		Description: description,
		ActorID:     userCtx.UserID,
		ActorName:   userCtx.Name,
	}

	if err := s.activityRepo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record activity",
			zap.String("entityType", entityType),
			zap.String("action", action),
			zap.Error(err))
	}
}

// ListRecent returns the newest activity entries the caller may see.
func (s *ActivityService) ListRecent(ctx context.Context, user *auth.UserContext, limit int) ([]domain.ActivityLogDTO, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	entries, err := s.activityRepo.ListRecent(ctx, user, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]domain.ActivityLogDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToActivityLogDTO(&entries[i])
	}
	return dtos, nil
}
