package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/mapper"
	"github.com/structura-group/pipeline-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MessageService handles deal-scoped messages. An empty visibility list means
// every role with access to the deal may read the message.
type MessageService struct {
	messageRepo *repository.MessageRepository
	dealRepo    *repository.DealRepository
	activity    *ActivityService
	logger      *zap.Logger
}

func NewMessageService(
	messageRepo *repository.MessageRepository,
	dealRepo *repository.DealRepository,
	activity *ActivityService,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		dealRepo:    dealRepo,
		activity:    activity,
		logger:      logger,
	}
}

func (s *MessageService) Create(ctx context.Context, user *auth.UserContext, dealID uuid.UUID, req *domain.CreateMessageRequest) (*domain.MessageDTO, error) {
	for _, role := range req.VisibleToRoles {
		if !domain.Role(role).IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q in visibility list", ErrInvalidInput, role)
		}
	}

	if _, err := s.dealRepo.FindVisibleByID(ctx, user, dealID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	message := &domain.Message{
		DealID:         dealID,
		Content:        req.Content,
		SenderID:       user.UserID,
		SenderName:     user.Name,
		SenderRole:     user.Role,
		VisibleToRoles: req.VisibleToRoles,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	dto := mapper.ToMessageDTO(message)
	return &dto, nil
}

func (s *MessageService) List(ctx context.Context, user *auth.UserContext, dealID *uuid.UUID) ([]domain.MessageDTO, error) {
	messages, err := s.messageRepo.List(ctx, user, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	dtos := make([]domain.MessageDTO, len(messages))
	for i := range messages {
		dtos[i] = mapper.ToMessageDTO(&messages[i])
	}
	return dtos, nil
}
