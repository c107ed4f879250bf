package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/domain"
	"github.com/structura-group/pipeline-api/internal/mapper"
	"github.com/structura-group/pipeline-api/internal/repository"
	"go.uber.org/zap"
)

// NotificationService writes and serves poll-based in-app notifications.
// Notify is best effort like activity recording.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// Notify creates a notification for a single recipient.
func (s *NotificationService) Notify(ctx context.Context, recipientID uuid.UUID, nType domain.NotificationType, title, message, relatedType string, relatedID *uuid.UUID) {
	notification := &domain.Notification{
		RecipientID:       recipientID,
		Type:              nType,
		Title:             title,
		Message:           message,
		RelatedEntityType: relatedType,
		RelatedEntityID:   relatedID,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error("failed to create notification",
			zap.String("recipientId", recipientID.String()),
			zap.String("type", string(nType)),
			zap.Error(err))
	}
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, limit int) ([]domain.NotificationDTO, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	notifications, err := s.notificationRepo.ListByRecipient(ctx, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]domain.NotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = mapper.ToNotificationDTO(&notifications[i])
	}
	return dtos, nil
}

// MarkRead marks one of the recipient's notifications as read. Another
// recipient's notification reads as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	ok, err := s.notificationRepo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the recipient as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return s.notificationRepo.MarkAllRead(ctx, recipientID)
}
