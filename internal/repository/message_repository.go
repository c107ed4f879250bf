package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/structura-group/pipeline-api/internal/auth"
	"github.com/structura-group/pipeline-api/internal/domain"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// List returns messages under the caller's visible deals whose role
// visibility list admits the caller.
func (r *MessageRepository) List(ctx context.Context, user *auth.UserContext, dealID *uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	query := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("deal_id IN (?)", visibleDealIDs(r.db.WithContext(ctx), user)).
		Scopes(MessageVisibilityScope(user))
	if dealID != nil {
		query = query.Where("deal_id = ?", *dealID)
	}
	err := query.Order("created_at ASC").Find(&messages).Error
	return messages, err
}
