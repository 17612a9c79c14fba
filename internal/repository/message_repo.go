package repository

import (
	"context"
	"time"

	"tolio/internal/domain"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MessageRepository) GetConversation(ctx context.Context, userA, userB int64, limit, offset int) ([]domain.Message, error) {
	var out []domain.Message
	tx := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&out)
	return out, tx.Error
}

func (r *MessageRepository) MarkConversationRead(ctx context.Context, readerID, senderID int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", readerID, senderID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now().UTC(),
		}).Error
}
