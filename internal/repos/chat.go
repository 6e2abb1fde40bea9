package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/types"
)

type ChatRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error)
	GetByID(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) (*types.Chat, error)
	// GetLatest returns the most recently created chat for one principal and
	// one chatbot, the canonical transcript for history lookups.
	GetLatest(ctx context.Context, tx *gorm.DB, chatbotID, userID uuid.UUID) (*types.Chat, error)
	Touch(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) error
	DeleteByChatbotID(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID) error

	AppendMessages(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) error
	ListMessages(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*types.ChatMessage, error)
	DeleteMessagesByChatbotID(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID) error
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
	repoLog := baseLog.With("repo", "ChatRepo")
	return &chatRepo{db: db, log: repoLog}
}

func (cr *chatRepo) Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

func (cr *chatRepo) GetByID(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) (*types.Chat, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Chat
	err := transaction.WithContext(ctx).
		Where("id = ?", chatID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *chatRepo) GetLatest(ctx context.Context, tx *gorm.DB, chatbotID, userID uuid.UUID) (*types.Chat, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Chat
	err := transaction.WithContext(ctx).
		Where("chatbot_id = ? AND user_id = ?", chatbotID, userID).
		Order("created_at DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *chatRepo) Touch(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (cr *chatRepo) DeleteByChatbotID(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("chatbot_id = ?", chatbotID).
		Delete(&types.Chat{}).Error
}

func (cr *chatRepo) AppendMessages(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(messages) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&messages).Error
}

func (cr *chatRepo) ListMessages(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.ChatMessage
	if err := transaction.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chatRepo) DeleteMessagesByChatbotID(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("chat_id IN (?)", transaction.Model(&types.Chat{}).Select("id").Where("chatbot_id = ?", chatbotID)).
		Delete(&types.ChatMessage{}).Error
}
