package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/types"
)

type ChatbotRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chatbot *types.Chatbot) (*types.Chatbot, error)
	GetByID(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID) (*types.Chatbot, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Chatbot, error)
	ListByVisibility(ctx context.Context, tx *gorm.DB, visibility string) ([]*types.Chatbot, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID, fields map[string]any) error
	IncrementInteractions(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID) error
	Delete(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID) error
}

type chatbotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatbotRepo(db *gorm.DB, baseLog *logger.Logger) ChatbotRepo {
	repoLog := baseLog.With("repo", "ChatbotRepo")
	return &chatbotRepo{db: db, log: repoLog}
}

func (cr *chatbotRepo) Create(ctx context.Context, tx *gorm.DB, chatbot *types.Chatbot) (*types.Chatbot, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(chatbot).Error; err != nil {
		return nil, err
	}
	return chatbot, nil
}

func (cr *chatbotRepo) GetByID(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID) (*types.Chatbot, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Chatbot
	err := transaction.WithContext(ctx).
		Where("id = ?", chatbotID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *chatbotRepo) ListByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Chatbot, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Chatbot
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chatbotRepo) ListByVisibility(ctx context.Context, tx *gorm.DB, visibility string) ([]*types.Chatbot, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Chatbot
	if err := transaction.WithContext(ctx).
		Where("visibility = ?", visibility).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *chatbotRepo) UpdateFields(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Chatbot{}).
		Where("id = ?", chatbotID).
		Updates(fields).Error
}

func (cr *chatbotRepo) IncrementInteractions(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Chatbot{}).
		Where("id = ?", chatbotID).
		UpdateColumn("interactions", gorm.Expr("interactions + 1")).Error
}

func (cr *chatbotRepo) Delete(ctx context.Context, tx *gorm.DB, chatbotID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", chatbotID).
		Delete(&types.Chatbot{}).Error
}
