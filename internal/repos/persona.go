package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/botsmith-backend/internal/platform/logger"
	"github.com/yungbote/botsmith-backend/internal/types"
)

type PersonaRepo interface {
	Create(ctx context.Context, tx *gorm.DB, persona *types.Persona) (*types.Persona, error)
	GetByID(ctx context.Context, tx *gorm.DB, personaID uuid.UUID) (*types.Persona, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Persona, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, personaID uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, personaID uuid.UUID) error
}

type personaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonaRepo(db *gorm.DB, baseLog *logger.Logger) PersonaRepo {
	repoLog := baseLog.With("repo", "PersonaRepo")
	return &personaRepo{db: db, log: repoLog}
}

func (pr *personaRepo) Create(ctx context.Context, tx *gorm.DB, persona *types.Persona) (*types.Persona, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if err := transaction.WithContext(ctx).Create(persona).Error; err != nil {
		return nil, err
	}
	return persona, nil
}

func (pr *personaRepo) GetByID(ctx context.Context, tx *gorm.DB, personaID uuid.UUID) (*types.Persona, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Persona
	err := transaction.WithContext(ctx).
		Where("id = ?", personaID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *personaRepo) ListByOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Persona, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.Persona
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *personaRepo) UpdateFields(ctx context.Context, tx *gorm.DB, personaID uuid.UUID, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(fields) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Persona{}).
		Where("id = ?", personaID).
		Updates(fields).Error
}

func (pr *personaRepo) Delete(ctx context.Context, tx *gorm.DB, personaID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", personaID).
		Delete(&types.Persona{}).Error
}
