package repos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jumlahub/jumla-backend/internal/platform/logger"
	"github.com/jumlahub/jumla-backend/internal/types"
)

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, conv *types.Conversation) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error)
	FindDirect(ctx context.Context, tx *gorm.DB, a, b uuid.UUID, productID *uuid.UUID) (*types.Conversation, error)
	ListByParticipant(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error)
	Save(ctx context.Context, tx *gorm.DB, conv *types.Conversation) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (cr *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conv *types.Conversation) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).Create(conv).Error
}

func (cr *conversationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var conv types.Conversation
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (cr *conversationRepo) FindDirect(ctx context.Context, tx *gorm.DB, a, b uuid.UUID, productID *uuid.UUID) (*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	q := transaction.WithContext(ctx).
		Where("type = ?", types.ConversationTypeDirect).
		Where("participants::jsonb @> ?", fmt.Sprintf(`[%q]`, a.String())).
		Where("participants::jsonb @> ?", fmt.Sprintf(`[%q]`, b.String()))
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	} else {
		q = q.Where("product_id IS NULL")
	}
	var conv types.Conversation
	if err := q.First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (cr *conversationRepo) ListByParticipant(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Conversation
	if err := transaction.WithContext(ctx).
		Where("participants::jsonb @> ?", fmt.Sprintf(`[%q]`, userID.String())).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *conversationRepo) Save(ctx context.Context, tx *gorm.DB, conv *types.Conversation) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).Save(conv).Error
}
