package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
)

// Repository defines persistence operations for conversations and messages.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateConversation(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error)
	CreateConversationIfAbsent(ctx context.Context, conversation *models.Conversation) error
	FindConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	FindConversationByBuyerAndOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Conversation, error)
	ListConversationsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Conversation, error)
	TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a chat repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateConversation(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error) {
	if err := r.db.WithContext(ctx).Create(conversation).Error; err != nil {
		return nil, err
	}
	return conversation, nil
}

// CreateConversationIfAbsent inserts the order-linked thread, quietly doing
// nothing when another client won the race on the (buyer_id, order_id)
// unique index. Callers re-read afterwards to converge on one id.
func (r *repository) CreateConversationIfAbsent(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(conversation).Error
}

func (r *repository) FindConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *repository) FindConversationByBuyerAndOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND order_id = ?", buyerID, orderID).
		First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *repository) ListConversationsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Conversation, error) {
	var rows []models.Conversation
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at).Error
}

func (r *repository) CreateMessage(ctx context.Context, message *models.Message) (*models.Message, error) {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (r *repository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true).Error
}
