package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
)

func setupChatTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	conversations := `
CREATE TABLE IF NOT EXISTS conversations (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  order_id TEXT,
  subject TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	conversationIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_buyer_order
  ON conversations (buyer_id, order_id)
  WHERE order_id IS NOT NULL;`
	messages := `
CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  conversation_id TEXT NOT NULL,
  sender_id TEXT NOT NULL,
  content TEXT NOT NULL,
  file_url TEXT,
  file_name TEXT,
  is_read INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(conversations).Error)
	require.NoError(t, db.Exec(conversationIndex).Error)
	require.NoError(t, db.Exec(messages).Error)
	require.NoError(t, db.Exec("DELETE FROM messages").Error)
	require.NoError(t, db.Exec("DELETE FROM conversations").Error)

	return db
}

func orderConversation(buyerID, orderID uuid.UUID) *models.Conversation {
	id := orderID
	return &models.Conversation{
		ID:      uuid.New(),
		BuyerID: buyerID,
		OrderID: &id,
		Subject: "Pesanan KV-AAA111 - Kopi Senja",
	}
}

func TestConditionalInsertConvergesOnOneConversation(t *testing.T) {
	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	orderID := uuid.New()

	first := orderConversation(buyerID, orderID)
	second := orderConversation(buyerID, orderID)

	require.NoError(t, repo.CreateConversationIfAbsent(ctx, first))
	require.NoError(t, repo.CreateConversationIfAbsent(ctx, second))

	found, err := repo.FindConversationByBuyerAndOrder(ctx, buyerID, orderID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	var count int64
	require.NoError(t, db.Model(&models.Conversation{}).
		Where("buyer_id = ? AND order_id = ?", buyerID, orderID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGeneralConversationsAreNotDeduplicated(t *testing.T) {
	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	for i := 0; i < 2; i++ {
		_, err := repo.CreateConversation(ctx, &models.Conversation{
			ID:      uuid.New(),
			BuyerID: buyerID,
			Subject: "Konsultasi Desain",
		})
		require.NoError(t, err)
	}

	rows, err := repo.ListConversationsByBuyer(ctx, buyerID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestListConversationsMostRecentlyUpdatedFirst(t *testing.T) {
	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	older, err := repo.CreateConversation(ctx, &models.Conversation{
		ID: uuid.New(), BuyerID: buyerID, Subject: "Lama",
	})
	require.NoError(t, err)
	newer, err := repo.CreateConversation(ctx, &models.Conversation{
		ID: uuid.New(), BuyerID: buyerID, Subject: "Baru",
	})
	require.NoError(t, err)

	require.NoError(t, repo.TouchConversation(ctx, older.ID, time.Now().Add(-time.Hour)))
	require.NoError(t, repo.TouchConversation(ctx, newer.ID, time.Now()))

	rows, err := repo.ListConversationsByBuyer(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Baru", rows[0].Subject)
}

func TestMessagesListedOldestFirst(t *testing.T) {
	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	conversation, err := repo.CreateConversation(ctx, &models.Conversation{
		ID: uuid.New(), BuyerID: uuid.New(), Subject: "Konsultasi Desain",
	})
	require.NoError(t, err)

	base := time.Now().Add(-time.Minute)
	for i, content := range []string{"pertama", "kedua", "ketiga"} {
		_, err := repo.CreateMessage(ctx, &models.Message{
			ID:             uuid.New(),
			ConversationID: conversation.ID,
			SenderID:       conversation.BuyerID,
			Content:        content,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	rows, err := repo.ListMessages(ctx, conversation.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "pertama", rows[0].Content)
	assert.Equal(t, "ketiga", rows[2].Content)
}

func TestMarkMessagesReadSkipsOwnMessages(t *testing.T) {
	db := setupChatTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	buyerID := uuid.New()
	adminID := uuid.New()
	conversation, err := repo.CreateConversation(ctx, &models.Conversation{
		ID: uuid.New(), BuyerID: buyerID, Subject: "Konsultasi Desain",
	})
	require.NoError(t, err)

	mine, err := repo.CreateMessage(ctx, &models.Message{
		ID: uuid.New(), ConversationID: conversation.ID, SenderID: buyerID, Content: "halo",
	})
	require.NoError(t, err)
	theirs, err := repo.CreateMessage(ctx, &models.Message{
		ID: uuid.New(), ConversationID: conversation.ID, SenderID: adminID, Content: "siap",
	})
	require.NoError(t, err)

	require.NoError(t, repo.MarkMessagesRead(ctx, conversation.ID, buyerID))

	rows, err := repo.ListMessages(ctx, conversation.ID)
	require.NoError(t, err)
	for _, row := range rows {
		switch row.ID {
		case mine.ID:
			assert.False(t, row.IsRead)
		case theirs.ID:
			assert.True(t, row.IsRead)
		}
	}
}
