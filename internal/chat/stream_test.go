package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
)

type stubSubscription struct {
	events chan *goredis.Message
	closed bool
}

func (s *stubSubscription) Channel() <-chan *goredis.Message { return s.events }

func (s *stubSubscription) Close() error {
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

type stubFeed struct {
	subscription *stubSubscription
	channel      string
}

func (s *stubFeed) Subscribe(_ context.Context, channel string) (FeedSubscription, error) {
	s.channel = channel
	return s.subscription, nil
}

func newStreamFixture(t *testing.T) (*chatFixture, *stubFeed) {
	t.Helper()

	f := newChatFixture(t)
	feed := &stubFeed{subscription: &stubSubscription{events: make(chan *goredis.Message, 8)}}

	svc, err := NewService(ServiceParams{
		Repo:      f.repo,
		Orders:    f.orders,
		Uploader:  f.uploader,
		Bucket:    "kreasivisual-chat",
		Publisher: f.publisher,
		Feed:      feed,
	})
	require.NoError(t, err)
	f.service = svc

	return f, feed
}

func liveEvent(t *testing.T, dto MessageDTO) *goredis.Message {
	t.Helper()
	payload, err := json.Marshal(dto)
	require.NoError(t, err)
	return &goredis.Message{Payload: string(payload)}
}

func TestStreamMessagesEmitsHistoryThenLive(t *testing.T) {
	f, feed := newStreamFixture(t)
	conversation := f.ownedConversation(t)

	history := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		SenderID:       f.buyerID,
		Content:        "pesan lama",
	}
	f.repo.messages = append(f.repo.messages, history)

	liveID := uuid.New()
	feed.subscription.events <- liveEvent(t, MessageDTO{
		ID:             liveID,
		ConversationID: conversation.ID,
		SenderID:       uuid.New(),
		Content:        "pesan baru",
	})
	// Replay of the history message must be dropped.
	feed.subscription.events <- liveEvent(t, MessageDTO{
		ID:             history.ID,
		ConversationID: conversation.ID,
		SenderID:       f.buyerID,
		Content:        "pesan lama",
	})

	ctx, cancel := context.WithCancel(context.Background())
	emitted := make([]MessageDTO, 0, 4)
	done := make(chan error, 1)
	go func() {
		done <- f.service.StreamMessages(ctx, f.buyerID, false, conversation.ID, func(dto MessageDTO) error {
			emitted = append(emitted, dto)
			if len(emitted) == 2 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not finish")
	}

	require.Len(t, emitted, 2)
	assert.Equal(t, history.ID, emitted[0].ID)
	assert.Equal(t, "pesan lama", emitted[0].Content)
	assert.Equal(t, liveID, emitted[1].ID)
	assert.Equal(t, "pesan baru", emitted[1].Content)
	assert.Equal(t, "kv:chat:conversation:"+conversation.ID.String(), feed.channel)
}

func TestStreamMessagesEndsWhenFeedCloses(t *testing.T) {
	f, feed := newStreamFixture(t)
	conversation := f.ownedConversation(t)

	done := make(chan error, 1)
	go func() {
		done <- f.service.StreamMessages(context.Background(), f.buyerID, false, conversation.ID, func(MessageDTO) error {
			return nil
		})
	}()

	require.NoError(t, feed.subscription.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream did not finish")
	}
}

func TestStreamMessagesRequiresOwnership(t *testing.T) {
	f, _ := newStreamFixture(t)
	conversation := f.ownedConversation(t)

	err := f.service.StreamMessages(context.Background(), uuid.New(), false, conversation.ID, func(MessageDTO) error {
		return nil
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}
