package chat

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	pkgredis "github.com/kreasivisual/kreasivisual-backend/pkg/redis"
)

// FeedSubscription is one live conversation feed. Closing it tears the
// subscription down; no delivery continues afterwards.
type FeedSubscription interface {
	Channel() <-chan *goredis.Message
	Close() error
}

// LiveFeed opens per-conversation subscriptions.
type LiveFeed interface {
	Subscribe(ctx context.Context, channel string) (FeedSubscription, error)
}

// RedisFeed adapts the shared Redis client to LiveFeed.
type RedisFeed struct {
	client *pkgredis.Client
}

// NewRedisFeed wraps the Redis client for chat streaming.
func NewRedisFeed(client *pkgredis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func (f *RedisFeed) Subscribe(ctx context.Context, channel string) (FeedSubscription, error) {
	sub, err := f.client.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	return redisSubscription{sub: sub}, nil
}

type redisSubscription struct {
	sub *goredis.PubSub
}

func (r redisSubscription) Channel() <-chan *goredis.Message { return r.sub.Channel() }
func (r redisSubscription) Close() error                     { return r.sub.Close() }

// StreamMessages feeds the emit callback with the conversation history
// followed by live events until ctx is canceled. The subscription opens
// before history loads so nothing published in between is lost; any event
// whose message id was already emitted is discarded, which also absorbs the
// optimistic-insert/push race on the sender's own messages.
func (s *service) StreamMessages(ctx context.Context, actorID uuid.UUID, admin bool, conversationID uuid.UUID, emit func(MessageDTO) error) error {
	if _, err := s.authorize(ctx, actorID, admin, conversationID); err != nil {
		return err
	}
	if s.feed == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "live feed not configured")
	}
	logCtx := s.conversationCtx(ctx, conversationID)

	sub, err := s.feed.Subscribe(ctx, s.publisher.ChatChannel(conversationID.String()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe conversation feed")
	}
	defer func() { _ = sub.Close() }()

	history, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load message history")
	}

	seen := make(map[uuid.UUID]struct{}, len(history))
	for _, dto := range FromMessageModels(history) {
		seen[dto.ID] = struct{}{}
		if err := emit(dto); err != nil {
			return err
		}
	}

	events := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			var dto MessageDTO
			if err := json.Unmarshal([]byte(event.Payload), &dto); err != nil {
				if s.logg != nil {
					s.logg.Error(logCtx, "decode chat event", err)
				}
				continue
			}
			if _, dup := seen[dto.ID]; dup {
				continue
			}
			seen[dto.ID] = struct{}{}
			if err := emit(dto); err != nil {
				return err
			}
		}
	}
}
