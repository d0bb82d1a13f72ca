package orders

import (
	"context"
	"encoding/json"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
)

const publishTimeout = 15 * time.Second

// Event types carried on the orders topic.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload published on the orders topic after every
// successful create or status transition. The notify worker fans these out to
// buyer notifications.
type OrderEvent struct {
	EventType      string            `json:"event_type"`
	OrderID        uuid.UUID         `json:"order_id"`
	OrderCode      string            `json:"order_code"`
	BuyerID        uuid.UUID         `json:"buyer_id"`
	Status         enums.OrderStatus `json:"status"`
	PreviousStatus enums.OrderStatus `json:"previous_status,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// EventPublisher emits order events. Publishing is best effort after commit;
// a failed publish is logged and never rolls back the transition.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

// PubSubEmitter publishes order events to the orders topic.
type PubSubEmitter struct {
	publisher topicPublisher
	logg      *logger.Logger
}

// NewPubSubEmitter wraps the orders topic publisher.
func NewPubSubEmitter(publisher *gcppubsub.Publisher, logg *logger.Logger) *PubSubEmitter {
	return &PubSubEmitter{publisher: publisher, logg: logg}
}

func (e *PubSubEmitter) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	if e == nil || e.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_type": event.EventType,
			"order_code": event.OrderCode,
			"buyer_id":   event.BuyerID.String(),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := e.publisher.Publish(publishCtx, msg)
	if _, err := result.Get(publishCtx); err != nil {
		if e.logg != nil {
			e.logg.Error(ctx, "publish order event", err)
		}
		return err
	}
	return nil
}
