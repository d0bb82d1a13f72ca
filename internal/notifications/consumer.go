package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/kreasivisual/kreasivisual-backend/internal/orders"
	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	"github.com/kreasivisual/kreasivisual-backend/pkg/logger"
	"github.com/kreasivisual/kreasivisual-backend/pkg/metrics"
)

const (
	orderNotificationHandler = "order-notifications"
	dedupeTTL                = 24 * time.Hour
)

type eventReceiver interface {
	Receive(ctx context.Context, handler func(context.Context, *gcppubsub.Message)) error
}

// deduper remembers which Pub/Sub message ids were already handled so
// redeliveries do not produce duplicate notifications.
type deduper interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	CounterKey(name string) string
}

// statusNotice is the buyer-facing copy for one status transition. The
// message template receives the order code.
type statusNotice struct {
	title   string
	message string
}

var statusNotices = map[enums.OrderStatus]statusNotice{
	enums.OrderStatusVerifying: {
		title:   "Pembayaran Diterima",
		message: "Pembayaran untuk pesanan %s telah kami terima dan sedang diverifikasi.",
	},
	enums.OrderStatusVerified: {
		title:   "Pembayaran Terverifikasi",
		message: "Pembayaran pesanan %s sudah terverifikasi. Pengerjaan akan segera dimulai.",
	},
	enums.OrderStatusAwaitingFinalPayment: {
		title:   "Menunggu Pelunasan",
		message: "Pengerjaan pesanan %s sudah selesai. Silakan lakukan pelunasan untuk menerima hasil akhir.",
	},
	enums.OrderStatusDone: {
		title:   "Pesanan Selesai",
		message: "Pesanan %s telah selesai. Terima kasih telah menggunakan layanan kami!",
	},
	enums.OrderStatusCanceled: {
		title:   "Pesanan Dibatalkan",
		message: "Pesanan %s telah dibatalkan.",
	},
}

// Consumer watches the orders topic and turns status transitions into buyer
// notifications.
type Consumer struct {
	service      Service
	subscription eventReceiver
	dedupe       deduper
	metrics      *metrics.ConsumerMetrics
	logg         *logger.Logger
}

// ConsumerParams packages the consumer dependencies. Dedupe and Metrics are
// optional.
type ConsumerParams struct {
	Service      Service
	Subscription eventReceiver
	Dedupe       deduper
	Metrics      *metrics.ConsumerMetrics
	Logger       *logger.Logger
}

// NewConsumer builds the order notification consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Service == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if params.Subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		service:      params.Service,
		subscription: params.Subscription,
		dedupe:       params.Dedupe,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		started := time.Now()
		ack := c.process(ctx, msg)
		if c.metrics != nil {
			c.metrics.ObserveDuration(orderNotificationHandler, time.Since(started))
		}
		if ack {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process handles one delivery and reports whether to ack. Malformed
// messages ack so they never loop; only transient failures nack.
func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) bool {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	})

	if msg.Attributes["event_type"] != orders.EventOrderStatusChanged {
		return true
	}

	var event orders.OrderEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logg.Error(logCtx, "decode order event", err)
		c.markFailure()
		return true
	}
	logCtx = c.logg.WithOrderCode(logCtx, event.OrderCode)

	notice, ok := statusNotices[event.Status]
	if !ok {
		return true
	}

	var dedupeKey string
	if c.dedupe != nil && msg.ID != "" {
		dedupeKey = c.dedupe.CounterKey(fmt.Sprintf("%s:%s", orderNotificationHandler, msg.ID))
		fresh, err := c.dedupe.SetNX(ctx, dedupeKey, 1, dedupeTTL)
		if err != nil {
			c.logg.Error(logCtx, "notification dedupe check", err)
			dedupeKey = ""
		} else if !fresh {
			c.logg.Info(logCtx, "order event already handled")
			return true
		}
	}

	link := "/orders/" + event.OrderCode
	_, err := c.service.Notify(ctx, event.BuyerID, notice.title, fmt.Sprintf(notice.message, event.OrderCode), &link)
	if err != nil {
		c.logg.Error(logCtx, "create order notification", err)
		// Release the dedupe claim so the redelivery is not skipped.
		if dedupeKey != "" {
			_ = c.dedupe.Del(ctx, dedupeKey)
		}
		c.markFailure()
		return false
	}

	if c.metrics != nil {
		c.metrics.IncSuccess(orderNotificationHandler)
	}
	c.logg.Info(logCtx, "order notification created")
	return true
}

func (c *Consumer) markFailure() {
	if c.metrics != nil {
		c.metrics.IncFailure(orderNotificationHandler)
	}
}
