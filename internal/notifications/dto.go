package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
)

// NotificationDTO is the transport shape for one in-app notification.
type NotificationDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      *string   `json:"link,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// FromModel converts a notification row into its transport shape.
func FromModel(n *models.Notification) *NotificationDTO {
	if n == nil {
		return nil
	}
	return &NotificationDTO{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		IsRead:    n.ReadAt != nil,
		CreatedAt: n.CreatedAt,
	}
}

// FromModels maps rows preserving order.
func FromModels(rows []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
