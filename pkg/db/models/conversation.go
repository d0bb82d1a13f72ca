package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a buyer/admin chat thread. OrderID is nil for a general
// inquiry; when set, the partial unique index on (buyer_id, order_id) keeps
// the thread unique per order regardless of how many clients race to create it.
type Conversation struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID   uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;index"`
	OrderID   *uuid.UUID `gorm:"column:order_id;type:uuid"`
	Subject   string     `gorm:"column:subject;type:text;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
