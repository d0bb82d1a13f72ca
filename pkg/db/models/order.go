package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	"github.com/kreasivisual/kreasivisual-backend/pkg/types"
)

// Order is a submitted design order. Items is a snapshot of the cart at
// submission time and never changes afterwards; only Status (and the gateway
// bookkeeping columns) mutate, strictly forward through the status machine.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderCode         string              `gorm:"column:order_code;type:text;not null;uniqueIndex"`
	BuyerID           uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	Items             types.OrderItems    `gorm:"column:items;type:jsonb;serializer:json;not null"`
	BrandName         string              `gorm:"column:brand_name;type:text;not null"`
	Brief             string              `gorm:"column:brief;type:text;not null"`
	Style             string              `gorm:"column:style;type:text"`
	Deadline          string              `gorm:"column:deadline;type:text;not null"`
	Reference         string              `gorm:"column:reference;type:text"`
	TotalPrice        int64               `gorm:"column:total_price;not null"`
	DPAmount          *int64              `gorm:"column:dp_amount"`
	PaymentOption     enums.PaymentOption `gorm:"column:payment_option;type:text;not null"`
	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null"`
	MidtransOrderID   *string             `gorm:"column:midtrans_order_id;type:text"`
	MidtransSnapToken *string             `gorm:"column:midtrans_snap_token;type:text"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
