package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/kreasivisual/kreasivisual-backend/pkg/db/models"
	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	"github.com/kreasivisual/kreasivisual-backend/pkg/types"
)

// CreateOrderRequest is the checkout payload. Items and pricing come from the
// buyer's cart snapshot, not from the request body.
type CreateOrderRequest struct {
	BrandName     string `json:"brand_name" validate:"required"`
	Brief         string `json:"brief" validate:"required"`
	Style         string `json:"style"`
	Deadline      string `json:"deadline" validate:"required"`
	Reference     string `json:"reference"`
	PaymentOption string `json:"payment_option" validate:"required,oneof=full dp50"`
}

// OrderDTO is the buyer-facing order shape.
type OrderDTO struct {
	ID                uuid.UUID           `json:"id"`
	OrderCode         string              `json:"order_code"`
	Items             types.OrderItems    `json:"items"`
	BrandName         string              `json:"brand_name"`
	Brief             string              `json:"brief"`
	Style             string              `json:"style,omitempty"`
	Deadline          string              `json:"deadline"`
	Reference         string              `json:"reference,omitempty"`
	TotalPrice        int64               `json:"total_price"`
	DPAmount          *int64              `json:"dp_amount,omitempty"`
	PaymentOption     enums.PaymentOption `json:"payment_option"`
	Status            enums.OrderStatus   `json:"status"`
	StatusDescription string              `json:"status_description"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// FromModel converts an order row into its transport shape.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:                o.ID,
		OrderCode:         o.OrderCode,
		Items:             o.Items,
		BrandName:         o.BrandName,
		Brief:             o.Brief,
		Style:             o.Style,
		Deadline:          o.Deadline,
		Reference:         o.Reference,
		TotalPrice:        o.TotalPrice,
		DPAmount:          o.DPAmount,
		PaymentOption:     o.PaymentOption,
		Status:            o.Status,
		StatusDescription: o.Status.Description(),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// FromModels maps a slice of rows into DTOs preserving order.
func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
