package cart

import (
	"github.com/shopspring/decimal"

	"github.com/kreasivisual/kreasivisual-backend/pkg/types"
)

// State is the full cart for one buyer, stored as a single JSON value in
// Redis. The cart is single-owner (one buyer session) so reads and writes
// need no coordination beyond last-write-wins on the key.
type State struct {
	Items      types.OrderItems `json:"items"`
	CouponCode string           `json:"coupon_code"`
	Discount   int              `json:"discount"`
}

// TotalPrice sums the item prices with no discount applied.
func (s *State) TotalPrice() int64 {
	return s.Items.Total()
}

// DiscountAmount is round-half-up(total * discount / 100).
func (s *State) DiscountAmount() int64 {
	if s.Discount <= 0 {
		return 0
	}
	return decimal.NewFromInt(s.TotalPrice()).
		Mul(decimal.NewFromInt(int64(s.Discount))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// FinalPrice is the total minus the discount amount.
func (s *State) FinalPrice() int64 {
	return s.TotalPrice() - s.DiscountAmount()
}

// Quote is the transport shape returned by the cart endpoints.
type Quote struct {
	Items          types.OrderItems `json:"items"`
	CouponCode     string           `json:"coupon_code,omitempty"`
	Discount       int              `json:"discount"`
	TotalPrice     int64            `json:"total_price"`
	DiscountAmount int64            `json:"discount_amount"`
	FinalPrice     int64            `json:"final_price"`
}

func (s *State) quote() *Quote {
	items := s.Items
	if items == nil {
		items = types.OrderItems{}
	}
	return &Quote{
		Items:          items,
		CouponCode:     s.CouponCode,
		Discount:       s.Discount,
		TotalPrice:     s.TotalPrice(),
		DiscountAmount: s.DiscountAmount(),
		FinalPrice:     s.FinalPrice(),
	}
}
