package types

import "github.com/kreasivisual/kreasivisual-backend/pkg/enums"

// OrderItem is one cart line frozen into an order at submission time.
type OrderItem struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Category    enums.ServiceCategory `json:"category"`
	Price       int64                 `json:"price"`
	Description string                `json:"description,omitempty"`
}

// OrderItems is the JSONB snapshot column on orders. It is copied from the
// cart on checkout and never mutated afterwards.
type OrderItems []OrderItem

// Total sums the per-item prices.
func (items OrderItems) Total() int64 {
	var total int64
	for _, item := range items {
		total += item.Price
	}
	return total
}

// HasDownPaymentTier reports whether any item belongs to a tier that
// qualifies the order for the DP 50% option.
func (items OrderItems) HasDownPaymentTier() bool {
	for _, item := range items {
		if item.Category.AllowsDownPayment() {
			return true
		}
	}
	return false
}

// Names lists the item names in order.
func (items OrderItems) Names() []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}
