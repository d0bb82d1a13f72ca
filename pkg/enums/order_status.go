package enums

import "fmt"

// OrderStatus tracks the lifecycle of a design order. The values are the
// buyer-facing Indonesian labels persisted verbatim.
type OrderStatus string

const (
	OrderStatusAwaitingPayment      OrderStatus = "Menunggu Pembayaran"
	OrderStatusAwaitingDownPayment  OrderStatus = "Menunggu Pembayaran DP"
	OrderStatusVerifying            OrderStatus = "Sedang Diverifikasi"
	OrderStatusVerified             OrderStatus = "Diverifikasi"
	OrderStatusInProduction         OrderStatus = "Diproses"
	OrderStatusAwaitingFinalPayment OrderStatus = "Menunggu Pembayaran Akhir"
	OrderStatusDone                 OrderStatus = "Selesai"
	OrderStatusCanceled             OrderStatus = "Dibatalkan"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAwaitingPayment,
	OrderStatusAwaitingDownPayment,
	OrderStatusVerifying,
	OrderStatusVerified,
	OrderStatusInProduction,
	OrderStatusAwaitingFinalPayment,
	OrderStatusDone,
	OrderStatusCanceled,
}

var orderStatusDescriptions = map[OrderStatus]string{
	OrderStatusAwaitingPayment:      "Silakan selesaikan pembayaran untuk memulai proses desain.",
	OrderStatusAwaitingDownPayment:  "Silakan bayar DP 50% untuk memulai proses desain.",
	OrderStatusVerifying:            "Pembayaran sedang diverifikasi oleh admin.",
	OrderStatusVerified:             "Pembayaran telah diverifikasi. Pesanan segera diproses.",
	OrderStatusInProduction:         "Desain sedang dikerjakan oleh tim kami.",
	OrderStatusAwaitingFinalPayment: "Desain hampir selesai. Silakan lunasi sisa pembayaran.",
	OrderStatusDone:                 "Pesanan selesai! File desain telah dikirim.",
	OrderStatusCanceled:             "Pesanan telah dibatalkan.",
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status accepts no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDone || s == OrderStatusCanceled
}

// IsAwaitingPayment reports whether the pay action may be offered.
func (s OrderStatus) IsAwaitingPayment() bool {
	switch s {
	case OrderStatusAwaitingPayment, OrderStatusAwaitingDownPayment, OrderStatusAwaitingFinalPayment:
		return true
	}
	return false
}

// Description returns the buyer-facing explanation for the status. Unknown
// values yield an empty string so stale rows render without special styling.
func (s OrderStatus) Description() string {
	return orderStatusDescriptions[s]
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
