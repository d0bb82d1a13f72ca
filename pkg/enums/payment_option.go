package enums

import "fmt"

// PaymentOption selects full upfront payment or a 50% down payment split.
type PaymentOption string

const (
	PaymentOptionFull PaymentOption = "full"
	PaymentOptionDP50 PaymentOption = "dp50"
)

var validPaymentOptions = []PaymentOption{
	PaymentOptionFull,
	PaymentOptionDP50,
}

// String implements fmt.Stringer.
func (p PaymentOption) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentOption.
func (p PaymentOption) IsValid() bool {
	for _, candidate := range validPaymentOptions {
		if candidate == p {
			return true
		}
	}
	return false
}

// InitialOrderStatus returns the status a fresh order starts in.
func (p PaymentOption) InitialOrderStatus() OrderStatus {
	if p == PaymentOptionDP50 {
		return OrderStatusAwaitingDownPayment
	}
	return OrderStatusAwaitingPayment
}

// ParsePaymentOption converts raw input into a PaymentOption.
func ParsePaymentOption(value string) (PaymentOption, error) {
	for _, candidate := range validPaymentOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment option %q", value)
}
