package orders

import (
	"fmt"

	"github.com/kreasivisual/kreasivisual-backend/pkg/enums"
	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
)

// allowedTransitions is the forward-only status machine. Terminal states have
// no outgoing edges; cancellation is injected for every non-terminal state in
// CanTransition rather than listed here.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusAwaitingPayment:     {enums.OrderStatusVerifying},
	enums.OrderStatusAwaitingDownPayment: {enums.OrderStatusVerifying},
	enums.OrderStatusVerifying:           {enums.OrderStatusVerified},
	enums.OrderStatusVerified:            {enums.OrderStatusInProduction},
	enums.OrderStatusInProduction: {
		enums.OrderStatusDone,
		enums.OrderStatusAwaitingFinalPayment,
	},
	enums.OrderStatusAwaitingFinalPayment: {enums.OrderStatusVerifying},
}

// CanTransition reports whether from → to is a legal move for an order on the
// given payment option. The final-balance wait state only exists on the dp50
// branch; a fully paid order goes straight from production to done.
func CanTransition(from, to enums.OrderStatus, option enums.PaymentOption) bool {
	if from.IsTerminal() {
		return false
	}
	if to == enums.OrderStatusCanceled {
		return true
	}
	if to == enums.OrderStatusAwaitingFinalPayment && option != enums.PaymentOptionDP50 {
		return false
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a move and returns a typed error describing why the
// move is rejected. Re-applying the current status is treated as an
// idempotent no-op by callers, so from == to is rejected here.
func Transition(from, to enums.OrderStatus, option enums.PaymentOption) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state")
	}
	if !CanTransition(from, to, option) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %q to %q", from, to))
	}
	return nil
}
