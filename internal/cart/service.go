package cart

import (
	"context"
	"strings"

	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
	"github.com/kreasivisual/kreasivisual-backend/pkg/types"
)

type stateStore interface {
	Load(ctx context.Context, buyerID string) (*State, error)
	Save(ctx context.Context, buyerID string, state *State) error
	Delete(ctx context.Context, buyerID string) error
}

// Service exposes the buyer cart operations.
type Service interface {
	Get(ctx context.Context, buyerID string) (*Quote, error)
	AddItem(ctx context.Context, buyerID string, item types.OrderItem) (*Quote, error)
	RemoveItem(ctx context.Context, buyerID, itemID string) (*Quote, error)
	Clear(ctx context.Context, buyerID string) error
	ApplyCoupon(ctx context.Context, buyerID, code string) (*Quote, error)
	Snapshot(ctx context.Context, buyerID string) (*State, error)
}

type service struct {
	store stateStore
}

// NewService builds a cart service on top of the Redis-backed store.
func NewService(store stateStore) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart store required")
	}
	return &service{store: store}, nil
}

func (s *service) Get(ctx context.Context, buyerID string) (*Quote, error) {
	state, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return state.quote(), nil
}

// AddItem appends unconditionally. Duplicate ids are allowed to accumulate;
// the caller is responsible for idempotence-by-id when it wants it.
func (s *service) AddItem(ctx context.Context, buyerID string, item types.OrderItem) (*Quote, error) {
	if strings.TrimSpace(item.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if !item.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid service category")
	}
	if item.Price < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price must not be negative")
	}

	state, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	state.Items = append(state.Items, item)
	if err := s.store.Save(ctx, buyerID, state); err != nil {
		return nil, err
	}
	return state.quote(), nil
}

// RemoveItem drops the first entry matching id. An absent id is a no-op.
func (s *service) RemoveItem(ctx context.Context, buyerID, itemID string) (*Quote, error) {
	state, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	for i, item := range state.Items {
		if item.ID == itemID {
			state.Items = append(state.Items[:i], state.Items[i+1:]...)
			if err := s.store.Save(ctx, buyerID, state); err != nil {
				return nil, err
			}
			break
		}
	}
	return state.quote(), nil
}

// Clear empties the cart, dropping items, coupon code and discount together.
func (s *service) Clear(ctx context.Context, buyerID string) error {
	return s.store.Delete(ctx, buyerID)
}

// ApplyCoupon stores the raw code, then resolves it case-insensitively
// against the static table. A miss resets the discount to zero but keeps the
// stored code, so the buyer sees what they typed when the toast fires.
func (s *service) ApplyCoupon(ctx context.Context, buyerID, code string) (*Quote, error) {
	state, err := s.store.Load(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	state.CouponCode = code
	discount, ok := LookupCoupon(code)
	if !ok {
		state.Discount = 0
		if err := s.store.Save(ctx, buyerID, state); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code not recognized")
	}

	state.Discount = discount
	if err := s.store.Save(ctx, buyerID, state); err != nil {
		return nil, err
	}
	return state.quote(), nil
}

// Snapshot hands the raw cart state to checkout, which freezes it into an
// order row.
func (s *service) Snapshot(ctx context.Context, buyerID string) (*State, error) {
	return s.store.Load(ctx, buyerID)
}
