package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/kreasivisual/kreasivisual-backend/pkg/errors"
)

// Abandoned carts expire on their own; any write refreshes the clock.
const cartTTL = 30 * 24 * time.Hour

type cartBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(buyerID string) string
}

// Store persists one cart per buyer as a JSON value in Redis.
type Store struct {
	backend cartBackend
}

// NewStore builds a cart store on top of the shared Redis client.
func NewStore(backend cartBackend) (*Store, error) {
	if backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "redis backend required")
	}
	return &Store{backend: backend}, nil
}

// Load returns the buyer's cart, or an empty cart when none is stored.
func (s *Store) Load(ctx context.Context, buyerID string) (*State, error) {
	raw, err := s.backend.Get(ctx, s.backend.CartKey(buyerID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return &State{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	return &state, nil
}

// Save overwrites the buyer's cart and refreshes its TTL.
func (s *Store) Save(ctx context.Context, buyerID string, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.backend.Set(ctx, s.backend.CartKey(buyerID), payload, cartTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

// Delete drops the buyer's cart key entirely.
func (s *Store) Delete(ctx context.Context, buyerID string) error {
	if err := s.backend.Del(ctx, s.backend.CartKey(buyerID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}
