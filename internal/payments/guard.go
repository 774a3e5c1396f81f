package payments

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/Barackwilliam/sokoletu/pkg/errors"
)

// IdempotencyStore is the subset of the redis client the guard needs.
type IdempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	PaymentKey(orderReference string) string
}

// Guard enforces the at-most-once gateway contract per order reference: the
// checkout service must acquire the guard before dialing a provider.
type Guard struct {
	store IdempotencyStore
	ttl   time.Duration
}

// NewGuard builds a payment idempotency guard.
func NewGuard(store IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Acquire claims the order reference for one gateway call.
func (g *Guard) Acquire(ctx context.Context, orderReference string) error {
	acquired, err := g.store.SetNX(ctx, g.store.PaymentKey(orderReference), "in_flight", g.ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment guard unavailable")
	}
	if !acquired {
		return pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("payment already in flight for order %s", orderReference))
	}
	return nil
}

// Release frees the order reference after the gateway call settled, allowing a
// manual re-checkout of a failed order.
func (g *Guard) Release(ctx context.Context, orderReference string) error {
	return g.store.Del(ctx, g.store.PaymentKey(orderReference))
}
