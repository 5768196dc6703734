package shared

import (
	"context"
	"time"
)

// ReplayGuard short-circuits duplicate deliveries of external callbacks
// before they reach the database. It is an optimization only: the durable
// idempotency guarantees live in the unique constraints on the payment,
// invoice and refund tables.
type ReplayGuard interface {
	// MarkProcessed atomically records key as seen. Returns true if key was
	// newly recorded, false if it had already been seen.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key has been seen.
	IsProcessed(ctx context.Context, key string) (bool, error)
}
