package ordering

import (
	"context"

	"github.com/google/uuid"

	"github.com/quickcart/backend/internal/domain/shared"
)

// OrderRepository is the persistence port for orders
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindOwnedByManufacturer resolves an order only when the manufacturer
	// owns it; otherwise reports not found.
	FindOwnedByManufacturer(ctx context.Context, id, manufacturerID uuid.UUID) (*Order, error)
	FindForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[Order], error)
	Save(ctx context.Context, order *Order) error
	// SaveWithLock persists the order only if its version is unchanged
	SaveWithLock(ctx context.Context, order *Order, expectedVersion int) error
}

// OrderEventRepository is the append-only persistence port for the audit trail
type OrderEventRepository interface {
	Append(ctx context.Context, event *OrderEvent) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]OrderEvent, error)
}
