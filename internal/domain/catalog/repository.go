package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository is the persistence port for products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Save(ctx context.Context, product *Product) error
	// SaveWithLock persists the product only if its version is unchanged,
	// guarding concurrent stock adjustments against lost updates.
	SaveWithLock(ctx context.Context, product *Product, expectedVersion int) error
}

// AddressRepository is the persistence port for delivery addresses
type AddressRepository interface {
	// FindOwnedByRetailer resolves an address only when it belongs to the
	// given retailer; a foreign or missing id is reported as not found so
	// address ids cannot be enumerated.
	FindOwnedByRetailer(ctx context.Context, id, retailerID uuid.UUID) (*Address, error)
	Save(ctx context.Context, address *Address) error
	// SetDefaultForRetailer clears the retailer's current default in bulk
	// and marks the given address, avoiding a read-modify-write race on
	// the one-default-per-retailer rule.
	SetDefaultForRetailer(ctx context.Context, retailerID, addressID uuid.UUID) error
}
