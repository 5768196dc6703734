package identity

import "github.com/google/uuid"

// Role is the closed set of marketplace roles
type Role string

const (
	// RoleRetailer places orders (the buyer side)
	RoleRetailer Role = "RETAILER"
	// RoleManufacturer fulfills orders and owns products (the seller side)
	RoleManufacturer Role = "MANUFACTURER"
)

// IsValid checks if the role is one of the known variants
func (r Role) IsValid() bool {
	switch r {
	case RoleRetailer, RoleManufacturer:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated user an operation runs on behalf of. It is
// passed explicitly into every service method; there is no ambient
// request-scoped identity.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// NewActor creates an actor value
func NewActor(userID uuid.UUID, role Role) Actor {
	return Actor{UserID: userID, Role: role}
}

// CanPlaceOrders reports whether the actor may create orders
func (a Actor) CanPlaceOrders() bool {
	return a.Role == RoleRetailer
}

// CanFulfillOrders reports whether the actor may accept, reject, ship or
// deliver orders and decide refund requests
func (a Actor) CanFulfillOrders() bool {
	return a.Role == RoleManufacturer
}
