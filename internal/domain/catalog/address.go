package catalog

import (
	"github.com/google/uuid"

	"github.com/quickcart/backend/internal/domain/shared"
)

// Address is a retailer's saved delivery address. Orders copy its fields
// into an immutable snapshot at placement time.
type Address struct {
	shared.BaseEntity
	RetailerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"retailer_id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Phone        string    `gorm:"size:32;not null" json:"phone"`
	AddressLine1 string    `gorm:"size:255;not null" json:"address_line1"`
	City         string    `gorm:"size:128;not null" json:"city"`
	State        string    `gorm:"size:128;not null" json:"state"`
	Pincode      string    `gorm:"size:16;not null" json:"pincode"`
	IsDefault    bool      `gorm:"not null;default:false" json:"is_default"`
}

// TableName returns the table name for GORM
func (Address) TableName() string {
	return "addresses"
}

// NewAddress creates an address owned by a retailer
func NewAddress(retailerID uuid.UUID, name, phone, line1, city, state, pincode string) (*Address, error) {
	if name == "" || phone == "" || line1 == "" {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "name, phone and address line are required")
	}
	return &Address{
		BaseEntity:   shared.NewBaseEntity(&retailerID),
		RetailerID:   retailerID,
		Name:         name,
		Phone:        phone,
		AddressLine1: line1,
		City:         city,
		State:        state,
		Pincode:      pincode,
	}, nil
}
