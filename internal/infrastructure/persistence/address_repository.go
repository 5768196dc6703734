package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickcart/backend/internal/domain/catalog"
	"github.com/quickcart/backend/internal/domain/shared"
)

// GormAddressRepository implements catalog.AddressRepository using GORM
type GormAddressRepository struct {
	db *gorm.DB
}

// NewGormAddressRepository creates a new GormAddressRepository
func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// FindOwnedByRetailer loads an address only when the retailer owns it.
// Foreign and missing ids both report not found.
func (r *GormAddressRepository) FindOwnedByRetailer(ctx context.Context, id, retailerID uuid.UUID) (*catalog.Address, error) {
	var address catalog.Address
	if err := dbFromContext(ctx, r.db).
		First(&address, "id = ? AND retailer_id = ?", id, retailerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &address, nil
}

// Save persists address state changes
func (r *GormAddressRepository) Save(ctx context.Context, address *catalog.Address) error {
	return dbFromContext(ctx, r.db).Save(address).Error
}

// SetDefaultForRetailer clears the retailer's current default in bulk and
// marks the given address in one statement each, avoiding a
// read-modify-write race on the one-default rule.
func (r *GormAddressRepository) SetDefaultForRetailer(ctx context.Context, retailerID, addressID uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	if err := db.Model(&catalog.Address{}).
		Where("retailer_id = ? AND is_default = ?", retailerID, true).
		Update("is_default", false).Error; err != nil {
		return err
	}
	result := db.Model(&catalog.Address{}).
		Where("id = ? AND retailer_id = ?", addressID, retailerID).
		Update("is_default", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ catalog.AddressRepository = (*GormAddressRepository)(nil)
