package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quickcart/backend/internal/domain/shared"
)

// Product is the sellable unit owned by a manufacturer. The order engine
// consumes it through a narrow contract: resolve by id with current stock
// and owning seller, adjust stock. Catalog CRUD lives elsewhere.
type Product struct {
	shared.VersionedEntity
	ManufacturerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"manufacturer_id"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Stock          int             `gorm:"not null;default:0" json:"stock"`
	Active         bool            `gorm:"not null;default:true" json:"active"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates an active product
func NewProduct(manufacturerID uuid.UUID, name string, unitPrice decimal.Decimal, stock int) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "product name is required")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "unit price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "stock cannot be negative")
	}
	return &Product{
		VersionedEntity: shared.NewVersionedEntity(&manufacturerID),
		ManufacturerID:  manufacturerID,
		Name:            name,
		UnitPrice:       unitPrice,
		Stock:           stock,
		Active:          true,
	}, nil
}

// DecrementStock reserves qty units at order placement
func (p *Product) DecrementStock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_STOCK_STATE", "quantity must be positive")
	}
	if qty > p.Stock {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"product %s has %d units in stock, %d requested", p.ID, p.Stock, qty)
	}
	p.Stock -= qty
	p.Audit.Touch(nil)
	return nil
}

// RestoreStock returns qty units on cancellation
func (p *Product) RestoreStock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_STOCK_STATE", "quantity must be positive")
	}
	p.Stock += qty
	p.Audit.Touch(nil)
	return nil
}
