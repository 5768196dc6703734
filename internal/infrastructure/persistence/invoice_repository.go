package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickcart/backend/internal/domain/billing"
	"github.com/quickcart/backend/internal/domain/shared"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create inserts an invoice, surfacing the order_id unique violation as
// shared.ErrAlreadyExists
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	if err := dbFromContext(ctx, r.db).Create(invoice).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByOrderID loads the invoice attached to an order
func (r *GormInvoiceRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := dbFromContext(ctx, r.db).
		First(&invoice, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// Save persists invoice state changes
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return dbFromContext(ctx, r.db).Save(invoice).Error
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
