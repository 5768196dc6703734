package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quickcart/backend/internal/domain/shared"
)

// InvoiceStatus is GENERATED until a refund starts processing, then CANCELLED
type InvoiceStatus string

const (
	InvoiceStatusGenerated InvoiceStatus = "GENERATED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is issued once per order when its payment is verified. The unique
// order_id constraint makes concurrent issuance idempotent.
type Invoice struct {
	shared.BaseEntity
	OrderID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_invoices_order" json:"order_id"`
	Number  string          `gorm:"size:64;not null;uniqueIndex" json:"number"`
	Amount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status  InvoiceStatus   `gorm:"size:20;not null;default:'GENERATED'" json:"status"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a generated invoice for the order total
func NewInvoice(orderID uuid.UUID, amount decimal.Decimal) *Invoice {
	return &Invoice{
		BaseEntity: shared.NewBaseEntity(nil),
		OrderID:    orderID,
		Number:     fmt.Sprintf("INV-%s", uuid.New().String()),
		Amount:     amount,
		Status:     InvoiceStatusGenerated,
	}
}

// Cancel voids the invoice when a refund enters processing. The row is kept,
// never deleted.
func (i *Invoice) Cancel() {
	if i.Status == InvoiceStatusCancelled {
		return
	}
	i.Status = InvoiceStatusCancelled
	i.Audit.Touch(nil)
}
