package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentRepository is the persistence port for payments. Create must
// surface the unique-constraint violation on order_id as
// shared.ErrAlreadyExists so callers can fall back to reading the winner's
// row.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)
	Save(ctx context.Context, payment *Payment) error
}

// InvoiceRepository is the persistence port for invoices, with the same
// unique-constraint contract on Create.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
}

// RefundRepository is the persistence port for refunds, with the same
// unique-constraint contract on Create.
type RefundRepository interface {
	Create(ctx context.Context, refund *Refund) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*Refund, error)
	Save(ctx context.Context, refund *Refund) error
	// FindProcessingSince returns refunds in PROCESSING whose approved-at
	// is older than cutoff, for the settlement sweep.
	FindProcessingSince(ctx context.Context, cutoff time.Time) ([]Refund, error)
}
