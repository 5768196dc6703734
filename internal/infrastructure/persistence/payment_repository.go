package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickcart/backend/internal/domain/billing"
	"github.com/quickcart/backend/internal/domain/shared"
)

// GormPaymentRepository implements billing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment. The unique constraint on order_id decides races
// between concurrent creates; the loser gets shared.ErrAlreadyExists and
// re-reads the winner's row.
func (r *GormPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	if err := dbFromContext(ctx, r.db).Create(payment).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByOrderID loads the payment attached to an order
func (r *GormPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*billing.Payment, error) {
	var payment billing.Payment
	if err := dbFromContext(ctx, r.db).
		First(&payment, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// Save persists payment state changes
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	return dbFromContext(ctx, r.db).Save(payment).Error
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
