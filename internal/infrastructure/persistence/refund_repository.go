package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickcart/backend/internal/domain/billing"
	"github.com/quickcart/backend/internal/domain/shared"
)

// GormRefundRepository implements billing.RefundRepository using GORM
type GormRefundRepository struct {
	db *gorm.DB
}

// NewGormRefundRepository creates a new GormRefundRepository
func NewGormRefundRepository(db *gorm.DB) *GormRefundRepository {
	return &GormRefundRepository{db: db}
}

// Create inserts a refund, surfacing the order_id unique violation as
// shared.ErrAlreadyExists
func (r *GormRefundRepository) Create(ctx context.Context, refund *billing.Refund) error {
	if err := dbFromContext(ctx, r.db).Create(refund).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByOrderID loads the refund attached to an order
func (r *GormRefundRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*billing.Refund, error) {
	var refund billing.Refund
	if err := dbFromContext(ctx, r.db).
		First(&refund, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &refund, nil
}

// Save persists refund state changes
func (r *GormRefundRepository) Save(ctx context.Context, refund *billing.Refund) error {
	return dbFromContext(ctx, r.db).Save(refund).Error
}

// FindProcessingSince returns refunds stuck in PROCESSING whose
// approved_at is older than cutoff, oldest first
func (r *GormRefundRepository) FindProcessingSince(ctx context.Context, cutoff time.Time) ([]billing.Refund, error) {
	var refunds []billing.Refund
	if err := dbFromContext(ctx, r.db).
		Where("status = ? AND approved_at IS NOT NULL AND approved_at < ?",
			billing.RefundStatusProcessing, cutoff).
		Order("approved_at ASC").
		Find(&refunds).Error; err != nil {
		return nil, err
	}
	return refunds, nil
}

var _ billing.RefundRepository = (*GormRefundRepository)(nil)
