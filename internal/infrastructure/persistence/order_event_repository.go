package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickcart/backend/internal/domain/ordering"
)

// GormOrderEventRepository implements ordering.OrderEventRepository using GORM
type GormOrderEventRepository struct {
	db *gorm.DB
}

// NewGormOrderEventRepository creates a new GormOrderEventRepository
func NewGormOrderEventRepository(db *gorm.DB) *GormOrderEventRepository {
	return &GormOrderEventRepository{db: db}
}

// Append inserts an event. Events are never updated or deleted.
func (r *GormOrderEventRepository) Append(ctx context.Context, event *ordering.OrderEvent) error {
	return dbFromContext(ctx, r.db).Create(event).Error
}

// FindByOrderID returns the order's events oldest first
func (r *GormOrderEventRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]ordering.OrderEvent, error) {
	var events []ordering.OrderEvent
	if err := dbFromContext(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

var _ ordering.OrderEventRepository = (*GormOrderEventRepository)(nil)
