package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickcart/backend/internal/domain/ordering"
	"github.com/quickcart/backend/internal/domain/shared"
)

// GormOrderRepository implements ordering.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	var order ordering.Order
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindOwnedByManufacturer loads an order only when the manufacturer owns it
func (r *GormOrderRepository) FindOwnedByManufacturer(ctx context.Context, id, manufacturerID uuid.UUID) (*ordering.Order, error) {
	var order ordering.Order
	if err := dbFromContext(ctx, r.db).
		Preload("Items").
		First(&order, "id = ? AND manufacturer_id = ?", id, manufacturerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindForUser lists orders where the user is the retailer or the manufacturer
func (r *GormOrderRepository) FindForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[ordering.Order], error) {
	db := dbFromContext(ctx, r.db)
	base := db.Model(&ordering.Order{}).
		Where("retailer_id = ? OR manufacturer_id = ?", userID, userID)

	if status, ok := filter.Filters["status"]; ok {
		base = base.Where("status = ?", status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir != "asc" {
		orderDir = "desc"
	}

	var orders []ordering.Order
	if err := base.
		Preload("Items").
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Limit(filter.PageSize).
		Offset(filter.Offset()).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	return &shared.Paginated[ordering.Order]{
		Items:      orders,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// Save persists the order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	return dbFromContext(ctx, r.db).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(order).Error
}

// SaveWithLock persists the order only if its stored version still matches
// expectedVersion, bumping the version on success. Items are not touched;
// they are immutable after placement.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, order *ordering.Order, expectedVersion int) error {
	order.Version = expectedVersion + 1
	result := dbFromContext(ctx, r.db).
		Model(&ordering.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at", "created_by", "Items").
		Updates(order)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		order.Version = expectedVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ ordering.OrderRepository = (*GormOrderRepository)(nil)
