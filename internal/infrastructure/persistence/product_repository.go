package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickcart/backend/internal/domain/catalog"
	"github.com/quickcart/backend/internal/domain/shared"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID loads a product
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var product catalog.Product
	if err := dbFromContext(ctx, r.db).
		First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Save persists product state changes
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return dbFromContext(ctx, r.db).Save(product).Error
}

// SaveWithLock persists the product only if its stored version still
// matches expectedVersion. Concurrent stock decrements race on this check;
// the loser gets shared.ErrConcurrencyConflict.
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product, expectedVersion int) error {
	product.Version = expectedVersion + 1
	result := dbFromContext(ctx, r.db).
		Model(&catalog.Product{}).
		Where("id = ? AND version = ?", product.ID, expectedVersion).
		Select("*").
		Omit("id", "created_at", "created_by").
		Updates(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		product.Version = expectedVersion
		return shared.ErrConcurrencyConflict
	}
	return nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
