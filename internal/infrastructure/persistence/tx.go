package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/quickcart/backend/internal/domain/shared"
)

type txKey struct{}

// GormTxManager implements shared.TxManager by carrying the open
// transaction through the context. Repositories resolve it with
// dbFromContext, so everything a service does inside WithinTx commits or
// rolls back as one unit.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a transaction manager for the given connection
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithinTx runs fn inside a single database transaction
func (m *GormTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls join the surrounding transaction
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// dbFromContext returns the transaction bound to ctx, or the fallback
// connection when the caller runs outside a transaction.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return fallback.WithContext(ctx)
}

var _ shared.TxManager = (*GormTxManager)(nil)
