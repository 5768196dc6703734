package ordering

import (
	"context"

	"github.com/google/uuid"

	"github.com/quickcart/backend/internal/domain/ordering"
)

// AuditRecorder appends immutable order events. It is pure write-side: every
// engine calls it inside its own transaction so the audit row commits or
// rolls back with the state change it describes.
type AuditRecorder struct {
	events ordering.OrderEventRepository
}

// NewAuditRecorder creates an audit recorder
func NewAuditRecorder(events ordering.OrderEventRepository) *AuditRecorder {
	return &AuditRecorder{events: events}
}

// Record appends one event. actor is nil for system actions; from/to are
// empty for non-status events.
func (r *AuditRecorder) Record(ctx context.Context, orderID uuid.UUID, eventType ordering.EventType, from, to ordering.OrderStatus, actor *uuid.UUID, note string) error {
	return r.events.Append(ctx, ordering.NewOrderEvent(orderID, eventType, from, to, actor, note))
}

// Trail returns an order's events ascending by creation time
func (r *AuditRecorder) Trail(ctx context.Context, orderID uuid.UUID) ([]ordering.OrderEvent, error) {
	return r.events.FindByOrderID(ctx, orderID)
}
