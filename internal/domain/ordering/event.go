package ordering

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audit-trail entry
type EventType string

const (
	EventOrderPlaced      EventType = "ORDER_PLACED"
	EventStatusChanged    EventType = "STATUS_CHANGED"
	EventPaymentCreated   EventType = "PAYMENT_CREATED"
	EventInvoiceGenerated EventType = "INVOICE_GENERATED"
	EventOrderCancelled   EventType = "ORDER_CANCELLED"
	EventRefundRequested  EventType = "REFUND_REQUESTED"
	EventRefundApproved   EventType = "REFUND_APPROVED"
	EventRefundProcessing EventType = "REFUND_PROCESSING"
	EventRefundRejected   EventType = "REFUND_REJECTED"
	EventRefundProcessed  EventType = "REFUND_PROCESSED"
)

// OrderEvent is one append-only audit row. Rows are never updated or
// deleted; from/to statuses are empty for non-status events and the actor
// is nil for system actions.
type OrderEvent struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID   `gorm:"type:uuid;not null;index:idx_order_events_order" json:"order_id"`
	Type       EventType   `gorm:"size:32;not null" json:"type"`
	FromStatus OrderStatus `gorm:"size:20" json:"from_status,omitempty"`
	ToStatus   OrderStatus `gorm:"size:20" json:"to_status,omitempty"`
	ActorID    *uuid.UUID  `gorm:"type:uuid" json:"actor_id,omitempty"`
	Note       string      `gorm:"size:1000" json:"note,omitempty"`
	CreatedAt  time.Time   `gorm:"not null;index:idx_order_events_created" json:"created_at"`
}

// TableName returns the table name for GORM
func (OrderEvent) TableName() string {
	return "order_events"
}

// NewOrderEvent creates an audit row stamped with the current time
func NewOrderEvent(orderID uuid.UUID, eventType EventType, from, to OrderStatus, actorID *uuid.UUID, note string) *OrderEvent {
	return &OrderEvent{
		ID:         uuid.New(),
		OrderID:    orderID,
		Type:       eventType,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Note:       note,
		CreatedAt:  time.Now(),
	}
}
