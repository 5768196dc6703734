package ordering

import (
	"time"

	"github.com/google/uuid"

	"github.com/quickcart/backend/internal/domain/ordering"
)

// OrderLineInput is one requested line at placement time
type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// PlaceOrderInput carries everything needed to place an order
type PlaceOrderInput struct {
	AddressID uuid.UUID
	Items     []OrderLineInput
}

// ShipmentInput carries the shipment details for an accepted order
type ShipmentInput struct {
	Carrier        string
	TrackingNumber string
	TrackingURL    string
}

// OrderItemResult mirrors a persisted line item
type OrderItemResult struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Subtotal    string    `json:"subtotal"`
}

// OrderResult is the service-level view of an order
type OrderResult struct {
	ID              uuid.UUID                `json:"id"`
	RetailerID      uuid.UUID                `json:"retailer_id"`
	ManufacturerID  uuid.UUID                `json:"manufacturer_id"`
	Status          ordering.OrderStatus     `json:"status"`
	TotalAmount     string                   `json:"total_amount"`
	DeliveryAddress ordering.DeliveryAddress `json:"delivery_address"`
	ShipmentCarrier *string                  `json:"shipment_carrier,omitempty"`
	TrackingNumber  *string                  `json:"tracking_number,omitempty"`
	TrackingURL     *string                  `json:"tracking_url,omitempty"`
	ShippedAt       *time.Time               `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time               `json:"delivered_at,omitempty"`
	Items           []OrderItemResult        `json:"items"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// ToOrderResult converts a domain order to its service-level view
func ToOrderResult(order *ordering.Order) *OrderResult {
	items := make([]OrderItemResult, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResult{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Subtotal:    item.Subtotal.StringFixed(2),
		}
	}
	return &OrderResult{
		ID:              order.ID,
		RetailerID:      order.RetailerID,
		ManufacturerID:  order.ManufacturerID,
		Status:          order.Status,
		TotalAmount:     order.TotalAmount.StringFixed(2),
		DeliveryAddress: order.DeliveryAddress,
		ShipmentCarrier: order.ShipmentCarrier,
		TrackingNumber:  order.TrackingNumber,
		TrackingURL:     order.TrackingURL,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
		Items:           items,
		CreatedAt:       order.Audit.CreatedAt,
		UpdatedAt:       order.Audit.UpdatedAt,
	}
}

// OrderEventResult is the service-level view of an audit entry
type OrderEventResult struct {
	ID         uuid.UUID            `json:"id"`
	Type       ordering.EventType   `json:"type"`
	FromStatus ordering.OrderStatus `json:"from_status,omitempty"`
	ToStatus   ordering.OrderStatus `json:"to_status,omitempty"`
	ActorID    *uuid.UUID           `json:"actor_id,omitempty"`
	Note       string               `json:"note,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// ToOrderEventResults converts domain events to their service-level view
func ToOrderEventResults(events []ordering.OrderEvent) []OrderEventResult {
	results := make([]OrderEventResult, len(events))
	for i, e := range events {
		results[i] = OrderEventResult{
			ID:         e.ID,
			Type:       e.Type,
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			ActorID:    e.ActorID,
			Note:       e.Note,
			CreatedAt:  e.CreatedAt,
		}
	}
	return results
}
