package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quickcart/backend/internal/domain/shared"
)

// DeliveryAddress is the point-in-time copy of the retailer's address an
// order ships to. Copied at placement, immutable afterwards.
type DeliveryAddress struct {
	Name         string `gorm:"column:delivery_name;size:255;not null" json:"name"`
	Phone        string `gorm:"column:delivery_phone;size:32;not null" json:"phone"`
	AddressLine1 string `gorm:"column:delivery_address_line1;size:255;not null" json:"address_line1"`
	City         string `gorm:"column:delivery_city;size:128;not null" json:"city"`
	State        string `gorm:"column:delivery_state;size:128;not null" json:"state"`
	Pincode      string `gorm:"column:delivery_pincode;size:16;not null" json:"pincode"`
}

// OrderItem is a line of an order, exclusively owned by it. UnitPrice is a
// snapshot taken at placement and never re-read from the live product.
type OrderItem struct {
	shared.BaseEntity
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}

// TableName returns the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// NewOrderItem creates a line item with the price snapshot
func NewOrderItem(productID uuid.UUID, productName string, quantity int, unitPrice decimal.Decimal) (*OrderItem, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_UNIT_PRICE", "unit price cannot be negative")
	}
	return &OrderItem{
		BaseEntity:  shared.NewBaseEntity(nil),
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Subtotal:    unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

// Order is the aggregate driving the marketplace lifecycle between one
// retailer and one manufacturer. TotalAmount is fixed at placement and
// never recomputed.
type Order struct {
	shared.VersionedEntity
	RetailerID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"retailer_id"`
	ManufacturerID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"manufacturer_id"`
	Status          OrderStatus     `gorm:"size:20;not null;default:'CREATED'" json:"status"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	DeliveryAddress DeliveryAddress `gorm:"embedded" json:"delivery_address"`
	ShipmentCarrier *string         `gorm:"size:128" json:"shipment_carrier,omitempty"`
	TrackingNumber  *string         `gorm:"size:128" json:"tracking_number,omitempty"`
	TrackingURL     *string         `gorm:"size:512" json:"tracking_url,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CancelReason    *string         `gorm:"size:512" json:"cancel_reason,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an order in CREATED status with the address snapshot.
// Items are attached via AddItem before the order is persisted.
func NewOrder(retailerID, manufacturerID uuid.UUID, address DeliveryAddress) *Order {
	return &Order{
		VersionedEntity: shared.NewVersionedEntity(&retailerID),
		RetailerID:      retailerID,
		ManufacturerID:  manufacturerID,
		Status:          OrderStatusCreated,
		TotalAmount:     decimal.Zero,
		DeliveryAddress: address,
		Items:           []OrderItem{},
	}
}

// AddItem appends a line and accumulates the order total. Only valid
// before placement is committed.
func (o *Order) AddItem(item *OrderItem) error {
	if o.Status != OrderStatusCreated {
		return shared.NewDomainError("ORDER_NOT_EDITABLE", "items can only be added before confirmation")
	}
	item.OrderID = o.ID
	o.Items = append(o.Items, *item)
	o.TotalAmount = o.TotalAmount.Add(item.Subtotal)
	return nil
}

// IsParticipant reports whether userID is the order's retailer or manufacturer
func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return o.RetailerID == userID || o.ManufacturerID == userID
}

func (o *Order) transitionTo(target OrderStatus, actor *uuid.UUID) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorf("INVALID_TRANSITION",
			"cannot transition order from %s to %s", o.Status, target)
	}
	o.Status = target
	o.Audit.Touch(actor)
	return nil
}

// Confirm moves the order to CONFIRMED once payment succeeds
func (o *Order) Confirm() error {
	return o.transitionTo(OrderStatusConfirmed, nil)
}

// Accept records the manufacturer's decision to fulfill a confirmed order
func (o *Order) Accept(actor uuid.UUID) error {
	return o.transitionTo(OrderStatusAccepted, &actor)
}

// Reject records the manufacturer's refusal of a confirmed order
func (o *Order) Reject(actor uuid.UUID) error {
	return o.transitionTo(OrderStatusRejected, &actor)
}

// Ship records shipment details and moves an accepted order to SHIPPED
func (o *Order) Ship(actor uuid.UUID, carrier, trackingNumber, trackingURL string) error {
	if carrier == "" || trackingNumber == "" {
		return shared.NewDomainError("INVALID_SHIPMENT", "carrier and tracking number are required")
	}
	if err := o.transitionTo(OrderStatusShipped, &actor); err != nil {
		return err
	}
	now := time.Now()
	o.ShipmentCarrier = &carrier
	o.TrackingNumber = &trackingNumber
	if trackingURL != "" {
		o.TrackingURL = &trackingURL
	}
	o.ShippedAt = &now
	return nil
}

// MarkDelivered completes the shipment leg of the lifecycle
func (o *Order) MarkDelivered(actor uuid.UUID) error {
	if err := o.transitionTo(OrderStatusDelivered, &actor); err != nil {
		return err
	}
	now := time.Now()
	o.DeliveredAt = &now
	return nil
}

// ApplyStatus performs the generic manufacturer-driven transition used by
// the update-status operation. Cancellation goes through Cancel, not here.
func (o *Order) ApplyStatus(actor uuid.UUID, target OrderStatus) error {
	switch target {
	case OrderStatusAccepted:
		return o.Accept(actor)
	case OrderStatusRejected:
		return o.Reject(actor)
	case OrderStatusShipped:
		if err := o.transitionTo(OrderStatusShipped, &actor); err != nil {
			return err
		}
		now := time.Now()
		o.ShippedAt = &now
		return nil
	case OrderStatusDelivered:
		return o.MarkDelivered(actor)
	default:
		return shared.NewDomainErrorf("INVALID_TRANSITION",
			"cannot transition order from %s to %s", o.Status, target)
	}
}

// Cancel moves the order to CANCELLED. Stage-dependent authorization and
// restocking are enforced by the order service.
func (o *Order) Cancel(actor uuid.UUID, reason string) error {
	if err := o.transitionTo(OrderStatusCancelled, &actor); err != nil {
		return err
	}
	if reason != "" {
		o.CancelReason = &reason
	}
	return nil
}
