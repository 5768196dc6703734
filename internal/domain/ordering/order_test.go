package ordering

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickcart/backend/internal/domain/shared"
)

func TestOrderStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status OrderStatus
		want   bool
	}{
		{"created is valid", OrderStatusCreated, true},
		{"confirmed is valid", OrderStatusConfirmed, true},
		{"accepted is valid", OrderStatusAccepted, true},
		{"rejected is valid", OrderStatusRejected, true},
		{"shipped is valid", OrderStatusShipped, true},
		{"delivered is valid", OrderStatusDelivered, true},
		{"cancelled is valid", OrderStatusCancelled, true},
		{"empty is invalid", OrderStatus(""), false},
		{"unknown is invalid", OrderStatus("PENDING"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"created to confirmed", OrderStatusCreated, OrderStatusConfirmed, true},
		{"created to cancelled", OrderStatusCreated, OrderStatusCancelled, true},
		{"created to accepted", OrderStatusCreated, OrderStatusAccepted, false},
		{"created to shipped", OrderStatusCreated, OrderStatusShipped, false},
		{"confirmed to accepted", OrderStatusConfirmed, OrderStatusAccepted, true},
		{"confirmed to rejected", OrderStatusConfirmed, OrderStatusRejected, true},
		{"confirmed to cancelled", OrderStatusConfirmed, OrderStatusCancelled, true},
		{"confirmed to shipped", OrderStatusConfirmed, OrderStatusShipped, false},
		{"confirmed to delivered", OrderStatusConfirmed, OrderStatusDelivered, false},
		{"accepted to shipped", OrderStatusAccepted, OrderStatusShipped, true},
		{"accepted to cancelled", OrderStatusAccepted, OrderStatusCancelled, true},
		{"accepted to delivered", OrderStatusAccepted, OrderStatusDelivered, false},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, true},
		{"shipped to cancelled", OrderStatusShipped, OrderStatusCancelled, false},
		{"rejected is terminal", OrderStatusRejected, OrderStatusConfirmed, false},
		{"delivered is terminal", OrderStatusDelivered, OrderStatusShipped, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusCreated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, OrderStatusRejected.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusCreated.IsTerminal())
	assert.False(t, OrderStatusConfirmed.IsTerminal())
	assert.False(t, OrderStatusAccepted.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
}

func createTestOrder(t *testing.T) *Order {
	t.Helper()
	order := NewOrder(uuid.New(), uuid.New(), DeliveryAddress{
		Name:         "Asha Traders",
		Phone:        "9876543210",
		AddressLine1: "12 Market Road",
		City:         "Pune",
		State:        "MH",
		Pincode:      "411001",
	})
	item, err := NewOrderItem(uuid.New(), "Steel Bolt M8", 4, decimal.NewFromFloat(12.50))
	require.NoError(t, err)
	require.NoError(t, order.AddItem(item))
	return order
}

func TestNewOrderItem_Validation(t *testing.T) {
	_, err := NewOrderItem(uuid.New(), "Widget", 0, decimal.NewFromInt(10))
	require.Error(t, err)
	domainErr, ok := shared.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_QUANTITY", domainErr.Code)

	_, err = NewOrderItem(uuid.New(), "Widget", 1, decimal.NewFromInt(-1))
	require.Error(t, err)
	domainErr, ok = shared.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_UNIT_PRICE", domainErr.Code)
}

func TestOrder_TotalAccumulation(t *testing.T) {
	order := createTestOrder(t)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(50.00)))

	item, err := NewOrderItem(uuid.New(), "Steel Nut M8", 10, decimal.NewFromFloat(2.25))
	require.NoError(t, err)
	require.NoError(t, order.AddItem(item))
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(72.50)))
	assert.Len(t, order.Items, 2)
	assert.Equal(t, order.ID, order.Items[1].OrderID)
}

func TestOrder_AddItemAfterConfirmation(t *testing.T) {
	order := createTestOrder(t)
	require.NoError(t, order.Confirm())

	item, err := NewOrderItem(uuid.New(), "Washer", 1, decimal.NewFromInt(1))
	require.NoError(t, err)
	err = order.AddItem(item)
	require.Error(t, err)
	domainErr, ok := shared.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "ORDER_NOT_EDITABLE", domainErr.Code)
}

func TestOrder_Lifecycle(t *testing.T) {
	order := createTestOrder(t)
	manufacturer := order.ManufacturerID

	require.NoError(t, order.Confirm())
	assert.Equal(t, OrderStatusConfirmed, order.Status)

	require.NoError(t, order.Accept(manufacturer))
	assert.Equal(t, OrderStatusAccepted, order.Status)

	require.NoError(t, order.Ship(manufacturer, "BlueDart", "BD123456", "https://track.example/BD123456"))
	assert.Equal(t, OrderStatusShipped, order.Status)
	require.NotNil(t, order.ShipmentCarrier)
	assert.Equal(t, "BlueDart", *order.ShipmentCarrier)
	assert.NotNil(t, order.ShippedAt)

	require.NoError(t, order.MarkDelivered(manufacturer))
	assert.Equal(t, OrderStatusDelivered, order.Status)
	assert.NotNil(t, order.DeliveredAt)
}

func TestOrder_InvalidTransitionLeavesStatusUnchanged(t *testing.T) {
	order := createTestOrder(t)

	err := order.Accept(order.ManufacturerID)
	require.Error(t, err)
	domainErr, ok := shared.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
	assert.Equal(t, OrderStatusCreated, order.Status)

	err = order.MarkDelivered(order.ManufacturerID)
	require.Error(t, err)
	assert.Equal(t, OrderStatusCreated, order.Status)
}

func TestOrder_ShipRequiresTrackingDetails(t *testing.T) {
	order := createTestOrder(t)
	require.NoError(t, order.Confirm())
	require.NoError(t, order.Accept(order.ManufacturerID))

	err := order.Ship(order.ManufacturerID, "", "BD1", "")
	require.Error(t, err)
	assert.Equal(t, OrderStatusAccepted, order.Status)
}

func TestOrder_Cancel(t *testing.T) {
	order := createTestOrder(t)
	require.NoError(t, order.Cancel(order.RetailerID, "changed my mind"))
	assert.Equal(t, OrderStatusCancelled, order.Status)
	require.NotNil(t, order.CancelReason)
	assert.Equal(t, "changed my mind", *order.CancelReason)

	// terminal: a second cancel is rejected
	err := order.Cancel(order.RetailerID, "again")
	require.Error(t, err)
}

func TestOrder_IsParticipant(t *testing.T) {
	order := createTestOrder(t)
	assert.True(t, order.IsParticipant(order.RetailerID))
	assert.True(t, order.IsParticipant(order.ManufacturerID))
	assert.False(t, order.IsParticipant(uuid.New()))
}
