package ordering

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickcart/backend/internal/domain/catalog"
	"github.com/quickcart/backend/internal/domain/identity"
	"github.com/quickcart/backend/internal/domain/ordering"
	"github.com/quickcart/backend/internal/domain/shared"
)

// RefundTrigger is the slice of the refund engine the order engine needs
// when a paid order is rejected or cancelled. Implemented by
// application/billing.RefundService.
type RefundTrigger interface {
	// EnsureAutoRefund starts the system refund path (no approval step)
	EnsureAutoRefund(ctx context.Context, order *ordering.Order, reason string) error
	// EnsureRefundRequested creates a refund request awaiting seller approval
	EnsureRefundRequested(ctx context.Context, order *ordering.Order, reason string) error
}

// OrderService owns order placement, manufacturer decisions, shipment,
// delivery and cancellation. Every public method runs in one transaction.
type OrderService struct {
	orders    ordering.OrderRepository
	products  catalog.ProductRepository
	addresses catalog.AddressRepository
	recorder  *AuditRecorder
	refunds   RefundTrigger
	tx        shared.TxManager
	logger    *zap.Logger
}

// NewOrderService creates an order service
func NewOrderService(
	orders ordering.OrderRepository,
	products catalog.ProductRepository,
	addresses catalog.AddressRepository,
	recorder *AuditRecorder,
	refunds RefundTrigger,
	tx shared.TxManager,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		addresses: addresses,
		recorder:  recorder,
		refunds:   refunds,
		tx:        tx,
		logger:    logger,
	}
}

// PlaceOrder creates an order in CREATED status: resolves the buyer's
// address into a snapshot, validates the single-seller rule before touching
// any stock, then decrements stock, snapshots unit prices and appends the
// ORDER_PLACED event, all atomically.
func (s *OrderService) PlaceOrder(ctx context.Context, actor identity.Actor, input PlaceOrderInput) (*OrderResult, error) {
	if !actor.CanPlaceOrders() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "only retailers can place orders")
	}
	if len(input.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_ORDER", "order must contain at least one item")
	}

	var result *OrderResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		address, err := s.addresses.FindOwnedByRetailer(ctx, input.AddressID, actor.UserID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("ADDRESS_NOT_FOUND", "delivery address not found")
			}
			return err
		}

		// Resolve and validate every product before mutating stock, so a
		// mixed-seller order is rejected with nothing decremented.
		products := make([]*catalog.Product, len(input.Items))
		var manufacturerID uuid.UUID
		for i, line := range input.Items {
			product, err := s.products.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.NewDomainErrorf("PRODUCT_NOT_FOUND", "product %s not found", line.ProductID)
				}
				return err
			}
			if !product.Active {
				return shared.NewDomainErrorf("PRODUCT_NOT_FOUND", "product %s not found", line.ProductID)
			}
			if i == 0 {
				manufacturerID = product.ManufacturerID
			} else if product.ManufacturerID != manufacturerID {
				return shared.NewDomainError("MIXED_SELLERS", "all items must belong to the same manufacturer")
			}
			products[i] = product
		}

		order := ordering.NewOrder(actor.UserID, manufacturerID, ordering.DeliveryAddress{
			Name:         address.Name,
			Phone:        address.Phone,
			AddressLine1: address.AddressLine1,
			City:         address.City,
			State:        address.State,
			Pincode:      address.Pincode,
		})

		for i, line := range input.Items {
			product := products[i]
			version := product.Version
			if err := product.DecrementStock(line.Quantity); err != nil {
				return err
			}
			if err := s.products.SaveWithLock(ctx, product, version); err != nil {
				return err
			}

			item, err := ordering.NewOrderItem(product.ID, product.Name, line.Quantity, product.UnitPrice)
			if err != nil {
				return err
			}
			if err := order.AddItem(item); err != nil {
				return err
			}
		}

		if err := s.orders.Save(ctx, order); err != nil {
			return err
		}

		note := fmt.Sprintf("Order placed with %d item(s), total %s", len(order.Items), order.TotalAmount.StringFixed(2))
		if err := s.recorder.Record(ctx, order.ID, ordering.EventOrderPlaced, "", ordering.OrderStatusCreated, &actor.UserID, note); err != nil {
			return err
		}

		result = ToOrderResult(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", result.ID.String()),
		zap.String("retailer_id", actor.UserID.String()),
		zap.String("total", result.TotalAmount),
	)
	return result, nil
}

// AcceptOrder records the manufacturer's decision to fulfill a confirmed order
func (s *OrderService) AcceptOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*OrderResult, error) {
	if !actor.CanFulfillOrders() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "only manufacturers can accept orders")
	}

	var result *OrderResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.findOwnedOrder(ctx, orderID, actor.UserID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.Accept(actor.UserID); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, order, order.Version); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, order.ID, ordering.EventStatusChanged, from, order.Status, &actor.UserID, "Order accepted by manufacturer"); err != nil {
			return err
		}

		result = ToOrderResult(order)
		return nil
	})
	return result, err
}

// RejectOrder declines a confirmed order and starts the automatic refund
// path, since the buyer has already paid by that point.
func (s *OrderService) RejectOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID, reason string) (*OrderResult, error) {
	if !actor.CanFulfillOrders() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "only manufacturers can reject orders")
	}

	var result *OrderResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.findOwnedOrder(ctx, orderID, actor.UserID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.Reject(actor.UserID); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, order, order.Version); err != nil {
			return err
		}

		note := "Order rejected by manufacturer"
		if reason != "" {
			note = fmt.Sprintf("Order rejected by manufacturer: %s", reason)
		}
		if err := s.recorder.Record(ctx, order.ID, ordering.EventStatusChanged, from, order.Status, &actor.UserID, note); err != nil {
			return err
		}
		if err := s.refunds.EnsureAutoRefund(ctx, order, "Order rejected by manufacturer"); err != nil {
			return err
		}

		result = ToOrderResult(order)
		return nil
	})
	return result, err
}

// UpdateStatus performs a generic manufacturer transition, enforcing the
// same state machine as the dedicated operations.
func (s *OrderService) UpdateStatus(ctx context.Context, actor identity.Actor, orderID uuid.UUID, target ordering.OrderStatus) (*OrderResult, error) {
	if !actor.CanFulfillOrders() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "only manufacturers can update order status")
	}
	if !target.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_ORDER_STATUS", "unknown order status %q", target)
	}

	var result *OrderResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.findOwnedOrder(ctx, orderID, actor.UserID)
		if err != nil {
			return err
		}

		from := order.Status
		if from.IsTerminal() {
			return shared.NewDomainErrorf("INVALID_TRANSITION", "order in terminal status %s cannot be updated", from)
		}
		if err := order.ApplyStatus(actor.UserID, target); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, order, order.Version); err != nil {
			return err
		}
		note := fmt.Sprintf("Status changed from %s to %s", from, order.Status)
		if err := s.recorder.Record(ctx, order.ID, ordering.EventStatusChanged, from, order.Status, &actor.UserID, note); err != nil {
			return err
		}
		if target == ordering.OrderStatusRejected {
			if err := s.refunds.EnsureAutoRefund(ctx, order, "Order rejected by manufacturer"); err != nil {
				return err
			}
		}

		result = ToOrderResult(order)
		return nil
	})
	return result, err
}

// CreateShipment records carrier and tracking details and moves an accepted
// order to SHIPPED.
func (s *OrderService) CreateShipment(ctx context.Context, actor identity.Actor, orderID uuid.UUID, input ShipmentInput) (*OrderResult, error) {
	if !actor.CanFulfillOrders() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "only manufacturers can create shipments")
	}

	var result *OrderResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.findOwnedOrder(ctx, orderID, actor.UserID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.Ship(actor.UserID, input.Carrier, input.TrackingNumber, input.TrackingURL); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, order, order.Version); err != nil {
			return err
		}
		note := fmt.Sprintf("Shipped via %s, tracking %s", input.Carrier, input.TrackingNumber)
		if err := s.recorder.Record(ctx, order.ID, ordering.EventStatusChanged, from, order.Status, &actor.UserID, note); err != nil {
			return err
		}

		result = ToOrderResult(order)
		return nil
	})
	return result, err
}

// MarkDelivered completes the shipment leg of a shipped order
func (s *OrderService) MarkDelivered(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*OrderResult, error) {
	if !actor.CanFulfillOrders() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "only manufacturers can mark orders delivered")
	}

	var result *OrderResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.findOwnedOrder(ctx, orderID, actor.UserID)
		if err != nil {
			return err
		}

		from := order.Status
		if err := order.MarkDelivered(actor.UserID); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, order, order.Version); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, order.ID, ordering.EventStatusChanged, from, order.Status, &actor.UserID, "Order delivered"); err != nil {
			return err
		}

		result = ToOrderResult(order)
		return nil
	})
	return result, err
}

// CancelOrder cancels an order and restores stock. In CREATED only the
// buyer may cancel; in CONFIRMED/ACCEPTED either side may, and the refund
// path depends on who cancels: the buyer gets a request awaiting approval,
// a seller cancellation refunds automatically.
func (s *OrderService) CancelOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID, reason string) (*OrderResult, error) {
	var result *OrderResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("ORDER_NOT_FOUND", "order not found")
			}
			return err
		}
		if !order.IsParticipant(actor.UserID) {
			return shared.NewDomainError("UNAUTHORIZED", "only the order's retailer or manufacturer can cancel it")
		}

		from := order.Status
		if !from.IsCancellable() {
			return shared.NewDomainErrorf("INVALID_TRANSITION", "order in status %s cannot be cancelled", from)
		}
		if from == ordering.OrderStatusCreated && actor.UserID != order.RetailerID {
			return shared.NewDomainError("UNAUTHORIZED", "only the retailer can cancel an unpaid order")
		}

		for _, item := range order.Items {
			product, err := s.products.FindByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			version := product.Version
			if err := product.RestoreStock(item.Quantity); err != nil {
				return err
			}
			if err := s.products.SaveWithLock(ctx, product, version); err != nil {
				return err
			}
		}

		if err := order.Cancel(actor.UserID, reason); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, order, order.Version); err != nil {
			return err
		}

		note := "Order cancelled"
		if reason != "" {
			note = fmt.Sprintf("Order cancelled: %s", reason)
		}
		if err := s.recorder.Record(ctx, order.ID, ordering.EventOrderCancelled, from, order.Status, &actor.UserID, note); err != nil {
			return err
		}

		// Paid stages trigger the refund engine; who cancelled decides the path.
		if from == ordering.OrderStatusConfirmed || from == ordering.OrderStatusAccepted {
			if actor.UserID == order.RetailerID {
				if err := s.refunds.EnsureRefundRequested(ctx, order, "Order cancelled by retailer"); err != nil {
					return err
				}
			} else {
				if err := s.refunds.EnsureAutoRefund(ctx, order, "Order cancelled by manufacturer"); err != nil {
					return err
				}
			}
		}

		result = ToOrderResult(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled",
		zap.String("order_id", orderID.String()),
		zap.String("actor_id", actor.UserID.String()),
	)
	return result, nil
}

// GetOrder returns an order to one of its participants
func (s *OrderService) GetOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*OrderResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "order not found")
		}
		return nil, err
	}
	if !order.IsParticipant(actor.UserID) {
		return nil, shared.NewDomainError("UNAUTHORIZED", "not a participant of this order")
	}
	return ToOrderResult(order), nil
}

// ListOrders returns the acting user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, actor identity.Actor, filter shared.Filter) (*shared.Paginated[OrderResult], error) {
	page, err := s.orders.FindForUser(ctx, actor.UserID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]OrderResult, len(page.Items))
	for i := range page.Items {
		items[i] = *ToOrderResult(&page.Items[i])
	}
	return &shared.Paginated[OrderResult]{
		Items:      items,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
	}, nil
}

// GetOrderEvents returns the audit trail to one of the order's participants
func (s *OrderService) GetOrderEvents(ctx context.Context, actor identity.Actor, orderID uuid.UUID) ([]OrderEventResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "order not found")
		}
		return nil, err
	}
	if !order.IsParticipant(actor.UserID) {
		return nil, shared.NewDomainError("UNAUTHORIZED", "not a participant of this order")
	}
	events, err := s.recorder.Trail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderEventResults(events), nil
}

func (s *OrderService) findOwnedOrder(ctx context.Context, orderID, manufacturerID uuid.UUID) (*ordering.Order, error) {
	order, err := s.orders.FindOwnedByManufacturer(ctx, orderID, manufacturerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "order not found")
		}
		return nil, err
	}
	return order, nil
}
