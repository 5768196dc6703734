package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quickcart/backend/internal/domain/billing"
	"github.com/quickcart/backend/internal/domain/identity"
	"github.com/quickcart/backend/internal/domain/ordering"
	"github.com/quickcart/backend/internal/domain/shared"
)

func successfulPayment(orderID, retailerID uuid.UUID) *billing.Payment {
	p := billing.NewPayment(orderID, retailerID, decimal.NewFromFloat(25.00), "razorpay", "order_gw_1")
	_ = p.MarkSuccess("pay_gw_1")
	return p
}

func TestRefundService_EnsureAutoRefund(t *testing.T) {
	ctx := context.Background()
	retailerID := uuid.New()
	manufacturerID := uuid.New()

	t.Run("creates a system refund in PROCESSING and cancels the invoice", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusRejected)
		payment := successfulPayment(order.ID, retailerID)
		invoice := billing.NewInvoice(order.ID, order.TotalAmount)

		f.refunds.On("FindByOrderID", ctx, order.ID).Return(nil, shared.ErrNotFound)
		f.payments.On("FindByOrderID", ctx, order.ID).Return(payment, nil)
		f.payments.On("Save", ctx, payment).Return(nil)
		f.refunds.On("Create", ctx, mock.MatchedBy(func(r *billing.Refund) bool {
			return r.Status == billing.RefundStatusProcessing &&
				r.Initiator == billing.RefundInitiatorSystem &&
				r.ApprovedAt != nil
		})).Return(nil)
		f.events.On("Append", ctx, mock.MatchedBy(func(e *ordering.OrderEvent) bool {
			return e.Type == ordering.EventRefundProcessing && e.ActorID == nil
		})).Return(nil)
		f.invoices.On("FindByOrderID", ctx, order.ID).Return(invoice, nil)
		f.invoices.On("Save", ctx, invoice).Return(nil)

		err := f.refundService().EnsureAutoRefund(ctx, order, "Order rejected by manufacturer")
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusRefundPending, payment.Status)
		assert.Equal(t, billing.InvoiceStatusCancelled, invoice.Status)
	})

	t.Run("no-op when a refund already exists", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusRejected)
		existing := billing.NewSystemRefund(order.ID, uuid.New(), "razorpay", "earlier")

		f.refunds.On("FindByOrderID", ctx, order.ID).Return(existing, nil)

		err := f.refundService().EnsureAutoRefund(ctx, order, "again")
		require.NoError(t, err)
		f.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.refunds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("no-op without a successful payment", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusRejected)
		payment := billing.NewPayment(order.ID, retailerID, order.TotalAmount, "razorpay", "order_gw_1")

		f.refunds.On("FindByOrderID", ctx, order.ID).Return(nil, shared.ErrNotFound)
		f.payments.On("FindByOrderID", ctx, order.ID).Return(payment, nil)

		err := f.refundService().EnsureAutoRefund(ctx, order, "reason")
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusInitiated, payment.Status)
		f.refunds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("concurrent create treats already-exists as success", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusRejected)
		payment := successfulPayment(order.ID, retailerID)

		f.refunds.On("FindByOrderID", ctx, order.ID).Return(nil, shared.ErrNotFound)
		f.payments.On("FindByOrderID", ctx, order.ID).Return(payment, nil)
		f.payments.On("Save", ctx, payment).Return(nil)
		f.refunds.On("Create", ctx, mock.Anything).Return(shared.ErrAlreadyExists)

		err := f.refundService().EnsureAutoRefund(ctx, order, "reason")
		require.NoError(t, err)
		f.events.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestRefundService_EnsureRefundRequested(t *testing.T) {
	ctx := context.Background()
	retailerID := uuid.New()
	manufacturerID := uuid.New()

	t.Run("creates a pending request without touching the payment", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCancelled)
		payment := successfulPayment(order.ID, retailerID)

		f.refunds.On("FindByOrderID", ctx, order.ID).Return(nil, shared.ErrNotFound)
		f.payments.On("FindByOrderID", ctx, order.ID).Return(payment, nil)
		f.refunds.On("Create", ctx, mock.MatchedBy(func(r *billing.Refund) bool {
			return r.Status == billing.RefundStatusPendingApproval &&
				r.Initiator == billing.RefundInitiatorRetailer
		})).Return(nil)
		f.events.On("Append", ctx, mock.MatchedBy(func(e *ordering.OrderEvent) bool {
			return e.Type == ordering.EventRefundRequested
		})).Return(nil)

		err := f.refundService().EnsureRefundRequested(ctx, order, "Order cancelled by retailer")
		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusSuccess, payment.Status)
		f.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("no-op when a refund already exists", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCancelled)
		existing := billing.NewRefundRequest(order.ID, uuid.New(), "razorpay", "earlier")

		f.refunds.On("FindByOrderID", ctx, order.ID).Return(existing, nil)

		err := f.refundService().EnsureRefundRequested(ctx, order, "again")
		require.NoError(t, err)
		f.refunds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestRefundService_ApproveRefund(t *testing.T) {
	ctx := context.Background()
	retailerID := uuid.New()
	manufacturerID := uuid.New()
	seller := identity.NewActor(manufacturerID, identity.RoleManufacturer)

	t.Run("approval moves refund to PROCESSING and parks the payment", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCancelled)
		payment := successfulPayment(order.ID, retailerID)
		refund := billing.NewRefundRequest(order.ID, payment.ID, "razorpay", "cancelled")
		invoice := billing.NewInvoice(order.ID, order.TotalAmount)

		f.orders.On("FindOwnedByManufacturer", ctx, order.ID, manufacturerID).Return(order, nil)
		f.refunds.On("FindByOrderID", ctx, order.ID).Return(refund, nil)
		f.payments.On("FindByOrderID", ctx, order.ID).Return(payment, nil)
		f.payments.On("Save", ctx, payment).Return(nil)
		f.refunds.On("Save", ctx, refund).Return(nil)
		f.events.On("Append", ctx, mock.AnythingOfType("*ordering.OrderEvent")).Return(nil)
		f.invoices.On("FindByOrderID", ctx, order.ID).Return(invoice, nil)
		f.invoices.On("Save", ctx, invoice).Return(nil)

		result, err := f.refundService().ApproveRefund(ctx, seller, order.ID, "refund granted")
		require.NoError(t, err)
		assert.Equal(t, billing.RefundStatusProcessing, result.Status)
		assert.NotNil(t, result.ApprovedAt)
		assert.Equal(t, billing.PaymentStatusRefundPending, payment.Status)
		assert.Equal(t, billing.InvoiceStatusCancelled, invoice.Status)
	})

	t.Run("approval replay returns current state unchanged", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCancelled)
		refund := billing.NewSystemRefund(order.ID, uuid.New(), "razorpay", "cancelled")

		f.orders.On("FindOwnedByManufacturer", ctx, order.ID, manufacturerID).Return(order, nil)
		f.refunds.On("FindByOrderID", ctx, order.ID).Return(refund, nil)

		result, err := f.refundService().ApproveRefund(ctx, seller, order.ID, "note")
		require.NoError(t, err)
		assert.Equal(t, billing.RefundStatusProcessing, result.Status)
		f.refunds.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejected refund cannot be approved", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCancelled)
		refund := billing.NewRefundRequest(order.ID, uuid.New(), "razorpay", "cancelled")
		require.NoError(t, refund.Reject("no"))

		f.orders.On("FindOwnedByManufacturer", ctx, order.ID, manufacturerID).Return(order, nil)
		f.refunds.On("FindByOrderID", ctx, order.ID).Return(refund, nil)

		_, err := f.refundService().ApproveRefund(ctx, seller, order.ID, "note")
		require.Error(t, err)
		domainErr, ok := shared.IsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "INVALID_REFUND_STATE", domainErr.Code)
	})

	t.Run("retailer cannot approve", func(t *testing.T) {
		f := newBillingFixture()
		_, err := f.refundService().ApproveRefund(ctx, identity.NewActor(retailerID, identity.RoleRetailer), uuid.New(), "")
		require.Error(t, err)
		domainErr, ok := shared.IsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
	})
}

func TestRefundService_RejectRefund(t *testing.T) {
	ctx := context.Background()
	retailerID := uuid.New()
	manufacturerID := uuid.New()
	seller := identity.NewActor(manufacturerID, identity.RoleManufacturer)

	t.Run("rejection is terminal and leaves the payment captured", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCancelled)
		refund := billing.NewRefundRequest(order.ID, uuid.New(), "razorpay", "cancelled")

		f.orders.On("FindOwnedByManufacturer", ctx, order.ID, manufacturerID).Return(order, nil)
		f.refunds.On("FindByOrderID", ctx, order.ID).Return(refund, nil)
		f.refunds.On("Save", ctx, refund).Return(nil)
		f.events.On("Append", ctx, mock.MatchedBy(func(e *ordering.OrderEvent) bool {
			return e.Type == ordering.EventRefundRejected
		})).Return(nil)

		result, err := f.refundService().RejectRefund(ctx, seller, order.ID, "out of window")
		require.NoError(t, err)
		assert.Equal(t, billing.RefundStatusRejected, result.Status)
		f.payments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejection replay is a no-op", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCancelled)
		refund := billing.NewRefundRequest(order.ID, uuid.New(), "razorpay", "cancelled")
		require.NoError(t, refund.Reject("no"))

		f.orders.On("FindOwnedByManufacturer", ctx, order.ID, manufacturerID).Return(order, nil)
		f.refunds.On("FindByOrderID", ctx, order.ID).Return(refund, nil)

		result, err := f.refundService().RejectRefund(ctx, seller, order.ID, "again")
		require.NoError(t, err)
		assert.Equal(t, billing.RefundStatusRejected, result.Status)
		f.refunds.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestRefundService_GetRefund(t *testing.T) {
	ctx := context.Background()
	retailerID := uuid.New()
	manufacturerID := uuid.New()

	t.Run("participants can read the refund", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusCancelled)
		refund := billing.NewRefundRequest(order.ID, uuid.New(), "razorpay", "cancelled")

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.refunds.On("FindByOrderID", ctx, order.ID).Return(refund, nil)

		result, err := f.refundService().GetRefund(ctx, identity.NewActor(retailerID, identity.RoleRetailer), order.ID)
		require.NoError(t, err)
		assert.Equal(t, refund.ID, result.ID)
	})

	t.Run("missing refund is not found", func(t *testing.T) {
		f := newBillingFixture()
		order := testOrder(retailerID, manufacturerID, ordering.OrderStatusConfirmed)

		f.orders.On("FindByID", ctx, order.ID).Return(order, nil)
		f.refunds.On("FindByOrderID", ctx, order.ID).Return(nil, shared.ErrNotFound)

		_, err := f.refundService().GetRefund(ctx, identity.NewActor(retailerID, identity.RoleRetailer), order.ID)
		require.Error(t, err)
		domainErr, ok := shared.IsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, "REFUND_NOT_FOUND", domainErr.Code)
	})
}
