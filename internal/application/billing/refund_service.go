package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appordering "github.com/quickcart/backend/internal/application/ordering"
	"github.com/quickcart/backend/internal/domain/billing"
	"github.com/quickcart/backend/internal/domain/identity"
	"github.com/quickcart/backend/internal/domain/ordering"
	"github.com/quickcart/backend/internal/domain/shared"
)

// RefundService owns refund creation and the manufacturer approval
// workflow. Refund creation is idempotent per order: the unique constraint
// on refunds.order_id makes "already exists" a success, never an error.
type RefundService struct {
	orders   ordering.OrderRepository
	payments billing.PaymentRepository
	refunds  billing.RefundRepository
	invoices billing.InvoiceRepository
	recorder *appordering.AuditRecorder
	tx       shared.TxManager
	logger   *zap.Logger
}

// NewRefundService creates a refund service
func NewRefundService(
	orders ordering.OrderRepository,
	payments billing.PaymentRepository,
	refunds billing.RefundRepository,
	invoices billing.InvoiceRepository,
	recorder *appordering.AuditRecorder,
	tx shared.TxManager,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		orders:   orders,
		payments: payments,
		refunds:  refunds,
		invoices: invoices,
		recorder: recorder,
		tx:       tx,
		logger:   logger,
	}
}

// RefundResult is the service-level view of a refund
type RefundResult struct {
	ID               uuid.UUID               `json:"id"`
	OrderID          uuid.UUID               `json:"order_id"`
	Initiator        billing.RefundInitiator `json:"initiator"`
	Status           billing.RefundStatus    `json:"status"`
	Reason           string                  `json:"reason,omitempty"`
	ManufacturerNote *string                 `json:"manufacturer_note,omitempty"`
	RequestedAt      time.Time               `json:"requested_at"`
	ApprovedAt       *time.Time              `json:"approved_at,omitempty"`
	ProcessedAt      *time.Time              `json:"processed_at,omitempty"`
	Reference        *string                 `json:"reference,omitempty"`
}

func toRefundResult(r *billing.Refund) *RefundResult {
	return &RefundResult{
		ID:               r.ID,
		OrderID:          r.OrderID,
		Initiator:        r.Initiator,
		Status:           r.Status,
		Reason:           r.Reason,
		ManufacturerNote: r.ManufacturerNote,
		RequestedAt:      r.RequestedAt,
		ApprovedAt:       r.ApprovedAt,
		ProcessedAt:      r.ProcessedAt,
		Reference:        r.Reference,
	}
}

// EnsureAutoRefund starts the system refund path after a seller rejects or
// cancels a paid order: payment parks in REFUND_PENDING and the refund is
// born in PROCESSING, no approval step. A no-op when a refund already
// exists or nothing was captured. Runs inside the caller's transaction.
func (s *RefundService) EnsureAutoRefund(ctx context.Context, order *ordering.Order, reason string) error {
	if _, err := s.refunds.FindByOrderID(ctx, order.ID); err == nil {
		return nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	payment, err := s.payments.FindByOrderID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if payment.Status != billing.PaymentStatusSuccess {
		return nil
	}

	if err := payment.MarkRefundPending(); err != nil {
		return err
	}
	if err := s.payments.Save(ctx, payment); err != nil {
		return err
	}

	refund := billing.NewSystemRefund(order.ID, payment.ID, payment.Gateway, reason)
	if err := s.refunds.Create(ctx, refund); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	if err := s.recorder.Record(ctx, order.ID, ordering.EventRefundProcessing, "", "", nil, reason); err != nil {
		return err
	}
	return s.cancelInvoiceIfAny(ctx, order.ID)
}

// EnsureRefundRequested creates the buyer-initiated refund request awaiting
// seller approval. The payment is left untouched until the seller decides.
// A no-op when a refund already exists or nothing was captured.
func (s *RefundService) EnsureRefundRequested(ctx context.Context, order *ordering.Order, reason string) error {
	if _, err := s.refunds.FindByOrderID(ctx, order.ID); err == nil {
		return nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	payment, err := s.payments.FindByOrderID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if payment.Status != billing.PaymentStatusSuccess {
		return nil
	}

	refund := billing.NewRefundRequest(order.ID, payment.ID, payment.Gateway, reason)
	if err := s.refunds.Create(ctx, refund); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	return s.recorder.Record(ctx, order.ID, ordering.EventRefundRequested, "", "", &order.RetailerID, reason)
}

// ApproveRefund lets the manufacturer grant a pending request: the refund
// moves through APPROVED into PROCESSING, the payment parks in
// REFUND_PENDING and the invoice is cancelled. Replays after approval
// return the current state unchanged.
func (s *RefundService) ApproveRefund(ctx context.Context, actor identity.Actor, orderID uuid.UUID, note string) (*RefundResult, error) {
	if !actor.CanFulfillOrders() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "only manufacturers can approve refunds")
	}

	var result *RefundResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.findOwnedOrder(ctx, orderID, actor.UserID); err != nil {
			return err
		}

		refund, err := s.findRefund(ctx, orderID)
		if err != nil {
			return err
		}
		if refund.Status == billing.RefundStatusProcessing || refund.Status == billing.RefundStatusProcessed {
			result = toRefundResult(refund)
			return nil
		}

		if err := refund.Approve(note); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, orderID, ordering.EventRefundApproved, "", "", &actor.UserID, note); err != nil {
			return err
		}

		payment, err := s.payments.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if payment.Status == billing.PaymentStatusSuccess {
			if err := payment.MarkRefundPending(); err != nil {
				return err
			}
			if err := s.payments.Save(ctx, payment); err != nil {
				return err
			}
		}

		if err := refund.StartProcessing(); err != nil {
			return err
		}
		if err := s.refunds.Save(ctx, refund); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, orderID, ordering.EventRefundProcessing, "", "", &actor.UserID, "Refund approved and processing"); err != nil {
			return err
		}
		if err := s.cancelInvoiceIfAny(ctx, orderID); err != nil {
			return err
		}

		result = toRefundResult(refund)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("refund approved",
		zap.String("order_id", orderID.String()),
		zap.String("manufacturer_id", actor.UserID.String()),
	)
	return result, nil
}

// RejectRefund terminally declines a pending request. The payment is left
// as captured; declining a refund keeps the charge.
func (s *RefundService) RejectRefund(ctx context.Context, actor identity.Actor, orderID uuid.UUID, note string) (*RefundResult, error) {
	if !actor.CanFulfillOrders() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "only manufacturers can reject refunds")
	}

	var result *RefundResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.findOwnedOrder(ctx, orderID, actor.UserID); err != nil {
			return err
		}

		refund, err := s.findRefund(ctx, orderID)
		if err != nil {
			return err
		}
		if refund.Status == billing.RefundStatusRejected {
			result = toRefundResult(refund)
			return nil
		}

		if err := refund.Reject(note); err != nil {
			return err
		}
		if err := s.refunds.Save(ctx, refund); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, orderID, ordering.EventRefundRejected, "", "", &actor.UserID, note); err != nil {
			return err
		}

		result = toRefundResult(refund)
		return nil
	})
	return result, err
}

// GetRefund returns the order's refund to one of its participants
func (s *RefundService) GetRefund(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*RefundResult, error) {
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
	refund, err := s.findRefund(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toRefundResult(refund), nil
}

func (s *RefundService) cancelInvoiceIfAny(ctx context.Context, orderID uuid.UUID) error {
	invoice, err := s.invoices.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	invoice.Cancel()
	return s.invoices.Save(ctx, invoice)
}

func (s *RefundService) findOwnedOrder(ctx context.Context, orderID, manufacturerID uuid.UUID) (*ordering.Order, error) {
	order, err := s.orders.FindOwnedByManufacturer(ctx, orderID, manufacturerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "order not found")
		}
		return nil, err
	}
	return order, nil
}

func (s *RefundService) findRefund(ctx context.Context, orderID uuid.UUID) (*billing.Refund, error) {
	refund, err := s.refunds.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("REFUND_NOT_FOUND", "no refund exists for this order")
		}
		return nil, err
	}
	return refund, nil
}

var _ appordering.RefundTrigger = (*RefundService)(nil)
