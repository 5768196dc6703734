package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appordering "github.com/quickcart/backend/internal/application/ordering"
	"github.com/quickcart/backend/internal/domain/billing"
	"github.com/quickcart/backend/internal/domain/identity"
	"github.com/quickcart/backend/internal/domain/ordering"
	"github.com/quickcart/backend/internal/domain/shared"
)

const verifyReplayTTL = 24 * time.Hour

// PaymentService owns the two-phase payment flow: create a gateway order,
// then verify the checkout callback. The unique constraint on
// payments.order_id plus the catch-and-reread fallback make both phases
// idempotent under concurrency.
type PaymentService struct {
	orders   ordering.OrderRepository
	payments billing.PaymentRepository
	invoices billing.InvoiceRepository
	recorder *appordering.AuditRecorder
	gateway  billing.PaymentGateway
	replay   shared.ReplayGuard
	tx       shared.TxManager
	currency string
	logger   *zap.Logger
}

// NewPaymentService creates a payment service. replay may be nil; it is a
// fast-path guard only, the database constraints remain authoritative.
func NewPaymentService(
	orders ordering.OrderRepository,
	payments billing.PaymentRepository,
	invoices billing.InvoiceRepository,
	recorder *appordering.AuditRecorder,
	gateway billing.PaymentGateway,
	replay shared.ReplayGuard,
	tx shared.TxManager,
	currency string,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		orders:   orders,
		payments: payments,
		invoices: invoices,
		recorder: recorder,
		gateway:  gateway,
		replay:   replay,
		tx:       tx,
		currency: currency,
		logger:   logger,
	}
}

// PaymentResult is the service-level view of a payment
type PaymentResult struct {
	ID               uuid.UUID             `json:"id"`
	OrderID          uuid.UUID             `json:"order_id"`
	Amount           string                `json:"amount"`
	Status           billing.PaymentStatus `json:"status"`
	Gateway          string                `json:"gateway"`
	GatewayOrderID   *string               `json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string               `json:"gateway_payment_id,omitempty"`
	Reference        string                `json:"reference"`
	CreatedAt        time.Time             `json:"created_at"`
}

func toPaymentResult(p *billing.Payment) *PaymentResult {
	return &PaymentResult{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Amount:           p.Amount.StringFixed(2),
		Status:           p.Status,
		Gateway:          p.Gateway,
		GatewayOrderID:   p.GatewayOrderID,
		GatewayPaymentID: p.GatewayPaymentID,
		Reference:        p.Reference,
		CreatedAt:        p.Audit.CreatedAt,
	}
}

// InvoiceResult is the service-level view of an invoice
type InvoiceResult struct {
	ID        uuid.UUID             `json:"id"`
	OrderID   uuid.UUID             `json:"order_id"`
	Number    string                `json:"number"`
	Amount    string                `json:"amount"`
	Status    billing.InvoiceStatus `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
}

func toInvoiceResult(inv *billing.Invoice) *InvoiceResult {
	return &InvoiceResult{
		ID:        inv.ID,
		OrderID:   inv.OrderID,
		Number:    inv.Number,
		Amount:    inv.Amount.StringFixed(2),
		Status:    inv.Status,
		CreatedAt: inv.Audit.CreatedAt,
	}
}

// VerifyPaymentInput carries the checkout callback fields
type VerifyPaymentInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// CreateGatewayOrder creates the provider-side order to check out against
// and persists the INITIATED payment row. Replays return the existing row
// unchanged; a concurrent loser reads the winner's row instead of failing.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*PaymentResult, error) {
	var result *PaymentResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.findBuyerOrder(ctx, orderID, actor)
		if err != nil {
			return err
		}

		existing, err := s.payments.FindByOrderID(ctx, orderID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			if existing.Status == billing.PaymentStatusSuccess {
				if err := s.ensureConfirmedAndInvoiced(ctx, order); err != nil {
					return err
				}
				result = toPaymentResult(existing)
				return nil
			}
			if existing.GatewayOrderID != nil {
				result = toPaymentResult(existing)
				return nil
			}
		}

		if order.Status != ordering.OrderStatusCreated {
			return shared.NewDomainErrorf("INVALID_ORDER_STATUS",
				"payment can only be created for an order in CREATED status, got %s", order.Status)
		}

		receipt := fmt.Sprintf("rcpt_%s", orderID)
		gatewayOrder, err := s.gateway.CreateOrder(ctx, order.TotalAmount, s.currency, receipt)
		if err != nil {
			return fmt.Errorf("create gateway order: %w", err)
		}

		payment := billing.NewPayment(orderID, order.RetailerID, order.TotalAmount, s.gateway.Name(), gatewayOrder.ID)
		if err := s.payments.Create(ctx, payment); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				// Lost the insert race: the winner's row is the payment.
				winner, readErr := s.payments.FindByOrderID(ctx, orderID)
				if readErr != nil {
					return readErr
				}
				result = toPaymentResult(winner)
				return nil
			}
			return err
		}

		note := fmt.Sprintf("Payment initiated via %s, gateway order %s", payment.Gateway, gatewayOrder.ID)
		if err := s.recorder.Record(ctx, orderID, ordering.EventPaymentCreated, "", "", &actor.UserID, note); err != nil {
			return err
		}

		result = toPaymentResult(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("gateway payment order ready",
		zap.String("order_id", orderID.String()),
		zap.String("payment_status", result.Status.String()),
	)
	return result, nil
}

// VerifyPayment checks the checkout callback signature. Success is the only
// path that sets a payment to SUCCESS; it then confirms the order and
// issues the invoice, both idempotently.
func (s *PaymentService) VerifyPayment(ctx context.Context, actor identity.Actor, orderID uuid.UUID, input VerifyPaymentInput) (*PaymentResult, error) {
	var result *PaymentResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.findBuyerOrder(ctx, orderID, actor)
		if err != nil {
			return err
		}

		payment, err := s.payments.FindByOrderID(ctx, orderID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("PAYMENT_NOT_FOUND", "no payment exists for this order")
			}
			return err
		}

		if payment.Status == billing.PaymentStatusSuccess {
			if err := s.ensureConfirmedAndInvoiced(ctx, order); err != nil {
				return err
			}
			result = toPaymentResult(payment)
			return nil
		}

		if payment.GatewayOrderID == nil || *payment.GatewayOrderID != input.GatewayOrderID {
			return shared.NewDomainError("INVALID_PAYMENT_SIGNATURE", "gateway order id does not match")
		}

		if err := s.gateway.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature); err != nil {
			payment.MarkFailed()
			if saveErr := s.payments.Save(ctx, payment); saveErr != nil {
				return saveErr
			}
			return shared.NewDomainError("INVALID_PAYMENT_SIGNATURE", "payment signature verification failed")
		}

		if err := payment.MarkSuccess(input.GatewayPaymentID); err != nil {
			return err
		}
		if err := s.payments.Save(ctx, payment); err != nil {
			return err
		}
		if err := s.ensureConfirmedAndInvoiced(ctx, order); err != nil {
			return err
		}

		result = toPaymentResult(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markVerified(ctx, input)

	s.logger.Info("payment verified",
		zap.String("order_id", orderID.String()),
		zap.String("gateway_payment_id", input.GatewayPaymentID),
	)
	return result, nil
}

// GetPayment returns the order's payment to one of its participants
func (s *PaymentService) GetPayment(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*PaymentResult, error) {
	if err := s.requireParticipant(ctx, orderID, actor); err != nil {
		return nil, err
	}
	payment, err := s.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PAYMENT_NOT_FOUND", "no payment exists for this order")
		}
		return nil, err
	}
	return toPaymentResult(payment), nil
}

// GetInvoice returns the order's invoice to one of its participants
func (s *PaymentService) GetInvoice(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*InvoiceResult, error) {
	if err := s.requireParticipant(ctx, orderID, actor); err != nil {
		return nil, err
	}
	invoice, err := s.invoices.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INVOICE_NOT_FOUND", "no invoice exists for this order")
		}
		return nil, err
	}
	return toInvoiceResult(invoice), nil
}

// ensureConfirmedAndInvoiced makes the post-payment invariants hold: the
// order is CONFIRMED and exactly one invoice exists. Both steps survive
// concurrent retries.
func (s *PaymentService) ensureConfirmedAndInvoiced(ctx context.Context, order *ordering.Order) error {
	if order.Status == ordering.OrderStatusCreated {
		if err := order.Confirm(); err != nil {
			return err
		}
		if err := s.orders.SaveWithLock(ctx, order, order.Version); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, order.ID, ordering.EventStatusChanged,
			ordering.OrderStatusCreated, ordering.OrderStatusConfirmed, nil, "Order confirmed by payment"); err != nil {
			return err
		}
	}

	_, err := s.invoices.FindByOrderID(ctx, order.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	invoice := billing.NewInvoice(order.ID, order.TotalAmount)
	if err := s.invoices.Create(ctx, invoice); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// A concurrent verify won the insert; the invariant holds.
			return nil
		}
		return err
	}
	note := fmt.Sprintf("Invoice %s generated for %s", invoice.Number, invoice.Amount.StringFixed(2))
	return s.recorder.Record(ctx, order.ID, ordering.EventInvoiceGenerated, "", "", nil, note)
}

func (s *PaymentService) findBuyerOrder(ctx context.Context, orderID uuid.UUID, actor identity.Actor) (*ordering.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ORDER_NOT_FOUND", "order not found")
		}
		return nil, err
	}
	if order.RetailerID != actor.UserID {
		return nil, shared.NewDomainError("UNAUTHORIZED", "only the order's retailer can pay for it")
	}
	return order, nil
}

func (s *PaymentService) requireParticipant(ctx context.Context, orderID uuid.UUID, actor identity.Actor) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("ORDER_NOT_FOUND", "order not found")
		}
		return err
	}
	if !order.IsParticipant(actor.UserID) {
		return shared.NewDomainError("UNAUTHORIZED", "not a participant of this order")
	}
	return nil
}

func (s *PaymentService) markVerified(ctx context.Context, input VerifyPaymentInput) {
	if s.replay == nil {
		return
	}
	key := fmt.Sprintf("payment:verify:%s:%s", input.GatewayOrderID, input.GatewayPaymentID)
	if _, err := s.replay.MarkProcessed(ctx, key, verifyReplayTTL); err != nil {
		s.logger.Warn("failed to record verification replay marker", zap.Error(err))
	}
}
