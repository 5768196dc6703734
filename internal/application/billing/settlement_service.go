package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appordering "github.com/quickcart/backend/internal/application/ordering"
	"github.com/quickcart/backend/internal/domain/billing"
	"github.com/quickcart/backend/internal/domain/ordering"
	"github.com/quickcart/backend/internal/domain/shared"
)

// SettlementService completes refunds stuck in PROCESSING past the
// configured threshold. It is the deterministic fallback for the missing
// gateway webhook: every refund eventually reaches a terminal state.
type SettlementService struct {
	refunds   billing.RefundRepository
	payments  billing.PaymentRepository
	recorder  *appordering.AuditRecorder
	gateway   billing.PaymentGateway
	tx        shared.TxManager
	threshold time.Duration
	logger    *zap.Logger
}

// NewSettlementService creates a settlement service
func NewSettlementService(
	refunds billing.RefundRepository,
	payments billing.PaymentRepository,
	recorder *appordering.AuditRecorder,
	gateway billing.PaymentGateway,
	tx shared.TxManager,
	threshold time.Duration,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		refunds:   refunds,
		payments:  payments,
		recorder:  recorder,
		gateway:   gateway,
		tx:        tx,
		threshold: threshold,
		logger:    logger,
	}
}

// SettlementResult summarizes one sweep
type SettlementResult struct {
	Due             int
	Settled         int
	GatewayFailures int
	Skipped         int
}

// SettleDue finds every refund in PROCESSING whose processing-start
// timestamp is older than the threshold and settles it. Each refund is
// settled in its own transaction so one failure does not block the rest;
// a gateway refund failure marks the payment REFUND_FAILED and leaves the
// refund in PROCESSING for the next sweep.
func (s *SettlementService) SettleDue(ctx context.Context) (*SettlementResult, error) {
	cutoff := time.Now().Add(-s.threshold)
	due, err := s.refunds.FindProcessingSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find due refunds: %w", err)
	}

	result := &SettlementResult{Due: len(due)}
	for i := range due {
		refund := due[i]
		outcome, err := s.settleOne(ctx, &refund)
		if err != nil {
			s.logger.Error("refund settlement failed",
				zap.String("refund_id", refund.ID.String()),
				zap.String("order_id", refund.OrderID.String()),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		switch outcome {
		case settled:
			result.Settled++
		case gatewayFailed:
			result.GatewayFailures++
		case skipped:
			result.Skipped++
		}
	}

	if result.Due > 0 {
		s.logger.Info("refund settlement sweep completed",
			zap.Int("due", result.Due),
			zap.Int("settled", result.Settled),
			zap.Int("gateway_failures", result.GatewayFailures),
			zap.Int("skipped", result.Skipped),
		)
	}
	return result, nil
}

type settleOutcome int

const (
	settled settleOutcome = iota
	gatewayFailed
	skipped
)

func (s *SettlementService) settleOne(ctx context.Context, refund *billing.Refund) (settleOutcome, error) {
	outcome := skipped
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		payment, err := s.payments.FindByOrderID(ctx, refund.OrderID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		if payment.Status == billing.PaymentStatusRefunded {
			return nil
		}

		// Try the real gateway refund when a captured payment id is known.
		// A failure is recorded on the payment and retried next sweep.
		if payment.GatewayPaymentID != nil && payment.Status == billing.PaymentStatusRefundPending {
			if _, err := s.gateway.Refund(ctx, *payment.GatewayPaymentID, payment.Amount); err != nil {
				s.logger.Warn("gateway refund call failed",
					zap.String("order_id", refund.OrderID.String()),
					zap.String("gateway_payment_id", *payment.GatewayPaymentID),
					zap.Error(err),
				)
				payment.MarkRefundFailed()
				if saveErr := s.payments.Save(ctx, payment); saveErr != nil {
					return saveErr
				}
				outcome = gatewayFailed
				return nil
			}
		}

		if payment.Status == billing.PaymentStatusRefundPending || payment.Status == billing.PaymentStatusSuccess {
			if err := payment.MarkRefunded(); err != nil {
				return err
			}
			if err := s.payments.Save(ctx, payment); err != nil {
				return err
			}
		}

		if err := refund.Complete(); err != nil {
			return err
		}
		if err := s.refunds.Save(ctx, refund); err != nil {
			return err
		}

		note := fmt.Sprintf("Refund auto-completed after %d minutes in PROCESSING", int(s.threshold.Minutes()))
		if err := s.recorder.Record(ctx, refund.OrderID, ordering.EventRefundProcessed, "", "", nil, note); err != nil {
			return err
		}
		outcome = settled
		return nil
	})
	return outcome, err
}
