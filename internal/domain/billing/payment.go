package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quickcart/backend/internal/domain/shared"
)

// PaymentStatus tracks a payment from initiation through the refund chain
type PaymentStatus string

const (
	PaymentStatusInitiated     PaymentStatus = "INITIATED"
	PaymentStatusSuccess       PaymentStatus = "SUCCESS"
	PaymentStatusFailed        PaymentStatus = "FAILED"
	PaymentStatusRefundPending PaymentStatus = "REFUND_PENDING"
	PaymentStatusRefundFailed  PaymentStatus = "REFUND_FAILED"
	PaymentStatusRefunded      PaymentStatus = "REFUNDED"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusInitiated, PaymentStatusSuccess, PaymentStatusFailed,
		PaymentStatusRefundPending, PaymentStatusRefundFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// Payment records the money side of an order. The order_id column carries a
// unique constraint: at most one payment row ever exists per order, and the
// constraint is what makes concurrent checkout idempotent.
type Payment struct {
	shared.BaseEntity
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_payments_order" json:"order_id"`
	RetailerID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"retailer_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status           PaymentStatus   `gorm:"size:20;not null;default:'INITIATED'" json:"status"`
	Gateway          string          `gorm:"size:32;not null" json:"gateway"`
	GatewayOrderID   *string         `gorm:"size:128" json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string         `gorm:"size:128" json:"gateway_payment_id,omitempty"`
	Reference        string          `gorm:"size:64;not null" json:"reference"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates an INITIATED payment tied to the gateway order
func NewPayment(orderID, retailerID uuid.UUID, amount decimal.Decimal, gateway, gatewayOrderID string) *Payment {
	return &Payment{
		BaseEntity:     shared.NewBaseEntity(&retailerID),
		OrderID:        orderID,
		RetailerID:     retailerID,
		Amount:         amount,
		Status:         PaymentStatusInitiated,
		Gateway:        gateway,
		GatewayOrderID: &gatewayOrderID,
		Reference:      fmt.Sprintf("pay_%s", uuid.New().String()),
	}
}

// MarkSuccess records a verified capture. SUCCESS is reachable only through
// signature verification.
func (p *Payment) MarkSuccess(gatewayPaymentID string) error {
	if p.Status == PaymentStatusSuccess {
		return nil
	}
	if p.Status != PaymentStatusInitiated && p.Status != PaymentStatusFailed {
		return shared.NewDomainErrorf("INVALID_PAYMENT_STATE",
			"cannot mark payment %s as success from %s", p.ID, p.Status)
	}
	p.Status = PaymentStatusSuccess
	p.GatewayPaymentID = &gatewayPaymentID
	p.Audit.Touch(nil)
	return nil
}

// MarkFailed records a failed signature verification
func (p *Payment) MarkFailed() {
	p.Status = PaymentStatusFailed
	p.Audit.Touch(nil)
}

// MarkRefundPending parks a captured payment while its refund is in flight
func (p *Payment) MarkRefundPending() error {
	if p.Status == PaymentStatusRefundPending {
		return nil
	}
	if p.Status != PaymentStatusSuccess && p.Status != PaymentStatusRefundFailed {
		return shared.NewDomainErrorf("INVALID_PAYMENT_STATE",
			"cannot move payment %s to refund-pending from %s", p.ID, p.Status)
	}
	p.Status = PaymentStatusRefundPending
	p.Audit.Touch(nil)
	return nil
}

// MarkRefundFailed records a gateway refund failure; the refund itself stays
// in processing for the next settlement pass.
func (p *Payment) MarkRefundFailed() {
	p.Status = PaymentStatusRefundFailed
	p.Audit.Touch(nil)
}

// MarkRefunded settles the payment terminally
func (p *Payment) MarkRefunded() error {
	if p.Status == PaymentStatusRefunded {
		return nil
	}
	if p.Status != PaymentStatusRefundPending && p.Status != PaymentStatusSuccess {
		return shared.NewDomainErrorf("INVALID_PAYMENT_STATE",
			"cannot mark payment %s as refunded from %s", p.ID, p.Status)
	}
	p.Status = PaymentStatusRefunded
	p.Audit.Touch(nil)
	return nil
}
