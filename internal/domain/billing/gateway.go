package billing

import (
	"context"

	"github.com/shopspring/decimal"
)

// GatewayOrder is the provider-side order object created before checkout
type GatewayOrder struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
	Receipt  string
}

// PaymentGateway abstracts the single configured payment provider. The
// engine assumes nothing beyond this port; providers are swapped by wiring
// a different adapter.
type PaymentGateway interface {
	// Name identifies the provider, recorded on payment and refund rows
	Name() string

	// CreateOrder creates a provider-side order to check out against
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error)

	// VerifySignature checks the checkout callback signature. A non-nil
	// error means the payment must be marked failed.
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) error

	// Refund initiates a refund for a captured payment and returns the
	// provider's refund reference.
	Refund(ctx context.Context, gatewayPaymentID string, amount decimal.Decimal) (string, error)
}
