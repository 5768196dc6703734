package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quickcart/backend/internal/domain/billing"
	"github.com/quickcart/backend/internal/domain/shared"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// RazorpayConfig holds the credentials and endpoint for the Razorpay adapter
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// Validate checks the adapter configuration
func (c *RazorpayConfig) Validate() error {
	if c.KeyID == "" || c.KeySecret == "" {
		return fmt.Errorf("razorpay key id and secret are required")
	}
	return nil
}

// RazorpayGateway implements billing.PaymentGateway against the Razorpay
// Orders and Refunds APIs.
type RazorpayGateway struct {
	cfg     RazorpayConfig
	client  *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewRazorpayGateway creates the adapter. The HTTP client carries a bounded
// timeout so a slow provider cannot pin request goroutines.
func NewRazorpayGateway(cfg RazorpayConfig, logger *zap.Logger) (*RazorpayGateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RazorpayGateway{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger.Named("razorpay"),
	}, nil
}

// Name implements billing.PaymentGateway
func (g *RazorpayGateway) Name() string {
	return "razorpay"
}

type razorpayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayRefundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder creates a provider-side order. Razorpay takes amounts in
// minor units (paise).
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*billing.GatewayOrder, error) {
	reqBody := razorpayOrderRequest{
		Amount:   amount.Shift(2).IntPart(),
		Currency: currency,
		Receipt:  receipt,
	}

	var resp razorpayOrderResponse
	if err := g.post(ctx, "/orders", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	g.logger.Info("Gateway order created",
		zap.String("gateway_order_id", resp.ID),
		zap.String("receipt", receipt))

	return &billing.GatewayOrder{
		ID:       resp.ID,
		Amount:   decimal.New(resp.Amount, -2),
		Currency: resp.Currency,
		Receipt:  resp.Receipt,
	}, nil
}

// VerifySignature checks the checkout callback signature: HMAC-SHA256 over
// "<order_id>|<payment_id>" keyed with the API secret, hex encoded.
func (g *RazorpayGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(g.cfg.KeySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return shared.ErrInvalidSignature
	}
	return nil
}

// Refund initiates a full refund for a captured payment
func (g *RazorpayGateway) Refund(ctx context.Context, gatewayPaymentID string, amount decimal.Decimal) (string, error) {
	reqBody := map[string]int64{"amount": amount.Shift(2).IntPart()}

	var resp razorpayRefundResponse
	path := fmt.Sprintf("/payments/%s/refund", gatewayPaymentID)
	if err := g.post(ctx, path, reqBody, &resp); err != nil {
		return "", fmt.Errorf("razorpay refund: %w", err)
	}

	g.logger.Info("Gateway refund initiated",
		zap.String("gateway_payment_id", gatewayPaymentID),
		zap.String("gateway_refund_id", resp.ID))

	return resp.ID, nil
}

func (g *RazorpayGateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var gwErr razorpayErrorResponse
		if json.Unmarshal(respBody, &gwErr) == nil && gwErr.Error.Description != "" {
			return fmt.Errorf("gateway returned %d: %s (%s)",
				resp.StatusCode, gwErr.Error.Description, gwErr.Error.Code)
		}
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ billing.PaymentGateway = (*RazorpayGateway)(nil)
