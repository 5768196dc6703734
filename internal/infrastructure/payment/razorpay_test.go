package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickcart/backend/internal/domain/shared"
)

func testGateway(t *testing.T, baseURL string) *RazorpayGateway {
	t.Helper()
	gw, err := NewRazorpayGateway(RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "rzp_test_secret",
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return gw
}

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestRazorpayGateway_VerifySignature(t *testing.T) {
	gw := testGateway(t, "")

	t.Run("valid signature", func(t *testing.T) {
		sig := sign("rzp_test_secret", "order_abc", "pay_xyz")
		assert.NoError(t, gw.VerifySignature("order_abc", "pay_xyz", sig))
	})

	t.Run("signature for different payment fails", func(t *testing.T) {
		sig := sign("rzp_test_secret", "order_abc", "pay_other")
		err := gw.VerifySignature("order_abc", "pay_xyz", sig)
		assert.ErrorIs(t, err, shared.ErrInvalidSignature)
	})

	t.Run("signature with wrong secret fails", func(t *testing.T) {
		sig := sign("wrong_secret", "order_abc", "pay_xyz")
		err := gw.VerifySignature("order_abc", "pay_xyz", sig)
		assert.ErrorIs(t, err, shared.ErrInvalidSignature)
	})

	t.Run("empty signature fails", func(t *testing.T) {
		err := gw.VerifySignature("order_abc", "pay_xyz", "")
		assert.ErrorIs(t, err, shared.ErrInvalidSignature)
	})
}

func TestRazorpayGateway_CreateOrder(t *testing.T) {
	t.Run("amount is sent in minor units with basic auth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/orders", r.URL.Path)

			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "rzp_test_key", user)
			assert.Equal(t, "rzp_test_secret", pass)

			var req razorpayOrderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(2500), req.Amount)
			assert.Equal(t, "INR", req.Currency)
			assert.Equal(t, "rcpt_1", req.Receipt)

			json.NewEncoder(w).Encode(razorpayOrderResponse{
				ID: "order_abc", Amount: req.Amount, Currency: req.Currency,
				Receipt: req.Receipt, Status: "created",
			})
		}))
		defer server.Close()

		gw := testGateway(t, server.URL)
		order, err := gw.CreateOrder(context.Background(), decimal.NewFromFloat(25.00), "INR", "rcpt_1")
		require.NoError(t, err)
		assert.Equal(t, "order_abc", order.ID)
		assert.True(t, order.Amount.Equal(decimal.NewFromFloat(25.00)))
		assert.Equal(t, "INR", order.Currency)
	})

	t.Run("gateway error surfaces description", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
		}))
		defer server.Close()

		gw := testGateway(t, server.URL)
		_, err := gw.CreateOrder(context.Background(), decimal.NewFromFloat(0.01), "INR", "rcpt_1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "amount too small")
	})
}

func TestRazorpayGateway_Refund(t *testing.T) {
	t.Run("posts to the payment's refund endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/payments/pay_xyz/refund", r.URL.Path)

			var req map[string]int64
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(2500), req["amount"])

			json.NewEncoder(w).Encode(razorpayRefundResponse{ID: "rfnd_abc", Status: "processed"})
		}))
		defer server.Close()

		gw := testGateway(t, server.URL)
		ref, err := gw.Refund(context.Background(), "pay_xyz", decimal.NewFromFloat(25.00))
		require.NoError(t, err)
		assert.Equal(t, "rfnd_abc", ref)
	})

	t.Run("server failure returns an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		gw := testGateway(t, server.URL)
		_, err := gw.Refund(context.Background(), "pay_xyz", decimal.NewFromFloat(25.00))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestNewRazorpayGateway_RequiresCredentials(t *testing.T) {
	_, err := NewRazorpayGateway(RazorpayConfig{}, zap.NewNop())
	require.Error(t, err)
}
