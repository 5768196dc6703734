package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/quickcart/backend/internal/application/billing"
	"github.com/quickcart/backend/internal/domain/identity"
	"github.com/quickcart/backend/internal/interfaces/http/dto"
	"github.com/quickcart/backend/internal/interfaces/http/middleware"
)

// PaymentHandler handles payment and invoice API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *appbilling.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *appbilling.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// VerifyPaymentRequest carries the checkout callback fields from the client
type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// CreateGatewayOrder handles POST /orders/:id/payment
func (h *PaymentHandler) CreateGatewayOrder(c *gin.Context) {
	actor, orderID, ok := h.bindOrderID(c)
	if !ok {
		return
	}
	result, err := h.paymentService.CreateGatewayOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// VerifyPayment handles POST /orders/:id/payment/verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	actor, orderID, ok := h.bindOrderID(c)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	input := appbilling.VerifyPaymentInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	}
	result, err := h.paymentService.VerifyPayment(c.Request.Context(), actor, orderID, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetPayment handles GET /orders/:id/payment
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	actor, orderID, ok := h.bindOrderID(c)
	if !ok {
		return
	}
	result, err := h.paymentService.GetPayment(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetInvoice handles GET /orders/:id/invoice
func (h *PaymentHandler) GetInvoice(c *gin.Context) {
	actor, orderID, ok := h.bindOrderID(c)
	if !ok {
		return
	}
	result, err := h.paymentService.GetInvoice(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *PaymentHandler) bindOrderID(c *gin.Context) (actor identity.Actor, orderID uuid.UUID, ok bool) {
	a, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return actor, orderID, false
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid order ID")
		return actor, orderID, false
	}
	return a, uuid.MustParse(uri.ID), true
}
