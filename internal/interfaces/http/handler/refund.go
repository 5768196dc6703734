package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbilling "github.com/quickcart/backend/internal/application/billing"
	"github.com/quickcart/backend/internal/domain/identity"
	"github.com/quickcart/backend/internal/interfaces/http/dto"
	"github.com/quickcart/backend/internal/interfaces/http/middleware"
)

// RefundHandler handles refund approval API endpoints
type RefundHandler struct {
	BaseHandler
	refundService *appbilling.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refundService *appbilling.RefundService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

// RefundDecisionRequest carries the seller's note on an approve or reject
type RefundDecisionRequest struct {
	Note string `json:"note" binding:"omitempty,max=500"`
}

// ApproveRefund handles POST /orders/:id/refund/approve
func (h *RefundHandler) ApproveRefund(c *gin.Context) {
	actor, orderID, ok := h.bindOrderID(c)
	if !ok {
		return
	}
	req, ok := h.bindDecision(c)
	if !ok {
		return
	}
	result, err := h.refundService.ApproveRefund(c.Request.Context(), actor, orderID, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RejectRefund handles POST /orders/:id/refund/reject
func (h *RefundHandler) RejectRefund(c *gin.Context) {
	actor, orderID, ok := h.bindOrderID(c)
	if !ok {
		return
	}
	req, ok := h.bindDecision(c)
	if !ok {
		return
	}
	result, err := h.refundService.RejectRefund(c.Request.Context(), actor, orderID, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetRefund handles GET /orders/:id/refund
func (h *RefundHandler) GetRefund(c *gin.Context) {
	actor, orderID, ok := h.bindOrderID(c)
	if !ok {
		return
	}
	result, err := h.refundService.GetRefund(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *RefundHandler) bindOrderID(c *gin.Context) (actor identity.Actor, orderID uuid.UUID, ok bool) {
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

func (h *RefundHandler) bindDecision(c *gin.Context) (RefundDecisionRequest, bool) {
	var req RefundDecisionRequest
	if c.Request.ContentLength == 0 {
		return req, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return req, false
	}
	return req, true
}
