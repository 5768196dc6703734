package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appordering "github.com/quickcart/backend/internal/application/ordering"
	"github.com/quickcart/backend/internal/domain/identity"
	"github.com/quickcart/backend/internal/domain/ordering"
	"github.com/quickcart/backend/internal/domain/shared"
	"github.com/quickcart/backend/internal/interfaces/http/dto"
	"github.com/quickcart/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order lifecycle API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *appordering.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *appordering.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PlaceOrderRequest is the request body for placing an order
type PlaceOrderRequest struct {
	AddressID string                  `json:"address_id" binding:"required,uuid"`
	Items     []PlaceOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// PlaceOrderItemRequest is one requested line in a place-order request
type PlaceOrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// RejectOrderRequest carries the seller's rejection reason
type RejectOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// UpdateStatusRequest carries a requested status transition
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,orderstatus"`
}

// CreateShipmentRequest carries shipment details for an accepted order
type CreateShipmentRequest struct {
	Carrier        string `json:"carrier" binding:"required,min=1,max=128"`
	TrackingNumber string `json:"tracking_number" binding:"required,min=1,max=128"`
	TrackingURL    string `json:"tracking_url" binding:"omitempty,url,max=512"`
}

// CancelOrderRequest carries the cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// PlaceOrder handles POST /orders
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	input := appordering.PlaceOrderInput{
		AddressID: uuid.MustParse(req.AddressID),
		Items:     make([]appordering.OrderLineInput, len(req.Items)),
	}
	for i, item := range req.Items {
		input.Items[i] = appordering.OrderLineInput{
			ProductID: uuid.MustParse(item.ProductID),
			Quantity:  item.Quantity,
		}
	}

	result, err := h.orderService.PlaceOrder(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := shared.NewFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.Status != "" {
		filter.Filters["status"] = ordering.OrderStatus(req.Status)
	}

	page, err := h.orderService.ListOrders(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.TotalCount, page.Page, page.PageSize)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	h.withOrder(c, func(actor actorAndID) (any, error) {
		return h.orderService.GetOrder(c.Request.Context(), actor.actor, actor.orderID)
	})
}

// GetOrderEvents handles GET /orders/:id/events
func (h *OrderHandler) GetOrderEvents(c *gin.Context) {
	h.withOrder(c, func(actor actorAndID) (any, error) {
		return h.orderService.GetOrderEvents(c.Request.Context(), actor.actor, actor.orderID)
	})
}

// AcceptOrder handles POST /orders/:id/accept
func (h *OrderHandler) AcceptOrder(c *gin.Context) {
	h.withOrder(c, func(actor actorAndID) (any, error) {
		return h.orderService.AcceptOrder(c.Request.Context(), actor.actor, actor.orderID)
	})
}

// RejectOrder handles POST /orders/:id/reject
func (h *OrderHandler) RejectOrder(c *gin.Context) {
	var req RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.withOrder(c, func(actor actorAndID) (any, error) {
		return h.orderService.RejectOrder(c.Request.Context(), actor.actor, actor.orderID, req.Reason)
	})
}

// UpdateStatus handles PUT /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	target := ordering.OrderStatus(req.Status)
	h.withOrder(c, func(actor actorAndID) (any, error) {
		return h.orderService.UpdateStatus(c.Request.Context(), actor.actor, actor.orderID, target)
	})
}

// CreateShipment handles POST /orders/:id/shipment
func (h *OrderHandler) CreateShipment(c *gin.Context) {
	var req CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	input := appordering.ShipmentInput{
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		TrackingURL:    req.TrackingURL,
	}
	h.withOrder(c, func(actor actorAndID) (any, error) {
		return h.orderService.CreateShipment(c.Request.Context(), actor.actor, actor.orderID, input)
	})
}

// MarkDelivered handles POST /orders/:id/deliver
func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	h.withOrder(c, func(actor actorAndID) (any, error) {
		return h.orderService.MarkDelivered(c.Request.Context(), actor.actor, actor.orderID)
	})
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	h.withOrder(c, func(actor actorAndID) (any, error) {
		return h.orderService.CancelOrder(c.Request.Context(), actor.actor, actor.orderID, req.Reason)
	})
}

type actorAndID struct {
	actor   identity.Actor
	orderID uuid.UUID
}

// withOrder binds the actor and order ID, runs fn and writes the response
func (h *OrderHandler) withOrder(c *gin.Context, fn func(actorAndID) (any, error)) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid order ID")
		return
	}
	orderID := uuid.MustParse(uri.ID)

	result, err := fn(actorAndID{actor: actor, orderID: orderID})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
