// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/services"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), buyerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyOrderCreated),
		"order":   order,
	})
}

// GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), buyerID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, orders)
}

// GET /orders/extended
func (h *OrderHandler) GetOrdersExtended(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrdersExtended(c.Request.Context(), buyerID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, orders)
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, buyerID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /orders/:id/pay
func (h *OrderHandler) PayOrder(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.PayOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	confirmation, err := h.orderService.Pay(c.Request.Context(), orderID, buyerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	confirmation.Message = i18n.T(utils.GetLangFromContext(c), i18n.KeyPaymentSuccess)
	utils.SuccessResponse(c, confirmation)
}
