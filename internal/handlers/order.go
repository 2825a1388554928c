package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prudhivi99/retail-orders/internal/models"
)

type OrderFacade interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.OrderDetail, error)
	GetOrderDetails(ctx context.Context, orderID int) (*models.OrderDetail, error)
	CancelOrder(ctx context.Context, orderID int) (*models.OrderDetail, error)
	ListCustomerOrders(ctx context.Context, customerID int) ([]models.Order, error)
}

type OrderHandler struct {
	orders OrderFacade
}

func NewOrderHandler(orders OrderFacade) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// HealthCheck returns server status
func (h *OrderHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "order-service"})
}

// GetOrder returns a single order with its customer and items
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := idParam(c, "order")
	if !ok {
		return
	}

	order, err := h.orders.GetOrderDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// CreateOrder places a new order against current stock
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// CancelOrder cancels a placed order and restores its stock
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := idParam(c, "order")
	if !ok {
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListCustomerOrders(c *gin.Context) {
	id, ok := idParam(c, "customer")
	if !ok {
		return
	}

	list, err := h.orders.ListCustomerOrders(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *OrderHandler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/orders/:id/cancel", h.CancelOrder)
	r.GET("/customers/:id/orders", h.ListCustomerOrders)
}
