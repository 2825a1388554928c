package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prudhivi99/retail-orders/internal/models"
)

type CustomerFacade interface {
	AddCustomer(ctx context.Context, req models.CreateCustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, id int) (*models.Customer, error)
	ListCustomers(ctx context.Context, limit int, city string) ([]models.Customer, error)
	UpdateCustomer(ctx context.Context, id int, phone, city string) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int) (*models.Customer, error)
}

type CustomerHandler struct {
	customers CustomerFacade
}

func NewCustomerHandler(customers CustomerFacade) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req models.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.customers.AddCustomer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

// ListCustomers accepts ?limit= and ?city=
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	list, err := h.customers.ListCustomers(c.Request.Context(), limit, c.Query("city"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := idParam(c, "customer")
	if !ok {
		return
	}

	customer, err := h.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "customer")
	if !ok {
		return
	}

	var req models.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := h.customers.UpdateCustomer(c.Request.Context(), id, req.Phone, req.City)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := idParam(c, "customer")
	if !ok {
		return
	}

	customer, err := h.customers.DeleteCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) Register(r gin.IRouter) {
	r.POST("/customers", h.CreateCustomer)
	r.GET("/customers", h.ListCustomers)
	r.GET("/customers/:id", h.GetCustomer)
	r.PATCH("/customers/:id", h.UpdateCustomer)
	r.DELETE("/customers/:id", h.DeleteCustomer)
}
