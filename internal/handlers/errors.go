package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prudhivi99/retail-orders/internal/db"
	"github.com/prudhivi99/retail-orders/internal/orders"
	"github.com/prudhivi99/retail-orders/internal/service"
)

// statusFor maps a service failure to an HTTP status. Anything unknown is
// a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, db.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrInvalidState),
		errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, orders.ErrStockConflict),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrCustomerHasOrders):
		return http.StatusConflict
	case errors.Is(err, orders.ErrReferenceNotFound),
		errors.Is(err, orders.ErrInvalidRequest),
		errors.Is(err, service.ErrNothingToUpdate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func idParam(c *gin.Context, what string) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return 0, false
	}
	return id, true
}
