package orders

import (
	"errors"
	"fmt"

	"github.com/prudhivi99/retail-orders/internal/models"
)

// Sentinels for errors.Is. Every typed error below matches exactly one.
var (
	ErrReferenceNotFound = errors.New("reference not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid order state")
	ErrNotFound          = errors.New("not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrStockConflict     = errors.New("stock changed concurrently")
)

type Entity string

const (
	EntityCustomer Entity = "customer"
	EntityProduct  Entity = "products"
	EntityOrder    Entity = "order"
)

// ReferenceNotFoundError names the customer or products an order refers to
// that do not exist.
type ReferenceNotFoundError struct {
	Entity Entity
	IDs    []int
}

func (e *ReferenceNotFoundError) Error() string {
	if e.Entity == EntityCustomer && len(e.IDs) == 1 {
		return fmt.Sprintf("customer %d does not exist", e.IDs[0])
	}
	return fmt.Sprintf("%s not found: %v", e.Entity, e.IDs)
}

func (e *ReferenceNotFoundError) Is(target error) bool { return target == ErrReferenceNotFound }

type InsufficientStockError struct {
	ProductID int
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %s", e.Name)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type InvalidStateError struct {
	OrderID int
	Status  models.OrderStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("only %s orders can be cancelled, order %d is %s", models.StatusPlaced, e.OrderID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

type NotFoundError struct {
	Entity Entity
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string { return e.Reason }

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }
