package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPlaced    OrderStatus = "PLACED"
	StatusCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID int `json:"order_id"`
	// Ref is generated by the writer and identifies the row before its
	// order_id is known.
	Ref         string          `json:"order_ref"`
	CustomerID  int             `json:"cust_id"`
	OrderDate   time.Time       `json:"order_date"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// OrderItem is written once with its order and never changed. Price is the
// product's unit price when the order was placed.
type OrderItem struct {
	OrderID   int             `json:"order_id"`
	ProductID int             `json:"prod_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Subtotal is price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderDetail is an order joined with its customer and items. Customer is
// nil if the customer row has since been removed.
type OrderDetail struct {
	Order
	Customer *Customer  `json:"customer"`
	Items    []OrderItem `json:"items"`
}

type CreateOrderRequest struct {
	CustomerID int                      `json:"cust_id" binding:"required"`
	Items      []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

type CreateOrderItemRequest struct {
	ProductID int `json:"prod_id" binding:"required"`
	Quantity  int `json:"quantity" binding:"required,gt=0"`
}
