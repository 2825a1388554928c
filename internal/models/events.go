package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is published after an order and all its items are written.
type OrderPlacedEvent struct {
	EventID     string           `json:"event_id"`
	OrderID     int              `json:"order_id"`
	CustomerID  int              `json:"cust_id"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Items       []OrderItemEvent `json:"items"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// OrderCancelledEvent is published after stock for a cancelled order is restored.
type OrderCancelledEvent struct {
	EventID    string           `json:"event_id"`
	OrderID    int              `json:"order_id"`
	CustomerID int              `json:"cust_id"`
	Items      []OrderItemEvent `json:"items"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type OrderItemEvent struct {
	ProductID int `json:"prod_id"`
	Quantity  int `json:"quantity"`
}
