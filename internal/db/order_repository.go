package db

import (
	"context"
	"fmt"

	"github.com/prudhivi99/retail-orders/internal/models"
	"github.com/prudhivi99/retail-orders/internal/store"
)

type OrderRepository struct {
	gw store.Gateway
}

func NewOrderRepository(gw store.Gateway) *OrderRepository {
	return &OrderRepository{gw: gw}
}

func decodeOrder(row store.Row) (*models.Order, error) {
	id, err := asInt(row, "order_id")
	if err != nil {
		return nil, err
	}
	custID, err := asInt(row, "cust_id")
	if err != nil {
		return nil, err
	}
	orderDate, err := asTime(row, "order_date")
	if err != nil {
		return nil, err
	}
	total, err := asDecimal(row, "total_amount")
	if err != nil {
		return nil, err
	}
	return &models.Order{
		ID:          id,
		Ref:         asString(row, "order_ref"),
		CustomerID:  custID,
		OrderDate:   orderDate,
		Status:      models.OrderStatus(asString(row, "status")),
		TotalAmount: total,
	}, nil
}

func decodeOrderItem(row store.Row) (*models.OrderItem, error) {
	orderID, err := asInt(row, "order_id")
	if err != nil {
		return nil, err
	}
	prodID, err := asInt(row, "prod_id")
	if err != nil {
		return nil, err
	}
	qty, err := asInt(row, "quantity")
	if err != nil {
		return nil, err
	}
	price, err := asDecimal(row, "price")
	if err != nil {
		return nil, err
	}
	return &models.OrderItem{OrderID: orderID, ProductID: prodID, Quantity: qty, Price: price}, nil
}

// Insert writes the order row. The store does not hand back the generated
// id; use FindByRef with order.Ref to read it.
func (r *OrderRepository) Insert(ctx context.Context, order models.Order) error {
	err := r.gw.Insert(ctx, TableOrders, store.Row{
		"order_ref":    order.Ref,
		"cust_id":      order.CustomerID,
		"order_date":   order.OrderDate,
		"status":       string(order.Status),
		"total_amount": order.TotalAmount,
	})
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// FindByRef returns the order written with ref, or nil.
func (r *OrderRepository) FindByRef(ctx context.Context, ref string) (*models.Order, error) {
	rows, err := r.gw.Select(ctx, TableOrders, store.Query{
		Filters: []store.Filter{store.Eq("order_ref", ref)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted order: %w", err)
	}
	row := first(rows)
	if row == nil {
		return nil, nil
	}
	return decodeOrder(row)
}

// GetByID returns nil when the order does not exist
func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	rows, err := r.gw.Select(ctx, TableOrders, store.Query{
		Filters: []store.Filter{store.Eq("order_id", id)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	row := first(rows)
	if row == nil {
		return nil, nil
	}
	return decodeOrder(row)
}

// ListByCustomer returns the customer's orders, newest first
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int) ([]models.Order, error) {
	rows, err := r.gw.Select(ctx, TableOrders, store.Query{
		Filters: []store.Filter{store.Eq("cust_id", customerID)},
		OrderBy: "order_id",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		o, err := decodeOrder(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (r *OrderRepository) Items(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	rows, err := r.gw.Select(ctx, TableOrderItems, store.Query{
		Filters: []store.Filter{store.Eq("order_id", orderID)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}

	items := make([]models.OrderItem, 0, len(rows))
	for _, row := range rows {
		item, err := decodeOrderItem(row)
		if err != nil {
			return nil, fmt.Errorf("failed to decode order item: %w", err)
		}
		items = append(items, *item)
	}
	return items, nil
}

func (r *OrderRepository) InsertItem(ctx context.Context, item models.OrderItem) error {
	err := r.gw.Insert(ctx, TableOrderItems, store.Row{
		"order_id": item.OrderID,
		"prod_id":  item.ProductID,
		"quantity": item.Quantity,
		"price":    item.Price,
	})
	if err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}
	return nil
}

// DeleteItem removes the line for one product of an order.
func (r *OrderRepository) DeleteItem(ctx context.Context, orderID, productID int) error {
	_, err := r.gw.Delete(ctx, TableOrderItems, store.Eq("order_id", orderID), store.Eq("prod_id", productID))
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.gw.Delete(ctx, TableOrders, store.Eq("order_id", id)); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// DeleteByRef removes the order Insert wrote with ref.
func (r *OrderRepository) DeleteByRef(ctx context.Context, ref string) error {
	if _, err := r.gw.Delete(ctx, TableOrders, store.Eq("order_ref", ref)); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// CompareAndSetStatus moves the order from one status to another and
// reports false if the order was not in status from.
func (r *OrderRepository) CompareAndSetStatus(ctx context.Context, id int, from, to models.OrderStatus) (bool, error) {
	n, err := r.gw.Update(ctx, TableOrders,
		store.Row{"status": string(to)},
		store.Eq("order_id", id), store.Eq("status", string(from)),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	return n > 0, nil
}
