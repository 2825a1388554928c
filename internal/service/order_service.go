// Package service is the entry point used by the HTTP handlers. It turns
// every failure into an OrderError or CustomerError carrying a readable
// message, while still unwrapping to the underlying cause.
package service

import (
	"context"
	"errors"

	"github.com/prudhivi99/retail-orders/internal/models"
	"github.com/prudhivi99/retail-orders/internal/orders"
	"github.com/rs/zerolog"
)

// ErrOrderNotFound is the cause of the OrderError returned for unknown ids.
var ErrOrderNotFound = errors.New("order not found")

// OrderError is returned for every failed order operation. Its message is
// the message of the cause.
type OrderError struct {
	Msg string
	Err error
}

func (e *OrderError) Error() string { return e.Msg }

func (e *OrderError) Unwrap() error { return e.Err }

func orderError(err error) error {
	if err == nil {
		return nil
	}
	var oe *OrderError
	if errors.As(err, &oe) {
		return err
	}
	return &OrderError{Msg: err.Error(), Err: err}
}

type OrderEngine interface {
	CreateOrder(ctx context.Context, customerID int, items []orders.ItemRequest) (*models.OrderDetail, error)
	GetOrderDetails(ctx context.Context, orderID int) (*models.OrderDetail, error)
	CancelOrder(ctx context.Context, orderID int) (*models.OrderDetail, error)
}

type OrderHistory interface {
	ListByCustomer(ctx context.Context, customerID int) ([]models.Order, error)
}

type OrderService struct {
	engine  OrderEngine
	history OrderHistory
	log     zerolog.Logger
}

func NewOrderService(engine OrderEngine, history OrderHistory, log zerolog.Logger) *OrderService {
	return &OrderService{
		engine:  engine,
		history: history,
		log:     log.With().Str("component", "order_service").Logger(),
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.OrderDetail, error) {
	items := make([]orders.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, orders.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := s.engine.CreateOrder(ctx, req.CustomerID, items)
	if err != nil {
		s.log.Debug().Err(err).Int("cust_id", req.CustomerID).Msg("create order failed")
		return nil, orderError(err)
	}
	return order, nil
}

// GetOrderDetails fails with ErrOrderNotFound instead of returning nil.
func (s *OrderService) GetOrderDetails(ctx context.Context, orderID int) (*models.OrderDetail, error) {
	order, err := s.engine.GetOrderDetails(ctx, orderID)
	if err != nil {
		return nil, orderError(err)
	}
	if order == nil {
		return nil, orderError(ErrOrderNotFound)
	}
	return order, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, orderID int) (*models.OrderDetail, error) {
	order, err := s.engine.CancelOrder(ctx, orderID)
	if err != nil {
		s.log.Debug().Err(err).Int("order_id", orderID).Msg("cancel order failed")
		return nil, orderError(err)
	}
	return order, nil
}

func (s *OrderService) ListCustomerOrders(ctx context.Context, customerID int) ([]models.Order, error) {
	list, err := s.history.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, orderError(err)
	}
	return list, nil
}
