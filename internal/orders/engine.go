// Package orders places and cancels orders against live product stock.
//
// The underlying store has no multi-statement transactions. Each operation
// is a sequence of single-row writes; stock is changed only with
// compare-and-set updates, and a failure part way through undoes the writes
// already made before the error is returned.
package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prudhivi99/retail-orders/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultStockRetries = 3

type CustomerLookup interface {
	GetByID(ctx context.Context, id int) (*models.Customer, error)
}

type ProductStore interface {
	GetByID(ctx context.Context, id int) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []int) ([]models.Product, error)
	CompareAndSetStock(ctx context.Context, id, expected, next int) (bool, error)
}

type OrderStore interface {
	Insert(ctx context.Context, order models.Order) error
	FindByRef(ctx context.Context, ref string) (*models.Order, error)
	Delete(ctx context.Context, id int) error
	DeleteByRef(ctx context.Context, ref string) error
	GetByID(ctx context.Context, id int) (*models.Order, error)
	Items(ctx context.Context, orderID int) ([]models.OrderItem, error)
	InsertItem(ctx context.Context, item models.OrderItem) error
	DeleteItem(ctx context.Context, orderID, productID int) error
	CompareAndSetStatus(ctx context.Context, id int, from, to models.OrderStatus) (bool, error)
}

// EventPublisher announces completed operations. Publish failures are
// logged and do not fail the operation.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order *models.OrderDetail) error
	PublishOrderCancelled(ctx context.Context, order *models.OrderDetail) error
}

type ItemRequest struct {
	ProductID int
	Quantity  int
}

type Engine struct {
	customers    CustomerLookup
	products     ProductStore
	orders       OrderStore
	publisher    EventPublisher
	log          zerolog.Logger
	stockRetries int
	now          func() time.Time
	newRef       func() string
}

type Option func(*Engine)

func WithPublisher(p EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithStockRetries bounds how often a stock update is retried after
// another writer changed the same product.
func WithStockRetries(n int) Option {
	return func(e *Engine) { e.stockRetries = n }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(customers CustomerLookup, products ProductStore, orders OrderStore, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		customers:    customers,
		products:     products,
		orders:       orders,
		log:          log.With().Str("component", "orders").Logger(),
		stockRetries: defaultStockRetries,
		now:          time.Now,
		newRef:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func validateItems(items []ItemRequest) error {
	if len(items) == 0 {
		return &InvalidRequestError{Reason: "order must contain at least one item"}
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return &InvalidRequestError{Reason: fmt.Sprintf("quantity for product %d must be positive", item.ProductID)}
		}
	}
	return nil
}

// CreateOrder validates the customer, the products and their stock, then
// writes the order, its items and the stock decrements. Nothing is written
// when validation fails.
func (e *Engine) CreateOrder(ctx context.Context, customerID int, items []ItemRequest) (*models.OrderDetail, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	customer, err := e.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, &ReferenceNotFoundError{Entity: EntityCustomer, IDs: []int{customerID}}
	}

	var ids []int
	demand := make(map[int]int, len(items))
	for _, item := range items {
		if _, seen := demand[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		demand[item.ProductID] += item.Quantity
	}

	found, err := e.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	products := make(map[int]models.Product, len(found))
	for _, p := range found {
		products[p.ID] = p
	}
	if len(products) < len(ids) {
		var missing []int
		for _, id := range ids {
			if _, ok := products[id]; !ok {
				missing = append(missing, id)
			}
		}
		sort.Ints(missing)
		return nil, &ReferenceNotFoundError{Entity: EntityProduct, IDs: missing}
	}

	total := decimal.Zero
	for _, item := range items {
		p := products[item.ProductID]
		if p.Stock < demand[p.ID] {
			return nil, &InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: demand[p.ID], Available: p.Stock}
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	ref := e.newRef()
	orderDate := e.now().UTC().Truncate(time.Microsecond)
	log := e.log.With().Int("cust_id", customerID).Str("order_ref", ref).Logger()
	seq := newSequence(log)

	// order is set once the inserted row has been read back; until then
	// the row is only known by ref.
	var order *models.Order
	err = seq.run(ctx, step{
		name: "insert order",
		execute: func(ctx context.Context) error {
			return e.orders.Insert(ctx, models.Order{
				Ref:         ref,
				CustomerID:  customerID,
				OrderDate:   orderDate,
				Status:      models.StatusPlaced,
				TotalAmount: total,
			})
		},
		compensate: func(ctx context.Context) error {
			if order != nil {
				return e.orders.Delete(ctx, order.ID)
			}
			return e.orders.DeleteByRef(ctx, ref)
		},
	})
	if err != nil {
		return nil, seq.rollback(ctx, err)
	}

	order, err = e.orders.FindByRef(ctx, ref)
	if err == nil && order == nil {
		err = fmt.Errorf("inserted order %s for customer %d not found", ref, customerID)
	}
	if err != nil {
		order = nil
		return nil, seq.rollback(ctx, err)
	}

	stock := make(map[int]int, len(products))
	for id, p := range products {
		stock[id] = p.Stock
	}

	written := make([]models.OrderItem, 0, len(items))
	for _, req := range items {
		p := products[req.ProductID]
		item := models.OrderItem{OrderID: order.ID, ProductID: p.ID, Quantity: req.Quantity, Price: p.Price}

		err := seq.run(ctx, step{
			name: fmt.Sprintf("insert item %d", p.ID),
			execute: func(ctx context.Context) error {
				return e.orders.InsertItem(ctx, item)
			},
			compensate: func(ctx context.Context) error {
				return e.orders.DeleteItem(ctx, order.ID, p.ID)
			},
		})
		if err == nil {
			err = seq.run(ctx, step{
				name: fmt.Sprintf("reserve stock %d", p.ID),
				execute: func(ctx context.Context) error {
					next, err := e.adjustStock(ctx, p, stock[p.ID], -item.Quantity)
					if err != nil {
						return err
					}
					stock[p.ID] = next
					return nil
				},
				compensate: func(ctx context.Context) error {
					next, err := e.adjustStock(ctx, p, stock[p.ID], item.Quantity)
					if err != nil {
						return err
					}
					stock[p.ID] = next
					return nil
				},
			})
		}
		if err != nil {
			return nil, seq.rollback(ctx, err)
		}
		written = append(written, item)
	}

	detail := &models.OrderDetail{Order: *order, Customer: customer, Items: written}
	log.Info().Int("order_id", order.ID).Str("total", order.TotalAmount.StringFixed(2)).Msg("order placed")

	if e.publisher != nil {
		if err := e.publisher.PublishOrderPlaced(ctx, detail); err != nil {
			log.Warn().Err(err).Int("order_id", order.ID).Msg("failed to publish order placed")
		}
	}
	return detail, nil
}

// GetOrderDetails returns nil when no order has the id.
func (e *Engine) GetOrderDetails(ctx context.Context, orderID int) (*models.OrderDetail, error) {
	order, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}

	customer, err := e.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}

	items, err := e.orders.Items(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &models.OrderDetail{Order: *order, Customer: customer, Items: items}, nil
}

// CancelOrder moves a PLACED order to CANCELLED and gives each item's
// quantity back to its product. Cancelling twice fails with ErrInvalidState.
func (e *Engine) CancelOrder(ctx context.Context, orderID int) (*models.OrderDetail, error) {
	order, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Entity: EntityOrder, ID: orderID}
	}
	if order.Status != models.StatusPlaced {
		return nil, &InvalidStateError{OrderID: orderID, Status: order.Status}
	}

	items, err := e.orders.Items(ctx, orderID)
	if err != nil {
		return nil, err
	}

	log := e.log.With().Int("order_id", orderID).Logger()
	seq := newSequence(log)

	// Claiming the order first means a concurrent cancel cannot restore
	// the same stock twice.
	err = seq.run(ctx, step{
		name: "mark cancelled",
		execute: func(ctx context.Context) error {
			ok, err := e.orders.CompareAndSetStatus(ctx, orderID, models.StatusPlaced, models.StatusCancelled)
			if err != nil {
				return err
			}
			if !ok {
				return e.lostClaim(ctx, orderID)
			}
			return nil
		},
		compensate: func(ctx context.Context) error {
			_, err := e.orders.CompareAndSetStatus(ctx, orderID, models.StatusCancelled, models.StatusPlaced)
			return err
		},
	})
	if err != nil {
		return nil, seq.rollback(ctx, err)
	}

	for _, item := range items {
		item := item
		var restored *models.Product

		err := seq.run(ctx, step{
			name: fmt.Sprintf("restore stock %d", item.ProductID),
			execute: func(ctx context.Context) error {
				p, err := e.products.GetByID(ctx, item.ProductID)
				if err != nil {
					return err
				}
				if p == nil {
					log.Warn().Int("prod_id", item.ProductID).Msg("product gone, stock not restored")
					return nil
				}
				if _, err := e.adjustStock(ctx, *p, p.Stock, item.Quantity); err != nil {
					return err
				}
				restored = p
				return nil
			},
			compensate: func(ctx context.Context) error {
				if restored == nil {
					return nil
				}
				p, err := e.products.GetByID(ctx, restored.ID)
				if err != nil {
					return err
				}
				if p == nil {
					return nil
				}
				_, err = e.adjustStock(ctx, *p, p.Stock, -item.Quantity)
				return err
			},
		})
		if err != nil {
			return nil, seq.rollback(ctx, err)
		}
	}

	log.Info().Int("items", len(items)).Msg("order cancelled")

	detail, err := e.GetOrderDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, &NotFoundError{Entity: EntityOrder, ID: orderID}
	}

	if e.publisher != nil {
		if err := e.publisher.PublishOrderCancelled(ctx, detail); err != nil {
			log.Warn().Err(err).Msg("failed to publish order cancelled")
		}
	}
	return detail, nil
}

// lostClaim reports why the conditional status update matched no row,
// using the order as it is now.
func (e *Engine) lostClaim(ctx context.Context, orderID int) error {
	current, err := e.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if current == nil {
		return &NotFoundError{Entity: EntityOrder, ID: orderID}
	}
	return &InvalidStateError{OrderID: orderID, Status: current.Status}
}

// adjustStock adds delta to the product's stock, starting from the last
// observed value. When another writer got there first the product is
// re-read and the update retried. Stock never goes below zero.
func (e *Engine) adjustStock(ctx context.Context, p models.Product, observed, delta int) (int, error) {
	current := observed
	for attempt := 0; ; attempt++ {
		next := current + delta
		if next < 0 {
			return 0, &InsufficientStockError{ProductID: p.ID, Name: p.Name, Requested: -delta, Available: current}
		}

		ok, err := e.products.CompareAndSetStock(ctx, p.ID, current, next)
		if err != nil {
			return 0, err
		}
		if ok {
			return next, nil
		}
		if attempt >= e.stockRetries {
			return 0, fmt.Errorf("product %d: %w", p.ID, ErrStockConflict)
		}

		fresh, err := e.products.GetByID(ctx, p.ID)
		if err != nil {
			return 0, err
		}
		if fresh == nil {
			return 0, &ReferenceNotFoundError{Entity: EntityProduct, IDs: []int{p.ID}}
		}
		e.log.Debug().Int("prod_id", p.ID).Int("expected", current).Int("actual", fresh.Stock).Msg("stock changed, retrying")
		current = fresh.Stock
	}
}
