package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prudhivi99/retail-orders/internal/messaging"
	"github.com/prudhivi99/retail-orders/internal/models"
)

const (
	OrderPlacedQueue    = "order.placed"
	OrderCancelledQueue = "order.cancelled"
)

type OrderPublisher struct {
	mq  messaging.Broker
	now func() time.Time
}

func NewOrderPublisher(mq messaging.Broker) (*OrderPublisher, error) {
	for _, q := range []string{OrderPlacedQueue, OrderCancelledQueue} {
		if err := mq.DeclareQueue(q); err != nil {
			return nil, err
		}
	}

	return &OrderPublisher{mq: mq, now: time.Now}, nil
}

func itemEvents(items []models.OrderItem) []models.OrderItemEvent {
	events := make([]models.OrderItemEvent, 0, len(items))
	for _, item := range items {
		events = append(events, models.OrderItemEvent{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return events
}

// PublishOrderPlaced publishes an order.placed event
func (p *OrderPublisher) PublishOrderPlaced(ctx context.Context, order *models.OrderDetail) error {
	event := models.OrderPlacedEvent{
		EventID:     uuid.NewString(),
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
		Items:       itemEvents(order.Items),
		OccurredAt:  p.now().UTC(),
	}
	return p.publish(ctx, OrderPlacedQueue, event)
}

// PublishOrderCancelled publishes an order.cancelled event
func (p *OrderPublisher) PublishOrderCancelled(ctx context.Context, order *models.OrderDetail) error {
	event := models.OrderCancelledEvent{
		EventID:    uuid.NewString(),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Items:      itemEvents(order.Items),
		OccurredAt: p.now().UTC(),
	}
	return p.publish(ctx, OrderCancelledQueue, event)
}

func (p *OrderPublisher) publish(ctx context.Context, queue string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.mq.Publish(ctx, queue, data)
}
