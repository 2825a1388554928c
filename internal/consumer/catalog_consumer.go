package consumer

import (
	"context"
	"encoding/json"

	"github.com/prudhivi99/retail-orders/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Invalidator drops cached catalog entries for the given products.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...int)
}

// orderEvent holds the fields shared by order.placed and order.cancelled.
type orderEvent struct {
	EventID string                  `json:"event_id"`
	OrderID int                     `json:"order_id"`
	Items   []models.OrderItemEvent `json:"items"`
}

// CatalogConsumer keeps the catalog cache in step with stock changes made
// by the order service.
type CatalogConsumer struct {
	cache Invalidator
	log   zerolog.Logger
}

func NewCatalogConsumer(cache Invalidator, log zerolog.Logger) *CatalogConsumer {
	return &CatalogConsumer{
		cache: cache,
		log:   log.With().Str("component", "catalog_consumer").Logger(),
	}
}

// Process handles deliveries until the channel closes or ctx is done.
func (c *CatalogConsumer) Process(ctx context.Context, messages <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				c.log.Info().Msg("delivery channel closed")
				return
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *CatalogConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	var event orderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.log.Error().Err(err).Str("queue", msg.RoutingKey).Msg("failed to parse event")
		// bad messages are not requeued
		if err := msg.Nack(false, false); err != nil {
			c.log.Error().Err(err).Msg("nack failed")
		}
		return
	}

	ids := make([]int, 0, len(event.Items))
	for _, item := range event.Items {
		ids = append(ids, item.ProductID)
	}
	c.cache.Invalidate(ctx, ids...)

	c.log.Info().
		Str("queue", msg.RoutingKey).
		Str("event_id", event.EventID).
		Int("order_id", event.OrderID).
		Ints("products", ids).
		Msg("catalog cache invalidated")

	if err := msg.Ack(false); err != nil {
		c.log.Error().Err(err).Msg("ack failed")
	}
}
