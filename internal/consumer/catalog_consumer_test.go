package consumer

import (
	"context"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	calls [][]int
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ids ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, ids)
}

type acks struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *acks) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *acks) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *acks) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestProcessInvalidatesOrderedProducts(t *testing.T) {
	inv := &recordingInvalidator{}
	ack := &acks{}
	c := NewCatalogConsumer(inv, zerolog.Nop())

	messages := make(chan amqp.Delivery, 3)
	messages <- amqp.Delivery{
		Acknowledger: ack, DeliveryTag: 1, RoutingKey: "order.placed",
		Body: []byte(`{"event_id":"e1","order_id":4,"items":[{"prod_id":2,"quantity":1},{"prod_id":9,"quantity":3}]}`),
	}
	messages <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, RoutingKey: "order.cancelled", Body: []byte(`not json`)}
	messages <- amqp.Delivery{
		Acknowledger: ack, DeliveryTag: 3, RoutingKey: "order.cancelled",
		Body: []byte(`{"event_id":"e2","order_id":4,"items":[{"prod_id":2,"quantity":1}]}`),
	}
	close(messages)

	c.Process(context.Background(), messages)

	assert.Equal(t, [][]int{{2, 9}, {2}}, inv.calls)
	assert.Equal(t, []uint64{1, 3}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeue)
}

func TestProcessStopsOnContextCancel(t *testing.T) {
	c := NewCatalogConsumer(&recordingInvalidator{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Process(ctx, make(chan amqp.Delivery))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "Process did not return after cancel")
	}
}
