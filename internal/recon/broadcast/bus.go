package broadcast

import (
	"context"
	"sync"

	"github.com/shiftline/shiftline-backend/pkg/logger"
	"github.com/shiftline/shiftline-backend/pkg/messaging"
)

// BusChannel carries notifications over the RabbitMQ sync.events
// exchange. Every instance consumes from its own transient queue so
// each context receives every notification.
type BusChannel struct {
	publisher *messaging.Publisher
	consumer  *messaging.Consumer
	logger    *logger.Logger

	mu       sync.RWMutex
	handlers []Handler
}

// NewBusChannel creates a bus-backed notification channel
func NewBusChannel(rmq *messaging.RabbitMQ, instanceID string, log *logger.Logger) (*BusChannel, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeSyncEvents, instanceID, log)
	if err != nil {
		return nil, err
	}

	consumer, err := messaging.NewConsumer(rmq, "sync-service."+instanceID, log)
	if err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(messaging.ExchangeSyncEvents, "sync.#"); err != nil {
		return nil, err
	}

	c := &BusChannel{
		publisher: publisher,
		consumer:  consumer,
		logger:    log.WithComponent("bus-channel"),
	}

	for _, eventType := range []string{
		messaging.EventSnapshotUpdated,
		messaging.EventEmployeeCreated,
		messaging.EventEmployeeUpdated,
		messaging.EventEmployeeDeleted,
		messaging.EventAttendanceRecorded,
	} {
		consumer.RegisterHandler(eventType, c.handleEvent)
	}

	return c, nil
}

// Publish sends the notification to the exchange
func (c *BusChannel) Publish(ctx context.Context, n *Notification) error {
	return c.publisher.PublishEvent(ctx, &messaging.Event{
		ID:        n.ID,
		Type:      n.Type,
		Source:    n.Source,
		Timestamp: n.Timestamp,
		Data:      n.Data,
	})
}

// Subscribe registers a handler for received notifications
func (c *BusChannel) Subscribe(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// Start begins consuming from the instance queue
func (c *BusChannel) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// Close is a no-op; the shared RabbitMQ connection is closed by its owner
func (c *BusChannel) Close() error {
	return nil
}

func (c *BusChannel) handleEvent(ctx context.Context, event *messaging.Event) error {
	n := &Notification{
		ID:        event.ID,
		Type:      event.Type,
		Data:      event.Data,
		Timestamp: event.Timestamp,
		Source:    event.Source,
	}

	c.mu.RLock()
	handlers := make([]Handler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, n)
	}
	return nil
}
