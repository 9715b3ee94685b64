package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shiftline/shiftline-backend/internal/recon/store"
	"github.com/shiftline/shiftline-backend/pkg/logger"
)

// kvStore is the slice of the snapshot store's KV API the marker
// channel needs.
type kvStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// MarkerChannel is the fallback transport: notifications are written
// to a well-known shared key and other contexts observe the key by
// polling. Every notification carries a fresh ID, so repeated writes
// of an identical payload still register as a change — the poller
// keys on the ID, not the payload.
type MarkerChannel struct {
	kv           kvStore
	pollInterval time.Duration
	logger       *logger.Logger
	cancel       context.CancelFunc

	mu       sync.RWMutex
	handlers []Handler
	lastSeen string
}

// NewMarkerChannel creates the shared-key fallback channel
func NewMarkerChannel(kv kvStore, pollInterval time.Duration, log *logger.Logger) *MarkerChannel {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &MarkerChannel{
		kv:           kv,
		pollInterval: pollInterval,
		logger:       log.WithComponent("marker-channel"),
	}
}

// Publish writes the notification to the shared key. The writer's own
// poller skips it by ID, matching storage-event semantics where only
// other contexts are notified.
func (c *MarkerChannel) Publish(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	// mark our own write as seen before it lands so the poller never
	// echoes it back to local handlers
	c.mu.Lock()
	c.lastSeen = n.ID
	c.mu.Unlock()

	return c.kv.Set(ctx, store.NotifyKey, string(payload))
}

// Subscribe registers a handler for received notifications
func (c *MarkerChannel) Subscribe(h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// Start launches the poller. Whatever notification is already on the
// key at startup counts as seen: stale notifications are not replayed.
func (c *MarkerChannel) Start(ctx context.Context) error {
	if raw, found, err := c.kv.Get(ctx, store.NotifyKey); err == nil && found {
		var n Notification
		if json.Unmarshal([]byte(raw), &n) == nil {
			c.mu.Lock()
			c.lastSeen = n.ID
			c.mu.Unlock()
		}
	}

	ctx, c.cancel = context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.logger.Debug().Msg("marker poller stopped")
				return
			case <-ticker.C:
				c.poll(ctx)
			}
		}
	}()

	return nil
}

// Close stops the poller
func (c *MarkerChannel) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *MarkerChannel) poll(ctx context.Context) {
	raw, found, err := c.kv.Get(ctx, store.NotifyKey)
	if err != nil {
		c.logger.Warn().Err(err).Msg("marker poll failed")
		return
	}
	if !found || raw == "" {
		return
	}

	var n Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		c.logger.Warn().Err(err).Msg("marker payload malformed")
		return
	}

	c.mu.Lock()
	if n.ID == c.lastSeen {
		c.mu.Unlock()
		return
	}
	c.lastSeen = n.ID
	handlers := make([]Handler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(ctx, &n)
	}
}
