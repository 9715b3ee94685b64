package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shiftline/shiftline-backend/pkg/logger"
)

// recentCap bounds the duplicate-suppression window. Transports are
// at-least-once and unordered, so the same notification can arrive on
// both channels.
const recentCap = 256

// Broadcaster fans one notification out to every configured channel
// and fans received notifications in to local subscribers, dropping
// self-published and already-seen notifications.
type Broadcaster struct {
	source   string
	channels []Channel
	logger   *logger.Logger

	mu        sync.Mutex
	handlers  []Handler
	recent    map[string]struct{}
	recentLog []string
}

// New creates a broadcaster. source is this instance's identity; its
// own notifications are never delivered back to local subscribers.
func New(source string, log *logger.Logger, channels ...Channel) *Broadcaster {
	b := &Broadcaster{
		source:   source,
		channels: channels,
		logger:   log.WithComponent("broadcaster"),
		recent:   make(map[string]struct{}, recentCap),
	}

	for _, ch := range channels {
		ch.Subscribe(b.receive)
	}
	return b
}

// Notify publishes a notification on every channel. Individual channel
// failures are advisory; the notification is considered sent when at
// least one channel accepted it.
func (b *Broadcaster) Notify(ctx context.Context, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		b.logger.Error().Err(err).Str("type", eventType).Msg("failed to marshal notification data")
		return
	}

	n := &Notification{
		ID:        uuid.New().String(),
		Type:      eventType,
		Data:      payload,
		Timestamp: time.Now().UTC(),
		Source:    b.source,
	}

	// our own notification is pre-marked seen so a loopback delivery
	// from any transport is dropped
	b.markSeen(n.ID)

	delivered := 0
	for _, ch := range b.channels {
		if err := ch.Publish(ctx, n); err != nil {
			b.logger.Warn().Err(err).Str("type", eventType).Msg("channel publish failed")
			continue
		}
		delivered++
	}

	if delivered == 0 && len(b.channels) > 0 {
		b.logger.Error().Str("type", eventType).Msg("notification not delivered on any channel")
	}
}

// Subscribe registers a local handler for notifications from other
// contexts.
func (b *Broadcaster) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Start starts every channel
func (b *Broadcaster) Start(ctx context.Context) error {
	for _, ch := range b.channels {
		if err := ch.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every channel
func (b *Broadcaster) Close() error {
	var firstErr error
	for _, ch := range b.channels {
		if err := ch.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *Broadcaster) receive(ctx context.Context, n *Notification) {
	if n.Source == b.source {
		return
	}
	if b.seen(n.ID) {
		return
	}
	b.markSeen(n.ID)

	b.logger.Debug().
		Str("type", n.Type).
		Str("from", n.Source).
		Msg("notification received")

	b.mu.Lock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		h(ctx, n)
	}
}

func (b *Broadcaster) seen(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.recent[id]
	return ok
}

func (b *Broadcaster) markSeen(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.recentLog) >= recentCap {
		oldest := b.recentLog[0]
		b.recentLog = b.recentLog[1:]
		delete(b.recent, oldest)
	}
	b.recent[id] = struct{}{}
	b.recentLog = append(b.recentLog, id)
}
