// Package broadcast propagates change notifications to every running
// context of the application. The primary transport is the message
// bus; a shared persistent key acts as fallback when the bus is
// unavailable. Delivery is at-least-once and receivers apply
// notifications idempotently by reloading full state.
package broadcast

import (
	"context"
	"encoding/json"
	"time"
)

// Notification is the message shape carried on every transport
type Notification struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
}

// Handler consumes a notification
type Handler func(ctx context.Context, n *Notification)

// Channel is one notification transport. The orchestrator depends only
// on this interface, never on a concrete transport.
type Channel interface {
	Publish(ctx context.Context, n *Notification) error
	Subscribe(h Handler)
	Start(ctx context.Context) error
	Close() error
}
