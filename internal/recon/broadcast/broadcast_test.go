package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shiftline/shiftline-backend/internal/recon/store"
	"github.com/shiftline/shiftline-backend/pkg/logger"
	"github.com/shiftline/shiftline-backend/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is an in-memory kvStore shared between "contexts"
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

// collector accumulates received notifications
type collector struct {
	mu       sync.Mutex
	received []*Notification
}

func (c *collector) handler(_ context.Context, n *Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, n)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func (c *collector) last() *Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.received) == 0 {
		return nil
	}
	return c.received[len(c.received)-1]
}

func note(source string) *Notification {
	return &Notification{
		ID:        uuid.New().String(),
		Type:      messaging.EventSnapshotUpdated,
		Data:      json.RawMessage(`{"employees":1,"records":2}`),
		Timestamp: time.Now().UTC(),
		Source:    source,
	}
}

func TestMarkerChannel_DeliversAcrossContexts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := newFakeKV()
	writer := NewMarkerChannel(kv, 10*time.Millisecond, logger.Nop())
	reader := NewMarkerChannel(kv, 10*time.Millisecond, logger.Nop())

	var got collector
	reader.Subscribe(got.handler)
	require.NoError(t, reader.Start(ctx))
	defer reader.Close()

	n := note("ctx-writer")
	require.NoError(t, writer.Publish(ctx, n))

	assert.Eventually(t, func() bool { return got.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, n.ID, got.last().ID)
	assert.Equal(t, "ctx-writer", got.last().Source)
}

func TestMarkerChannel_WriterDoesNotEchoItself(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := newFakeKV()
	ch := NewMarkerChannel(kv, 10*time.Millisecond, logger.Nop())

	var got collector
	ch.Subscribe(got.handler)
	require.NoError(t, ch.Start(ctx))
	defer ch.Close()

	require.NoError(t, ch.Publish(ctx, note("self")))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, got.count())
}

func TestMarkerChannel_RepeatedWritesEachRegister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := newFakeKV()
	writer := NewMarkerChannel(kv, 10*time.Millisecond, logger.Nop())
	reader := NewMarkerChannel(kv, 10*time.Millisecond, logger.Nop())

	var got collector
	reader.Subscribe(got.handler)
	require.NoError(t, reader.Start(ctx))
	defer reader.Close()

	// identical payloads, fresh IDs: both must register
	require.NoError(t, writer.Publish(ctx, note("w")))
	assert.Eventually(t, func() bool { return got.count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, writer.Publish(ctx, note("w")))
	assert.Eventually(t, func() bool { return got.count() == 2 }, time.Second, 10*time.Millisecond)
}

func TestMarkerChannel_StaleNotificationNotReplayed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv := newFakeKV()
	stale := note("older-context")
	raw, _ := json.Marshal(stale)
	require.NoError(t, kv.Set(ctx, store.NotifyKey, string(raw)))

	ch := NewMarkerChannel(kv, 10*time.Millisecond, logger.Nop())
	var got collector
	ch.Subscribe(got.handler)
	require.NoError(t, ch.Start(ctx))
	defer ch.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, got.count())
}

// stubChannel is an in-process Channel for composite tests
type stubChannel struct {
	mu        sync.Mutex
	published []*Notification
	handlers  []Handler
	failPub   bool
}

func (s *stubChannel) Publish(_ context.Context, n *Notification) error {
	if s.failPub {
		return assert.AnError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, n)
	return nil
}

func (s *stubChannel) Subscribe(h Handler) {
	s.handlers = append(s.handlers, h)
}

func (s *stubChannel) Start(context.Context) error { return nil }
func (s *stubChannel) Close() error                { return nil }

func (s *stubChannel) deliver(ctx context.Context, n *Notification) {
	for _, h := range s.handlers {
		h(ctx, n)
	}
}

func TestBroadcaster_PublishesOnAllChannels(t *testing.T) {
	primary := &stubChannel{}
	fallback := &stubChannel{}
	b := New("inst-1", logger.Nop(), primary, fallback)

	b.Notify(context.Background(), messaging.EventSnapshotUpdated, map[string]int{"employees": 3})

	require.Len(t, primary.published, 1)
	require.Len(t, fallback.published, 1)
	assert.Equal(t, primary.published[0].ID, fallback.published[0].ID)
	assert.Equal(t, "inst-1", primary.published[0].Source)
}

func TestBroadcaster_FallbackStillPublishesWhenPrimaryFails(t *testing.T) {
	primary := &stubChannel{failPub: true}
	fallback := &stubChannel{}
	b := New("inst-1", logger.Nop(), primary, fallback)

	b.Notify(context.Background(), messaging.EventSnapshotUpdated, nil)

	require.Len(t, fallback.published, 1)
}

func TestBroadcaster_DropsOwnNotifications(t *testing.T) {
	ch := &stubChannel{}
	b := New("inst-1", logger.Nop(), ch)

	var got collector
	b.Subscribe(got.handler)

	ch.deliver(context.Background(), note("inst-1"))
	assert.Zero(t, got.count())

	ch.deliver(context.Background(), note("inst-2"))
	assert.Equal(t, 1, got.count())
}

func TestBroadcaster_DeduplicatesAcrossChannels(t *testing.T) {
	primary := &stubChannel{}
	fallback := &stubChannel{}
	b := New("inst-1", logger.Nop(), primary, fallback)

	var got collector
	b.Subscribe(got.handler)

	// the same notification arrives on both transports
	n := note("inst-2")
	primary.deliver(context.Background(), n)
	fallback.deliver(context.Background(), n)

	assert.Equal(t, 1, got.count())
}
