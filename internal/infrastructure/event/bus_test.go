package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/storefront/backend/internal/domain/shared"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType, sessionID string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Cart", sessionID, time.Now()),
	}
}

type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	added := newTestHandler("CartItemAdded")
	merged := newTestHandler("GuestCartMerged")
	bus.Subscribe(added)
	bus.Subscribe(merged)

	event := newTestEvent("CartItemAdded", "sess-1")
	require.NoError(t, bus.Publish(context.Background(), event))

	assert.Equal(t, 1, added.count())
	assert.Same(t, event, added.handled[0])
	assert.Zero(t, merged.count())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler("CartItemAdded")
	bus.Subscribe(h, "GuestCartMerged")

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("CartItemAdded", "s"),
		newTestEvent("GuestCartMerged", "s"),
	))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := newTestHandler()
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("CartItemAdded", "s"),
		newTestEvent("GuestCartMerged", "s"),
	))
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("CartItemAdded")
	failing.err = errors.New("toast slot busy")
	panicking := newTestHandler("CartItemAdded")
	panicking.panicWith = "boom"
	healthy := newTestHandler("CartItemAdded")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("CartItemAdded", "s")))

	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 1, recorded.FilterMessage("handler panicked").Len())
	assert.Equal(t, 2, recorded.FilterMessage("handler failed to process event").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler("CartItemAdded")
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("CartItemAdded", "s")))
	assert.Zero(t, h.count())
}

func TestInMemoryEventBus_StopRejectsPublish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler("CartItemAdded")
	bus.Subscribe(h)
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))

	assert.ErrorIs(t, bus.Publish(ctx, newTestEvent("CartItemAdded", "s")), ErrBusStopped)
	assert.Zero(t, h.count())

	require.NoError(t, bus.Start(ctx))
	assert.NoError(t, bus.Publish(ctx, newTestEvent("CartItemAdded", "s")))
	assert.Equal(t, 1, h.count())
}
