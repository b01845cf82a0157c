package cart

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

const (
	defaultQueueSize   = 64
	defaultStepTimeout = 10 * time.Second
)

// Engine owns the cart of one storefront session.
//
// All mutations and identity transitions run one at a time on a single
// goroutine in submission order, so every step observes the result of the
// previous one. Reads return the last published View and never block.
//
// Writes to the guest store are fire-and-forget. Remote writes are awaited:
// add updates memory first (optimistic) while remove and updateQty only
// update memory after the remote write succeeded (pessimistic). clear waits
// for the remote delete and empties memory whatever its outcome.
type Engine struct {
	sessionID string
	local     cart.LocalStore
	remote    cart.RemoteStore
	publisher shared.EventPublisher
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time

	queueSize   int
	stepTimeout time.Duration

	steps     chan step
	quit      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	started   atomic.Bool
	closed    atomic.Bool

	watcher *IdentityWatcher

	// owned by the loop goroutine
	authority cart.Authority
	snapshot  cart.Snapshot

	view atomic.Pointer[cart.View]
}

type step struct {
	ctx  context.Context
	name string
	run  func(ctx context.Context) error
	done chan error
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithMetrics sets the metrics recorder
func WithMetrics(m Metrics) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithEventPublisher sets the publisher for cart events
func WithEventPublisher(p shared.EventPublisher) EngineOption {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithClock overrides the time source used for event timestamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithQueueSize sets the capacity of the pending step queue
func WithQueueSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// WithStepTimeout bounds the store calls made by a single step
func WithStepTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.stepTimeout = d
		}
	}
}

// NewEngine creates the cart engine of a session. Call Start before use.
func NewEngine(
	sessionID string,
	local cart.LocalStore,
	remote cart.RemoteStore,
	identities identity.Provider,
	logger *zap.Logger,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		sessionID:   sessionID,
		local:       local,
		remote:      remote,
		metrics:     noopMetrics{},
		logger:      logger.With(zap.String("session_id", sessionID)),
		now:         time.Now,
		queueSize:   defaultQueueSize,
		stepTimeout: defaultStepTimeout,
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.steps = make(chan step, e.queueSize)
	e.watcher = NewIdentityWatcher(identities, sessionID)
	e.publish(cart.EmptySnapshot(), cart.Authority{})
	return e
}

// SessionID returns the session the engine belongs to
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Start runs the step loop and applies the session's current identity.
// It returns once the initial load (and merge, for a signed-in session)
// has completed.
func (e *Engine) Start(ctx context.Context) error {
	var err error
	e.startOnce.Do(func() {
		e.started.Store(true)
		go e.loop()
		err = e.watcher.Start(ctx, e.applyIdentity)
	})
	return err
}

// Close unsubscribes from identity changes and stops the step loop.
// A step that is running when Close is called finishes its store call but
// its result is not applied.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		e.watcher.Stop()
		close(e.quit)
	})
	if e.started.Load() {
		<-e.stopped
	}
}

// View returns the latest consistent view of the cart
func (e *Engine) View() cart.View {
	return *e.view.Load()
}

// Identity returns the identity last reported for the session
func (e *Engine) Identity() identity.Identity {
	return e.watcher.Current()
}

// Add puts qty units of item in the cart. Adding a product already in the
// cart increments its line.
func (e *Engine) Add(ctx context.Context, item cart.Item, qty int) (cart.View, error) {
	if qty < 1 {
		return e.View(), ErrInvalidQuantity
	}
	if err := item.Validate(); err != nil {
		return e.View(), err
	}
	err := e.submit(ctx, OpAdd, func(ctx context.Context) error {
		return e.add(ctx, item, qty)
	})
	return e.View(), err
}

// RemoveItem deletes a line. Unknown line ids are ignored.
func (e *Engine) RemoveItem(ctx context.Context, lineID string) (cart.View, error) {
	err := e.submit(ctx, OpRemove, func(ctx context.Context) error {
		return e.removeItem(ctx, lineID)
	})
	return e.View(), err
}

// UpdateQty sets a line's quantity. A quantity of zero or less removes the line.
func (e *Engine) UpdateQty(ctx context.Context, lineID string, qty int) (cart.View, error) {
	err := e.submit(ctx, OpUpdateQty, func(ctx context.Context) error {
		if qty <= 0 {
			return e.removeItem(ctx, lineID)
		}
		return e.updateQty(ctx, lineID, qty)
	})
	return e.View(), err
}

// Clear empties the cart
func (e *Engine) Clear(ctx context.Context) (cart.View, error) {
	err := e.submit(ctx, OpClear, func(ctx context.Context) error {
		return e.clear(ctx)
	})
	return e.View(), err
}

// Sync waits until every step queued before it has run and returns the
// resulting view. It does not touch the stores.
func (e *Engine) Sync(ctx context.Context) (cart.View, error) {
	err := e.submit(ctx, "sync", func(context.Context) error {
		if !e.authority.IsInitialized() {
			return ErrCartNotReady
		}
		return nil
	})
	return e.View(), err
}

// Refresh reloads a signed-in cart from the remote store. A failed load
// keeps the current lines. A guest cart is served from memory, which stays
// authoritative for the session even when the guest store lost a write.
func (e *Engine) Refresh(ctx context.Context) (cart.View, error) {
	err := e.submit(ctx, OpLoad, func(ctx context.Context) error {
		return e.reload(ctx)
	})
	return e.View(), err
}

func (e *Engine) applyIdentity(ctx context.Context, id identity.Identity) error {
	return e.submit(ctx, "identity", func(ctx context.Context) error {
		return e.transition(ctx, id)
	})
}

// submit queues fn and waits for it to run. Once queued, a step runs to
// completion even if ctx is cancelled.
func (e *Engine) submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if e.closed.Load() {
		return ErrSessionClosed
	}
	if !e.started.Load() {
		return ErrCartNotReady
	}
	s := step{ctx: ctx, name: name, run: fn, done: make(chan error, 1)}
	select {
	case e.steps <- s:
	case <-e.quit:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-s.done:
		return err
	case <-e.stopped:
		select {
		case err := <-s.done:
			return err
		default:
			return ErrSessionClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) loop() {
	defer close(e.stopped)
	for {
		select {
		case <-e.quit:
			return
		case s := <-e.steps:
			s.done <- e.runStep(s)
		}
	}
}

func (e *Engine) runStep(s step) (err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), e.stepTimeout)
	defer cancel()
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", s.name,
		telemetry.WithAttribute("session_id", e.sessionID),
	)
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("cart step panicked",
				zap.String("step", s.name),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err = fmt.Errorf("cart step %s panicked: %v", s.name, r)
		}
		telemetry.RecordError(span, err)
		span.End()
	}()
	return s.run(ctx)
}

// ---- steps, run on the loop goroutine ----

func (e *Engine) add(ctx context.Context, item cart.Item, qty int) error {
	if !e.authority.IsInitialized() {
		return ErrCartNotReady
	}
	next, line := e.snapshot.WithAdded(item, qty)
	if !e.commit(next) {
		return ErrSessionClosed
	}

	if userID, ok := e.authority.UserID(); ok {
		if err := e.remote.UpsertLine(ctx, userID, line); err != nil {
			e.remoteWriteFailed(ctx, OpAdd, err, zap.String("product_ref", line.ProductRef))
		}
	} else {
		e.local.Save(ctx, e.sessionID, next)
	}

	e.metrics.RecordMutation(ctx, OpAdd, e.authority.Kind())
	e.emit(ctx, cart.NewItemAdded(e.sessionID, item, qty, e.now()))
	return nil
}

func (e *Engine) removeItem(ctx context.Context, lineID string) error {
	if !e.authority.IsInitialized() {
		return ErrCartNotReady
	}
	line, ok := e.snapshot.FindByLine(lineID)
	if !ok {
		e.logger.Debug("remove of unknown cart line ignored", zap.String("line_id", lineID))
		return nil
	}
	next := e.snapshot.WithoutLine(lineID)

	if userID, ok := e.authority.UserID(); ok {
		if err := e.remote.DeleteLine(ctx, userID, line); err != nil {
			e.remoteWriteFailed(ctx, OpRemove, err, zap.String("line_id", lineID))
			return nil
		}
		if !e.commit(next) {
			return ErrSessionClosed
		}
	} else {
		if !e.commit(next) {
			return ErrSessionClosed
		}
		e.local.Save(ctx, e.sessionID, next)
	}

	e.metrics.RecordMutation(ctx, OpRemove, e.authority.Kind())
	return nil
}

func (e *Engine) updateQty(ctx context.Context, lineID string, qty int) error {
	if !e.authority.IsInitialized() {
		return ErrCartNotReady
	}
	line, ok := e.snapshot.FindByLine(lineID)
	if !ok {
		e.logger.Debug("quantity update of unknown cart line ignored", zap.String("line_id", lineID))
		return nil
	}
	next := e.snapshot.WithQuantity(lineID, qty)

	if userID, ok := e.authority.UserID(); ok {
		if err := e.remote.UpdateQuantity(ctx, userID, line, qty); err != nil {
			e.remoteWriteFailed(ctx, OpUpdateQty, err, zap.String("line_id", lineID), zap.Int("quantity", qty))
			return nil
		}
		if !e.commit(next) {
			return ErrSessionClosed
		}
	} else {
		if !e.commit(next) {
			return ErrSessionClosed
		}
		e.local.Save(ctx, e.sessionID, next)
	}

	e.metrics.RecordMutation(ctx, OpUpdateQty, e.authority.Kind())
	return nil
}

func (e *Engine) clear(ctx context.Context) error {
	if !e.authority.IsInitialized() {
		return ErrCartNotReady
	}
	if userID, ok := e.authority.UserID(); ok {
		if err := e.remote.DeleteAll(ctx, userID); err != nil {
			e.remoteWriteFailed(ctx, OpClear, err)
		}
		if !e.commit(cart.EmptySnapshot()) {
			return ErrSessionClosed
		}
	} else {
		if !e.commit(cart.EmptySnapshot()) {
			return ErrSessionClosed
		}
		e.local.Clear(ctx, e.sessionID)
	}

	e.metrics.RecordMutation(ctx, OpClear, e.authority.Kind())
	return nil
}

func (e *Engine) reload(ctx context.Context) error {
	if !e.authority.IsInitialized() {
		return ErrCartNotReady
	}
	if userID, ok := e.authority.UserID(); ok {
		return e.enterRemote(ctx, userID, false)
	}
	if !e.commit(e.snapshot) {
		return ErrSessionClosed
	}
	return nil
}

// transition moves the cart to the authority matching id.
func (e *Engine) transition(ctx context.Context, id identity.Identity) error {
	if !id.Authenticated || id.UserID == "" {
		if e.authority.Kind() == cart.AuthorityLocal {
			return nil
		}
		e.logger.Info("cart authority changed", zap.Stringer("from", e.authority), zap.String("to", "local"))
		return e.enterLocal(ctx)
	}

	target := cart.RemoteAuthority(id.UserID)
	if e.authority.Equal(target) {
		return nil
	}
	// Switching between two signed-in users does not carry anything over:
	// the guest store was already emptied by the first sign-in.
	merge := !e.authority.IsRemote()
	e.logger.Info("cart authority changed",
		zap.Stringer("from", e.authority),
		zap.Stringer("to", target),
		zap.Bool("merge_guest_cart", merge),
	)
	return e.enterRemote(ctx, id.UserID, merge)
}

func (e *Engine) enterLocal(ctx context.Context) error {
	snapshot := e.local.Load(ctx, e.sessionID)
	if !e.commitState(cart.LocalAuthority(), snapshot) {
		return ErrSessionClosed
	}
	return nil
}

func (e *Engine) enterRemote(ctx context.Context, userID string, mergeGuest bool) error {
	if mergeGuest {
		e.mergeGuest(ctx, userID)
	}

	target := cart.RemoteAuthority(userID)
	snapshot, err := e.remote.LoadForUser(ctx, userID)
	if err != nil {
		e.logger.Error("failed to load remote cart",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		if !e.authority.Equal(target) {
			snapshot = cart.EmptySnapshot()
		} else {
			snapshot = e.snapshot
		}
	}
	if !e.commitState(target, snapshot) {
		return ErrSessionClosed
	}
	return nil
}

func (e *Engine) mergeGuest(ctx context.Context, userID string) {
	guest := e.local.Load(ctx, e.sessionID)
	if guest.IsEmpty() {
		return
	}
	result := MergeGuestCart(ctx, e.remote, userID, guest, e.logger)
	e.local.Clear(ctx, e.sessionID)

	if result.Dropped > 0 {
		e.logger.Warn("guest cart merged with dropped lines",
			zap.String("user_id", userID),
			zap.Int("merged", result.Merged),
			zap.Int("dropped", result.Dropped),
		)
	} else {
		e.logger.Info("guest cart merged",
			zap.String("user_id", userID),
			zap.Int("merged", result.Merged),
		)
	}
	e.metrics.RecordMerge(ctx, result.Merged, result.Dropped)
	e.emit(ctx, cart.NewGuestCartMerged(e.sessionID, userID, result.Merged, result.Dropped, e.now()))
}

// commit replaces the in-memory snapshot unless the engine was closed.
func (e *Engine) commit(next cart.Snapshot) bool {
	return e.commitState(e.authority, next)
}

func (e *Engine) commitState(authority cart.Authority, next cart.Snapshot) bool {
	if e.closed.Load() {
		e.logger.Debug("discarding cart state after close")
		return false
	}
	e.authority = authority
	e.snapshot = next
	e.publish(next, authority)
	return true
}

func (e *Engine) publish(s cart.Snapshot, authority cart.Authority) {
	v := cart.NewView(s, authority)
	e.view.Store(&v)
}

func (e *Engine) remoteWriteFailed(ctx context.Context, op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Stringer("authority", e.authority), zap.Error(err))
	e.logger.Error("remote cart write failed", fields...)
	e.metrics.RecordRemoteWriteFailure(ctx, op)
}

func (e *Engine) emit(ctx context.Context, event shared.DomainEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warn("failed to publish cart event",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}
