package cart

import (
	"context"
	"sync"

	"github.com/storefront/backend/internal/domain/identity"
)

// IdentityWatcher forwards a session's identity to a callback: once on
// Start with the current identity, then on every change until Stop.
type IdentityWatcher struct {
	provider  identity.Provider
	sessionID string

	// mu orders deliveries so the initial identity is never applied after a
	// change reported while Start was running.
	mu          sync.Mutex
	unsubscribe func()
	stopped     bool

	currentMu sync.RWMutex
	current   identity.Identity
}

// NewIdentityWatcher creates a watcher for a session
func NewIdentityWatcher(provider identity.Provider, sessionID string) *IdentityWatcher {
	return &IdentityWatcher{
		provider:  provider,
		sessionID: sessionID,
	}
}

// Start subscribes to changes and delivers the current identity.
func (w *IdentityWatcher) Start(ctx context.Context, onChange func(ctx context.Context, id identity.Identity) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrSessionClosed
	}

	w.unsubscribe = w.provider.Subscribe(w.sessionID, func(ctx context.Context, id identity.Identity) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.stopped {
			return
		}
		w.setCurrent(id)
		_ = onChange(ctx, id)
	})

	id := w.provider.Current(ctx, w.sessionID)
	w.setCurrent(id)
	return onChange(ctx, id)
}

// Current returns the last identity delivered
func (w *IdentityWatcher) Current() identity.Identity {
	w.currentMu.RLock()
	defer w.currentMu.RUnlock()
	return w.current
}

func (w *IdentityWatcher) setCurrent(id identity.Identity) {
	w.currentMu.Lock()
	w.current = id
	w.currentMu.Unlock()
}

// Stop removes the subscription. No callback runs after Stop returns.
func (w *IdentityWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
}
