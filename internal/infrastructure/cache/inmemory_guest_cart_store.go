package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
)

type guestEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryGuestCartStore keeps guest carts in process memory. Carts are not
// shared between instances, so it suits single-instance deployments and tests.
type InMemoryGuestCartStore struct {
	mu        sync.RWMutex
	entries   map[string]guestEntry
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ cart.LocalStore = (*InMemoryGuestCartStore)(nil)

// NewInMemoryGuestCartStore creates the store and starts its expiry sweep
func NewInMemoryGuestCartStore(ttl time.Duration, logger *zap.Logger) *InMemoryGuestCartStore {
	if ttl <= 0 {
		ttl = defaultGuestTTL
	}
	s := &InMemoryGuestCartStore{
		entries:  make(map[string]guestEntry),
		ttl:      ttl,
		logger:   logger.Named("guest_cart"),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

// Load returns the session's guest cart
func (s *InMemoryGuestCartStore) Load(ctx context.Context, sessionID string) cart.Snapshot {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok || s.now().After(e.expiresAt) {
		return cart.EmptySnapshot()
	}

	snapshot, backfilled, err := decodeGuestCart(e.data)
	if err != nil {
		s.logger.Warn("discarding unreadable guest cart", zap.String("session_id", sessionID), zap.Error(err))
		return cart.EmptySnapshot()
	}
	if backfilled {
		s.Save(ctx, sessionID, snapshot)
	}
	return snapshot
}

// Save replaces the session's guest cart and renews its expiry
func (s *InMemoryGuestCartStore) Save(_ context.Context, sessionID string, snapshot cart.Snapshot) {
	data, err := encodeGuestCart(snapshot)
	if err != nil {
		s.logger.Error("failed to encode guest cart", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	s.put(sessionID, data)
}

// Clear removes the session's guest cart
func (s *InMemoryGuestCartStore) Clear(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
}

func (s *InMemoryGuestCartStore) put(sessionID string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = guestEntry{data: data, expiresAt: s.now().Add(s.ttl)}
}

// Close stops the expiry sweep. Safe to call multiple times.
func (s *InMemoryGuestCartStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored carts
func (s *InMemoryGuestCartStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryGuestCartStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryGuestCartStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}
