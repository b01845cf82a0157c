package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
)

var errStoreDown = errors.New("store unavailable")

// memoryLocalStore is a guest store backed by a map
type memoryLocalStore struct {
	mu      sync.Mutex
	entries map[string][]cart.Line
	saves   int
	// dropSaves makes Save lose writes the way a full or unavailable store does
	dropSaves bool
}

func newMemoryLocalStore() *memoryLocalStore {
	return &memoryLocalStore{entries: make(map[string][]cart.Line)}
}

func (s *memoryLocalStore) Load(_ context.Context, sessionID string) cart.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.NewSnapshot(s.entries[sessionID])
}

func (s *memoryLocalStore) Save(_ context.Context, sessionID string, snapshot cart.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.dropSaves {
		return
	}
	s.entries[sessionID] = snapshot.Lines()
}

func (s *memoryLocalStore) Clear(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
}

func (s *memoryLocalStore) put(sessionID string, lines ...cart.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = lines
}

func (s *memoryLocalStore) lines(sessionID string) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[sessionID]
}

// memoryRemoteStore keeps user carts in memory and can be told to fail
type memoryRemoteStore struct {
	mu     sync.Mutex
	carts  map[string][]cart.Line
	fail   map[string]error
	failOn func(op string, line cart.Line) error
	delay  time.Duration
}

func newMemoryRemoteStore() *memoryRemoteStore {
	return &memoryRemoteStore{
		carts: make(map[string][]cart.Line),
		fail:  make(map[string]error),
	}
}

func (s *memoryRemoteStore) failWith(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *memoryRemoteStore) check(op string, line cart.Line) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err := s.fail[op]; err != nil {
		return err
	}
	if s.failOn != nil {
		return s.failOn(op, line)
	}
	return nil
}

func (s *memoryRemoteStore) LoadForUser(_ context.Context, userID string) (cart.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(OpLoad, cart.Line{}); err != nil {
		return cart.Snapshot{}, err
	}
	rows := s.carts[userID]
	out := make([]cart.Line, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
	}
	return cart.NewSnapshot(out), nil
}

func (s *memoryRemoteStore) UpsertLine(_ context.Context, userID string, line cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("upsert", line); err != nil {
		return err
	}
	rows := s.carts[userID]
	for i := range rows {
		if rows[i].ProductRef == line.ProductRef {
			id := rows[i].LineID
			rows[i] = line
			rows[i].LineID = id
			return nil
		}
	}
	s.carts[userID] = append(rows, line)
	return nil
}

func (s *memoryRemoteStore) UpdateQuantity(_ context.Context, userID string, line cart.Line, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("update", line); err != nil {
		return err
	}
	rows := s.carts[userID]
	for i := range rows {
		if rows[i].LineID == line.LineID {
			rows[i].Quantity = qty
		}
	}
	return nil
}

func (s *memoryRemoteStore) DeleteLine(_ context.Context, userID string, line cart.Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("delete", line); err != nil {
		return err
	}
	rows := s.carts[userID]
	out := rows[:0]
	for _, r := range rows {
		if r.LineID != line.LineID {
			out = append(out, r)
		}
	}
	s.carts[userID] = out
	return nil
}

func (s *memoryRemoteStore) DeleteAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("delete_all", cart.Line{}); err != nil {
		return err
	}
	delete(s.carts, userID)
	return nil
}

func (s *memoryRemoteStore) put(userID string, lines ...cart.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = append(s.carts[userID], lines...)
}

func (s *memoryRemoteStore) lines(userID string) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]cart.Line, len(s.carts[userID]))
	copy(out, s.carts[userID])
	return out
}

// stubIdentityProvider is a minimal identity.Provider for one or more sessions
type stubIdentityProvider struct {
	mu        sync.Mutex
	current   map[string]identity.Identity
	listeners map[string]map[int]identity.Listener
	nextID    int
}

func newStubIdentityProvider() *stubIdentityProvider {
	return &stubIdentityProvider{
		current:   make(map[string]identity.Identity),
		listeners: make(map[string]map[int]identity.Listener),
	}
}

func (p *stubIdentityProvider) Current(_ context.Context, sessionID string) identity.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current[sessionID]
}

func (p *stubIdentityProvider) Subscribe(sessionID string, fn identity.Listener) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	if p.listeners[sessionID] == nil {
		p.listeners[sessionID] = make(map[int]identity.Listener)
	}
	p.listeners[sessionID][id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners[sessionID], id)
	}
}

func (p *stubIdentityProvider) set(ctx context.Context, sessionID string, id identity.Identity) {
	p.mu.Lock()
	p.current[sessionID] = id
	listeners := make([]identity.Listener, 0, len(p.listeners[sessionID]))
	for _, l := range p.listeners[sessionID] {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()
	for _, l := range listeners {
		l(ctx, id)
	}
}

func (p *stubIdentityProvider) subscribers(sessionID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners[sessionID])
}

// MockMetrics records engine measurements
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordMutation(ctx context.Context, op string, authority cart.AuthorityKind) {
	m.Called(ctx, op, authority)
}

func (m *MockMetrics) RecordRemoteWriteFailure(ctx context.Context, op string) {
	m.Called(ctx, op)
}

func (m *MockMetrics) RecordMerge(ctx context.Context, merged, dropped int) {
	m.Called(ctx, merged, dropped)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
