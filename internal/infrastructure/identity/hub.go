package identity

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
)

// Hub tracks the identity observed for each storefront session and tells
// subscribers when it changes. Deliveries for one session are serialized and
// arrive in the order the identities were observed.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*sessionIdentity
	nextID   uint64
	logger   *zap.Logger
}

type sessionIdentity struct {
	deliverMu sync.Mutex
	current   identity.Identity
	listeners map[uint64]identity.Listener
	order     []uint64
	pending   int
}

var _ identity.Provider = (*Hub)(nil)

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]*sessionIdentity),
		logger:   logger.Named("identity_hub"),
	}
}

// Current returns the last identity observed for the session
func (h *Hub) Current(_ context.Context, sessionID string) identity.Identity {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st, ok := h.sessions[sessionID]; ok {
		return st.current
	}
	return identity.Anonymous()
}

// Subscribe registers fn for the session's identity changes
func (h *Hub) Subscribe(sessionID string, fn identity.Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.session(sessionID)
	h.nextID++
	id := h.nextID
	st.listeners[id] = fn
	st.order = append(st.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(st.listeners, id)
			for i, v := range st.order {
				if v == id {
					st.order = append(st.order[:i], st.order[i+1:]...)
					break
				}
			}
			h.forgetIfIdle(sessionID, st)
		})
	}
}

// Observe records the identity seen on a request for the session. When it
// differs from the previous one, subscribers are called before Observe
// returns. It reports whether the identity changed.
func (h *Hub) Observe(ctx context.Context, sessionID string, id identity.Identity) bool {
	h.mu.Lock()
	st, ok := h.sessions[sessionID]
	if !ok && !id.Authenticated {
		h.mu.Unlock()
		return false
	}
	if !ok {
		st = h.session(sessionID)
	}
	st.pending++
	h.mu.Unlock()

	st.deliverMu.Lock()
	defer st.deliverMu.Unlock()

	h.mu.Lock()
	st.pending--
	previous := st.current
	changed := !previous.Equal(id)
	st.current = id
	listeners := make([]identity.Listener, 0, len(st.order))
	for _, lid := range st.order {
		listeners = append(listeners, st.listeners[lid])
	}
	h.forgetIfIdle(sessionID, st)
	h.mu.Unlock()

	if !changed {
		return false
	}
	h.logger.Debug("session identity changed",
		zap.String("session_id", sessionID),
		zap.Bool("authenticated", id.Authenticated),
		zap.Bool("was_authenticated", previous.Authenticated),
		zap.Int("listeners", len(listeners)),
	)
	for _, fn := range listeners {
		fn(ctx, id)
	}
	return true
}

// Len returns the number of sessions with tracked state
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// session returns the state for sessionID, creating it. Caller holds h.mu.
func (h *Hub) session(sessionID string) *sessionIdentity {
	st, ok := h.sessions[sessionID]
	if !ok {
		st = &sessionIdentity{listeners: make(map[uint64]identity.Listener)}
		h.sessions[sessionID] = st
	}
	return st
}

// forgetIfIdle drops state that carries nothing Current would not report
// anyway. Caller holds h.mu.
func (h *Hub) forgetIfIdle(sessionID string, st *sessionIdentity) {
	if h.sessions[sessionID] != st {
		return
	}
	if len(st.listeners) == 0 && st.pending == 0 && !st.current.Authenticated {
		delete(h.sessions, sessionID)
	}
}
