package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EngineFactory builds the (not yet started) engine of a session.
type EngineFactory func(sessionID string) *Engine

type session struct {
	engine   *Engine
	ready    chan struct{}
	err      error
	refs     int
	lastUsed time.Time
}

// SessionRegistry keeps one running Engine per storefront session and
// closes engines that stayed idle longer than the idle timeout.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session

	newEngine   EngineFactory
	idleTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time

	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewSessionRegistry creates a registry. A positive sweepInterval starts a
// background goroutine evicting idle sessions.
func NewSessionRegistry(newEngine EngineFactory, idleTimeout, sweepInterval time.Duration, logger *zap.Logger) *SessionRegistry {
	r := &SessionRegistry{
		sessions:    make(map[string]*session),
		newEngine:   newEngine,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
		stopChan:    make(chan struct{}),
	}
	if sweepInterval > 0 && idleTimeout > 0 {
		r.wg.Add(1)
		go r.cleanupLoop(sweepInterval)
	}
	return r
}

// Acquire returns the started engine of a session, creating it on first use.
// The caller must call release when done; idle eviction skips sessions in use.
func (r *SessionRegistry) Acquire(ctx context.Context, sessionID string) (engine *Engine, release func(), err error) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		s = &session{engine: r.newEngine(sessionID), ready: make(chan struct{})}
		r.sessions[sessionID] = s
	}
	s.refs++
	s.lastUsed = r.now()
	r.mu.Unlock()

	if !ok {
		s.err = s.engine.Start(ctx)
		if s.err != nil {
			r.logger.Error("failed to start cart session",
				zap.String("session_id", sessionID),
				zap.Error(s.err),
			)
		}
		close(s.ready)
	}

	select {
	case <-s.ready:
	case <-ctx.Done():
		r.release(sessionID, s)
		return nil, nil, ctx.Err()
	}

	if s.err != nil {
		r.release(sessionID, s)
		r.evict(sessionID, s)
		return nil, nil, s.err
	}

	var once sync.Once
	return s.engine, func() { once.Do(func() { r.release(sessionID, s) }) }, nil
}

func (r *SessionRegistry) release(sessionID string, s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.refs--
	s.lastUsed = r.now()
}

// evict removes s if it is still the registered session for sessionID.
func (r *SessionRegistry) evict(sessionID string, s *session) {
	r.mu.Lock()
	if r.sessions[sessionID] == s {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()
	s.engine.Close()
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle closes sessions unused for longer than the idle timeout and
// returns how many were closed.
func (r *SessionRegistry) EvictIdle() int {
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var idle []*session
	for id, s := range r.sessions {
		if s.refs > 0 || s.lastUsed.After(cutoff) {
			continue
		}
		idle = append(idle, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range idle {
		<-s.ready
		s.engine.Close()
	}
	if len(idle) > 0 {
		r.logger.Debug("evicted idle cart sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Close stops the sweeper and closes every engine. Safe to call multiple times.
func (r *SessionRegistry) Close() {
	r.closeOnce.Do(func() {
		close(r.stopChan)
		r.wg.Wait()

		r.mu.Lock()
		all := make([]*session, 0, len(r.sessions))
		for id, s := range r.sessions {
			all = append(all, s)
			delete(r.sessions, id)
		}
		r.mu.Unlock()

		for _, s := range all {
			<-s.ready
			s.engine.Close()
		}
	})
}

func (r *SessionRegistry) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.EvictIdle()
		}
	}
}
