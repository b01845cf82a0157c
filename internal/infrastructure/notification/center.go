// Package notification holds the transient "added to cart" toast of each
// storefront session.
package notification

import (
	"sync"
	"time"
)

// DefaultDuration is how long a toast stays visible
const DefaultDuration = 2200 * time.Millisecond

// Toast is a message visible to one session
type Toast struct {
	Message   string    `json:"message"`
	ShownAt   time.Time `json:"shown_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type slot struct {
	toast Toast
	timer *time.Timer
	seq   uint64
}

// Center keeps a single toast slot per session. Showing a new toast
// replaces the current one and restarts its timer.
type Center struct {
	mu       sync.Mutex
	slots    map[string]*slot
	duration time.Duration
	now      func() time.Time
	seq      uint64
}

// NewCenter creates a center. A non-positive duration selects DefaultDuration.
func NewCenter(duration time.Duration) *Center {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Center{
		slots:    make(map[string]*slot),
		duration: duration,
		now:      time.Now,
	}
}

// Show displays message to the session
func (c *Center) Show(sessionID, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.slots[sessionID]; ok {
		old.timer.Stop()
	}
	c.seq++
	seq := c.seq
	now := c.now()
	c.slots[sessionID] = &slot{
		toast: Toast{Message: message, ShownAt: now, ExpiresAt: now.Add(c.duration)},
		seq:   seq,
		timer: time.AfterFunc(c.duration, func() { c.expire(sessionID, seq) }),
	}
}

// Current returns the session's visible toast, if any
func (c *Center) Current(sessionID string) (Toast, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[sessionID]
	if !ok || !c.now().Before(s.toast.ExpiresAt) {
		return Toast{}, false
	}
	return s.toast, true
}

// Dismiss hides the session's toast
func (c *Center) Dismiss(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.slots[sessionID]; ok {
		s.timer.Stop()
		delete(c.slots, sessionID)
	}
}

// Len returns the number of sessions with a toast slot
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

// Close stops all pending timers and drops every toast
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, s := range c.slots {
		s.timer.Stop()
		delete(c.slots, id)
	}
}

// expire clears the slot unless it was replaced since the timer was armed
func (c *Center) expire(sessionID string, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.slots[sessionID]; ok && s.seq == seq {
		delete(c.slots, sessionID)
	}
}
