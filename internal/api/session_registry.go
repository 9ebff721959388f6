package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/session"
)

// SessionRegistry holds the review sessions of this process.
//
// A registry is safe for concurrent use. Each session has its own mutex, so
// transitions on one session are serialised while different sessions run
// in parallel.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionEntry
	max      int
	clock    domain.Clock
}

type sessionEntry struct {
	mu       sync.Mutex
	engine   *session.Engine
	lastUsed time.Time
}

// NewSessionRegistry creates a registry holding at most size sessions.
// When full, completed sessions are evicted before new ones are refused.
func NewSessionRegistry(size int, clock domain.Clock) *SessionRegistry {
	if size < 1 {
		// ALLOW-PANIC: Constructor enforcing valid configuration
		panic("session registry size must be positive")
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &SessionRegistry{
		sessions: make(map[uuid.UUID]*sessionEntry),
		max:      size,
		clock:    clock,
	}
}

// Add registers a session. It returns ErrTooManySessions when the registry
// is full of sessions still in progress.
func (reg *SessionRegistry) Add(e *session.Engine) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if len(reg.sessions) >= reg.max {
		reg.evictCompletedLocked()
	}
	if len(reg.sessions) >= reg.max {
		return ErrTooManySessions
	}
	reg.sessions[e.ID()] = &sessionEntry{
		engine:   e,
		lastUsed: reg.clock.Now(),
	}
	return nil
}

// Do runs fn with exclusive access to the session id.
func (reg *SessionRegistry) Do(id uuid.UUID, fn func(e *session.Engine) error) error {
	reg.mu.Lock()
	entry, ok := reg.sessions[id]
	reg.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.lastUsed = reg.clock.Now()
	return fn(entry.engine)
}

// Remove drops the session id. It reports whether the session existed.
func (reg *SessionRegistry) Remove(id uuid.UUID) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, ok := reg.sessions[id]
	delete(reg.sessions, id)
	return ok
}

// Len returns the number of registered sessions.
func (reg *SessionRegistry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}

// EvictIdle drops sessions not used for longer than idle and returns how
// many were dropped. Sessions busy in Do are kept.
func (reg *SessionRegistry) EvictIdle(idle time.Duration) int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	cutoff := reg.clock.Now().Add(-idle)
	return reg.evictLocked(func(entry *sessionEntry) bool {
		return entry.lastUsed.Before(cutoff)
	})
}

// evictCompletedLocked drops every completed session that is not busy.
func (reg *SessionRegistry) evictCompletedLocked() {
	reg.evictLocked(func(entry *sessionEntry) bool {
		return entry.engine.Phase() == session.PhaseCompleted
	})
}

func (reg *SessionRegistry) evictLocked(drop func(entry *sessionEntry) bool) int {
	n := 0
	for id, entry := range reg.sessions {
		if !entry.mu.TryLock() {
			continue
		}
		if drop(entry) {
			delete(reg.sessions, id)
			n++
		}
		entry.mu.Unlock()
	}
	return n
}
