package review

import (
	"fmt"
	"sync"
	"time"

	"resumelift/internal/errors"
)

const (
	defaultSessionTTL   = 30 * time.Minute
	sessionSweepMinimum = time.Minute
	sessionSweepMaximum = 10 * time.Minute
)

// Manager holds live review sessions with sliding-TTL eviction. Sessions
// expire after ttl without being fetched; a background sweep reclaims them
// and Get also evicts lazily so an expired session is never served.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	lastSeen map[string]time.Time
	ttl      time.Duration
	done     chan struct{}
	logger   *errors.Logger
	now      func() time.Time
}

// NewManager creates a session manager and starts its sweep goroutine.
// ttl <= 0 uses the 30-minute default. Call Close on shutdown.
func NewManager(ttl time.Duration, logger *errors.Logger) *Manager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	m := &Manager{
		sessions: make(map[string]*Session),
		lastSeen: make(map[string]time.Time),
		ttl:      ttl,
		done:     make(chan struct{}),
		logger:   logger,
		now:      time.Now,
	}

	go m.sweepRoutine(sweepInterval(ttl))
	return m
}

// sweepInterval keeps the sweep responsive for short TTLs without waking up
// constantly for long ones.
func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval < sessionSweepMinimum {
		interval = sessionSweepMinimum
	}
	if interval > sessionSweepMaximum {
		interval = sessionSweepMaximum
	}
	return interval
}

// Add registers a session under its ID.
func (m *Manager) Add(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = session
	m.lastSeen[session.ID] = m.now()
}

// Get returns the session and refreshes its TTL.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[id]
	if ok && m.now().Sub(m.lastSeen[id]) > m.ttl {
		delete(m.sessions, id)
		delete(m.lastSeen, id)
		ok = false
	}
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeSessionNotFound,
			fmt.Sprintf("No review session with ID %q (it may have expired)", id), nil)
	}
	m.lastSeen[id] = m.now()
	return session, nil
}

// Remove drops a session. Removing an unknown ID is a no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	delete(m.lastSeen, id)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// GetStats returns current session manager statistics.
func (m *Manager) GetStats() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]any{
		"active_sessions": len(m.sessions),
		"ttl_seconds":     m.ttl.Seconds(),
	}
}

// sweepRoutine periodically evicts expired sessions.
func (m *Manager) sweepRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

// sweep removes sessions idle longer than the TTL.
func (m *Manager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	evicted := 0
	for id, seen := range m.lastSeen {
		if now.Sub(seen) > m.ttl {
			delete(m.sessions, id)
			delete(m.lastSeen, id)
			evicted++
		}
	}
	if evicted > 0 && m.logger != nil {
		m.logger.Debug("Review session sweep completed",
			"evicted", evicted, "remaining", len(m.sessions))
	}
}

// Close stops the sweep goroutine. Should be called when shutting down the
// server.
func (m *Manager) Close() {
	close(m.done)
}
