package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/groveshop/storefront-gateway/internal/domain/cart"
)

// CookieName is the session cookie used by the HTTP layer.
const CookieName = "sfsid"

// entry pairs a session with its idle deadline bookkeeping.
type entry struct {
	sess     *Session
	lastSeen time.Time
}

// Manager owns all live sessions, keyed by opaque UUID session IDs. Sessions
// idle longer than the TTL are evicted by a background sweep.
type Manager struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewManager creates a Manager evicting sessions idle longer than ttl.
func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Create allocates a new empty session with a fresh ID.
func (m *Manager) Create() *Session {
	s := &Session{
		id:   uuid.New().String(),
		cart: cart.New(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[s.id] = &entry{sess: s, lastSeen: m.now()}
	return s
}

// Get looks up a live session by ID and refreshes its idle deadline.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.lastSeen) >= m.ttl {
		delete(m.entries, id)
		return nil, false
	}
	e.lastSeen = m.now()
	return e.sess, true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// cleanup removes sessions whose idle TTL has fully elapsed.
func (m *Manager) cleanup(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.entries {
		if now.Sub(e.lastSeen) >= m.ttl {
			delete(m.entries, id)
		}
	}
}

// StartCleanup launches a background goroutine that periodically evicts
// expired sessions. It stops when ctx is cancelled.
func (m *Manager) StartCleanup(ctx context.Context) {
	interval := m.ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.cleanup(now)
			}
		}
	}()
}
