package session

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groveshop/storefront-gateway/internal/domain/cart"
)

func TestSession_TokenLifecycle(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create()

	_, ok := s.Token()
	assert.False(t, ok, "fresh session has no token")

	s.SetToken("tok-123")
	tok, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, "tok-123", tok)
}

func TestSession_InvalidateIsIdempotent(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create()
	s.SetToken("tok-123")

	s.Invalidate()
	_, ok := s.Token()
	assert.False(t, ok)

	// A second invalidation is a safe no-op.
	s.Invalidate()
	_, ok = s.Token()
	assert.False(t, ok)
}

func TestSession_InvalidatePreservesCart(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Create()
	s.SetToken("tok-123")
	s.Cart().Add(cart.Line{
		ProductID: "p1",
		UnitPrice: decimal.RequireFromString("9.99"),
		Quantity:  2,
	})

	s.Invalidate()

	lines := s.Cart().Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestManager_GetUnknownID(t *testing.T) {
	m := NewManager(time.Hour)
	_, ok := m.Get("nope")
	assert.False(t, ok)
}

func TestManager_GetRefreshesDeadline(t *testing.T) {
	m := NewManager(time.Hour)
	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	s := m.Create()

	// Touch the session just before expiry, then advance past the original
	// deadline: the touch must have extended it.
	current = current.Add(59 * time.Minute)
	_, ok := m.Get(s.ID())
	require.True(t, ok)

	current = current.Add(59 * time.Minute)
	_, ok = m.Get(s.ID())
	assert.True(t, ok)
}

func TestManager_ExpiredSessionEvictedOnGet(t *testing.T) {
	m := NewManager(time.Hour)
	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	s := m.Create()
	current = current.Add(2 * time.Hour)

	_, ok := m.Get(s.ID())
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestManager_CleanupSweepsIdleSessions(t *testing.T) {
	m := NewManager(time.Hour)
	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	m.Create()
	m.Create()
	fresh := m.Create()

	current = current.Add(2 * time.Hour)
	_ = fresh // all three are now idle past the TTL

	m.cleanup(current)
	assert.Equal(t, 0, m.Len())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := NewManager(time.Hour)
	a := m.Create()
	b := m.Create()

	a.SetToken("tok-a")
	a.Cart().Add(cart.Line{ProductID: "p1", UnitPrice: decimal.New(1, 0), Quantity: 1})

	_, ok := b.Token()
	assert.False(t, ok)
	assert.True(t, b.Cart().IsEmpty())
	assert.NotEqual(t, a.ID(), b.ID())
}
