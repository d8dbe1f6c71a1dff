// Package session manages browser sessions for the storefront gateway. Each
// session owns the bearer credential for the external backend and the
// session's cart; both live only in memory and die with the session.
package session

import (
	"sync"

	"github.com/groveshop/storefront-gateway/internal/domain/cart"
)

// Session is one browser session. All fields are guarded so handlers on
// concurrent requests for the same session stay consistent.
type Session struct {
	id   string
	cart *cart.Cart

	mu    sync.Mutex
	token string
}

// ID returns the session's identifier as stored in the session cookie.
func (s *Session) ID() string {
	return s.id
}

// Cart returns the session's cart store.
func (s *Session) Cart() *cart.Cart {
	return s.cart
}

// SetToken stores the backend bearer credential after a successful login.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Token returns the stored credential and whether one is present.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Invalidate drops the stored credential. It is idempotent: invalidating an
// already-invalidated session is a no-op, never an error. The cart is left
// untouched so checkout can resume after re-authentication.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
