// Package handler exposes the storefront gateway's HTTP surface: cart
// manipulation, checkout, auth forms, product browsing, and order history.
package handler

import (
	"net/http"

	"github.com/groveshop/storefront-gateway/internal/domain/account"
	"github.com/groveshop/storefront-gateway/internal/domain/catalog"
	"github.com/groveshop/storefront-gateway/internal/domain/checkout"
	"github.com/groveshop/storefront-gateway/internal/domain/orders"
	"github.com/groveshop/storefront-gateway/internal/session"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// SecureCookies marks session cookies as Secure; enable behind TLS.
	SecureCookies bool
	// LoginPath is the storefront's login page, used to build the
	// return-to redirect on unauthenticated checkout.
	LoginPath string
}

// Handler wires the domain services to HTTP routes.
type Handler struct {
	cfg       Config
	sessions  *session.Manager
	submitter *checkout.Submitter
	accounts  *account.Service
	catalog   *catalog.Service
	orders    orders.Source
}

// New constructs a Handler with the required dependencies.
func New(
	cfg Config,
	sessions *session.Manager,
	submitter *checkout.Submitter,
	accounts *account.Service,
	catalogSvc *catalog.Service,
	orderSource orders.Source,
) *Handler {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	return &Handler{
		cfg:       cfg,
		sessions:  sessions,
		submitter: submitter,
		accounts:  accounts,
		catalog:   catalogSvc,
		orders:    orderSource,
	}
}

// Register mounts all storefront routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{productId}", h.getProduct)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{key}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{key}", h.removeCartItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)

	mux.HandleFunc("POST /api/checkout", h.submitCheckout)

	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/signup", h.signup)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.HandleFunc("GET /api/auth/me", h.me)

	mux.HandleFunc("GET /api/orders", h.listOrders)
}

// sessionFor resolves the request's session from the session cookie,
// creating a fresh session (and setting the cookie) when none exists.
func (h *Handler) sessionFor(w http.ResponseWriter, r *http.Request) *session.Session {
	if c, err := r.Cookie(session.CookieName); err == nil {
		if sess, ok := h.sessions.Get(c.Value); ok {
			return sess
		}
	}

	sess := h.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}
