package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/groveshop/storefront-gateway/internal/domain/account"
)

// customerResponse is the wire form of a customer profile.
type customerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func customerToResponse(c *account.Customer) customerResponse {
	return customerResponse{ID: c.ID, Email: c.Email, Name: c.Name}
}

// authResponse is returned by login and signup. ReturnTo echoes the
// validated return_to query parameter so the UI can resume the interrupted
// navigation (typically back to checkout).
type authResponse struct {
	Customer customerResponse `json:"customer"`
	ReturnTo string           `json:"returnTo,omitempty"`
}

// safeReturnTo validates a return_to target. Only relative paths within the
// storefront are allowed; anything else falls back to the storefront root.
func safeReturnTo(raw string) string {
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)

	var form account.LoginForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	token, cust, err := h.accounts.Login(r.Context(), form)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	sess.SetToken(token)
	writeJSON(w, r, http.StatusOK, authResponse{
		Customer: customerToResponse(cust),
		ReturnTo: safeReturnTo(r.URL.Query().Get("return_to")),
	})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)

	var form account.SignupForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	token, cust, err := h.accounts.Signup(r.Context(), form)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	sess.SetToken(token)
	writeJSON(w, r, http.StatusCreated, authResponse{
		Customer: customerToResponse(cust),
		ReturnTo: safeReturnTo(r.URL.Query().Get("return_to")),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)

	token, _ := sess.Token()
	if err := h.accounts.Logout(r.Context(), token); err != nil {
		// Upstream revocation is best effort; the local session dies anyway.
		zctx.From(r.Context()).Warn("logout upstream", zap.Error(err))
	}
	sess.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)

	token, _ := sess.Token()
	cust, err := h.accounts.Me(r.Context(), token)
	if err != nil {
		if errors.Is(err, account.ErrUnauthenticated) {
			// The backend rejected the stored token; drop it.
			sess.Invalidate()
		}
		h.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, struct {
		Customer customerResponse `json:"customer"`
	}{Customer: customerToResponse(cust)})
}

// writeAuthError maps account errors onto HTTP responses.
func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var ferr *account.FormError
	switch {
	case errors.As(err, &ferr):
		writeJSON(w, r, http.StatusUnprocessableEntity, struct {
			Code    int               `json:"code"`
			Message string            `json:"message"`
			Fields  map[string]string `json:"fields"`
		}{
			Code:    http.StatusUnprocessableEntity,
			Message: "form validation failed",
			Fields:  ferr.Fields,
		})
	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, account.ErrInvalidCredentials.Error())
	case errors.Is(err, account.ErrEmailTaken):
		writeError(w, r, http.StatusConflict, account.ErrEmailTaken.Error())
	case errors.Is(err, account.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, "not authenticated")
	default:
		zctx.From(r.Context()).Error("auth request failed", zap.Error(err))
		writeError(w, r, http.StatusBadGateway, "authentication service unavailable")
	}
}
