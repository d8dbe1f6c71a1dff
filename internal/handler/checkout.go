package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/groveshop/storefront-gateway/internal/domain/checkout"
)

// checkoutRequest is the body of POST /api/checkout.
type checkoutRequest struct {
	ShippingAddress *addressPayload `json:"shippingAddress"`
}

type addressPayload struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (a *addressPayload) toDomain() *checkout.Address {
	if a == nil {
		return nil
	}
	return &checkout.Address{
		Name:       a.Name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// checkoutSuccessResponse confirms a placed order and tells the UI where to
// navigate next.
type checkoutSuccessResponse struct {
	Order struct {
		ID     string  `json:"id"`
		Total  float64 `json:"total"`
		Status string  `json:"status"`
	} `json:"order"`
	RedirectTo string `json:"redirectTo"`
}

// rateLimitedResponse carries the wait message distinctly from generic
// failures, plus the server's retry hint when known.
type rateLimitedResponse struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// unauthenticatedResponse points the UI at the login flow, preserving the
// original navigation target so checkout resumes after authentication.
type unauthenticatedResponse struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	LoginURL string `json:"loginUrl"`
}

// submitCheckout runs the purchase submission flow for the session's cart.
//
// The cart is cleared exactly once, on success only; every other outcome
// leaves it intact so the user can retry without re-entering items. The
// submit control stays disabled client-side while a submission is in flight;
// a duplicate concurrent submit is answered with 409 without reaching the
// backend.
func (h *Handler) submitCheckout(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)
	ctx := r.Context()

	if sess.Cart().IsEmpty() {
		writeError(w, r, http.StatusBadRequest, "cart is empty")
		return
	}

	var req checkoutRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if h.submitter.InFlight(sess.ID()) {
		writeError(w, r, http.StatusConflict, "a purchase is already in progress")
		return
	}

	token, _ := sess.Token()
	outcome := h.submitter.Submit(ctx, checkout.Request{
		Owner:             sess.ID(),
		Lines:             sess.Cart().Lines(),
		Token:             token,
		ShippingAddress:   req.ShippingAddress.toDomain(),
		InvalidateSession: sess.Invalidate,
	})

	switch outcome.Kind {
	case checkout.KindSuccess:
		sess.Cart().Clear()
		zctx.From(ctx).Info("purchase completed",
			zap.String("order_id", outcome.OrderID))

		var resp checkoutSuccessResponse
		resp.Order.ID = outcome.OrderID
		resp.Order.Total = outcome.Total.InexactFloat64()
		resp.Order.Status = outcome.OrderStatus
		resp.RedirectTo = "/orders/" + url.PathEscape(outcome.OrderID)
		writeJSON(w, r, http.StatusOK, resp)

	case checkout.KindUnauthenticated:
		writeJSON(w, r, http.StatusUnauthorized, unauthenticatedResponse{
			Code:     http.StatusUnauthorized,
			Message:  "please sign in to complete your purchase",
			LoginURL: h.cfg.LoginPath + "?return_to=" + url.QueryEscape("/checkout"),
		})

	case checkout.KindRateLimited:
		if outcome.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(outcome.RetryAfter))
		}
		writeJSON(w, r, http.StatusTooManyRequests, rateLimitedResponse{
			Code:       http.StatusTooManyRequests,
			Message:    outcome.Message,
			RetryAfter: outcome.RetryAfter,
		})

	default:
		writeError(w, r, http.StatusBadGateway, outcome.Message)
	}
}
