package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/groveshop/storefront-gateway/internal/domain/cart"
	"github.com/groveshop/storefront-gateway/internal/domain/catalog"
)

// cartLineResponse is the wire form of one cart line. Money crosses the edge
// as JSON numbers already rounded to 2 decimal places.
type cartLineResponse struct {
	Key       string            `json:"key"`
	ProductID string            `json:"productId"`
	Title     string            `json:"title"`
	UnitPrice float64           `json:"unitPrice"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
	Subtotal  float64           `json:"subtotal"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total float64            `json:"total"`
}

func cartToResponse(c *cart.Cart) cartResponse {
	lines := c.Lines()
	resp := cartResponse{
		Items: make([]cartLineResponse, len(lines)),
		Total: c.Total().InexactFloat64(),
	}
	for i, l := range lines {
		resp.Items[i] = cartLineResponse{
			Key:       l.Key(),
			ProductID: l.ProductID,
			Title:     l.Title,
			UnitPrice: l.UnitPrice.InexactFloat64(),
			Quantity:  l.Quantity,
			Options:   l.Options,
			Subtotal:  l.Subtotal().InexactFloat64(),
		}
	}
	return resp
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)
	writeJSON(w, r, http.StatusOK, cartToResponse(sess.Cart()))
}

// addCartItemRequest adds a product to the cart. Title and price come from
// the catalog, never from the client.
type addCartItemRequest struct {
	ProductID string            `json:"productId"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)

	var req addCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeError(w, r, http.StatusBadRequest, "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, r, http.StatusUnprocessableEntity, "unknown product "+req.ProductID)
			return
		}
		writeError(w, r, http.StatusBadGateway, "catalog unavailable")
		return
	}

	sess.Cart().Add(cart.Line{
		ProductID: p.ID,
		Title:     p.Title,
		UnitPrice: p.Price,
		Quantity:  req.Quantity,
		Options:   req.Options,
	})
	writeJSON(w, r, http.StatusOK, cartToResponse(sess.Cart()))
}

// updateCartItemRequest adjusts a line's quantity, either absolutely or by a
// signed delta. Exactly one of the two must be present.
type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
	Delta    *int `json:"delta"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)
	key := r.PathValue("key")

	var req updateCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if (req.Quantity == nil) == (req.Delta == nil) {
		writeError(w, r, http.StatusBadRequest, "exactly one of quantity or delta is required")
		return
	}

	var err error
	if req.Quantity != nil {
		_, err = sess.Cart().SetQuantity(key, *req.Quantity)
	} else {
		_, err = sess.Cart().Increment(key, *req.Delta)
	}

	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, r, http.StatusNotFound, "cart line not found")
	case errors.Is(err, cart.ErrQuantityTooLow):
		writeError(w, r, http.StatusUnprocessableEntity, "quantity must be at least 1; remove the item instead")
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "cart update failed")
	default:
		writeJSON(w, r, http.StatusOK, cartToResponse(sess.Cart()))
	}
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)

	if err := sess.Cart().Remove(r.PathValue("key")); err != nil {
		writeError(w, r, http.StatusNotFound, "cart line not found")
		return
	}
	writeJSON(w, r, http.StatusOK, cartToResponse(sess.Cart()))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)
	sess.Cart().Clear()
	writeJSON(w, r, http.StatusOK, cartToResponse(sess.Cart()))
}
