package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/groveshop/storefront-gateway/internal/domain/orders"
)

// orderItemResponse is one line of a past order.
type orderItemResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// orderResponse is the wire form of a past order.
type orderResponse struct {
	ID        string              `json:"id"`
	Total     float64             `json:"total"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	Items     []orderItemResponse `json:"items"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	sess := h.sessionFor(w, r)

	token, ok := sess.Token()
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "please sign in to view your orders")
		return
	}

	history, err := h.orders.ListOrders(r.Context(), token)
	if err != nil {
		if errors.Is(err, orders.ErrUnauthenticated) {
			sess.Invalidate()
			writeError(w, r, http.StatusUnauthorized, "please sign in to view your orders")
			return
		}
		zctx.From(r.Context()).Error("list orders", zap.Error(err))
		writeError(w, r, http.StatusBadGateway, "order history unavailable")
		return
	}

	out := make([]orderResponse, len(history))
	for i, o := range history {
		items := make([]orderItemResponse, len(o.Items))
		for j, it := range o.Items {
			items[j] = orderItemResponse{ProductID: it.ProductID, Quantity: it.Quantity}
		}
		out[i] = orderResponse{
			ID:        o.ID,
			Total:     o.Total.InexactFloat64(),
			Status:    o.Status,
			CreatedAt: o.CreatedAt,
			Items:     items,
		}
	}
	writeJSON(w, r, http.StatusOK, struct {
		Orders []orderResponse `json:"orders"`
	}{Orders: out})
}
