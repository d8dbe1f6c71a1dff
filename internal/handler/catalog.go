package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/groveshop/storefront-gateway/internal/domain/catalog"
)

// productResponse is the wire form of a catalog product.
type productResponse struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	ImageURL string  `json:"imageUrl"`
}

func productToResponse(p catalog.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price.InexactFloat64(),
		Category: p.Category,
		ImageURL: p.ImageURL,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list products", zap.Error(err))
		writeError(w, r, http.StatusBadGateway, "catalog unavailable")
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = productToResponse(p)
	}
	writeJSON(w, r, http.StatusOK, struct {
		Products []productResponse `json:"products"`
	}{Products: out})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), r.PathValue("productId"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "product not found")
			return
		}
		zctx.From(r.Context()).Error("get product", zap.Error(err))
		writeError(w, r, http.StatusBadGateway, "catalog unavailable")
		return
	}

	writeJSON(w, r, http.StatusOK, struct {
		Product productResponse `json:"product"`
	}{Product: productToResponse(*p)})
}
