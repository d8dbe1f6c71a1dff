package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist upstream.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item as presented by the storefront. Prices are
// display-only; the backend remains the pricing authority at purchase time.
type Product struct {
	ID       string
	Title    string
	Price    decimal.Decimal
	Category string
	ImageURL string
}

// Source provides read access to the backend product catalog.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
}
