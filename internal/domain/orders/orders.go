package orders

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrUnauthenticated is returned when order history is requested without a
// valid session credential.
var ErrUnauthenticated = errors.New("not authenticated")

// Item is a single line of a past order.
type Item struct {
	ProductID string
	Quantity  int
}

// Order is a past order as reported by the backend. Orders are owned
// upstream; the storefront only displays them.
type Order struct {
	ID        string
	Total     decimal.Decimal
	Status    string
	CreatedAt time.Time
	Items     []Item
}

// Source provides read access to the customer's order history.
type Source interface {
	ListOrders(ctx context.Context, token string) ([]Order, error)
}
