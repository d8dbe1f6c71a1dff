package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/groveshop/storefront-gateway/internal/domain/catalog"
	"github.com/groveshop/storefront-gateway/internal/domain/orders"
)

// productPayload is the wire form of a catalog product.
type productPayload struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	ImageURL string          `json:"imageUrl"`
}

func (p productPayload) toDomain() catalog.Product {
	return catalog.Product{
		ID:       p.ID,
		Title:    p.Title,
		Price:    p.Price,
		Category: p.Category,
		ImageURL: p.ImageURL,
	}
}

// ListProducts fetches the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	status, _, body, err := c.do(ctx, http.MethodGet, "/products", "", nil)
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		return nil, &UpstreamError{StatusCode: status, Message: parseErrorBody(body).userMessage()}
	}

	var env struct {
		Products []productPayload `json:"products"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}

	out := make([]catalog.Product, len(env.Products))
	for i, p := range env.Products {
		out[i] = p.toDomain()
	}
	return out, nil
}

// GetProduct fetches a single product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	status, _, body, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), "", nil)
	if err != nil {
		return nil, err
	}

	switch {
	case is2xx(status):
		var env struct {
			Product productPayload `json:"product"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, errors.Wrap(err, "decode product")
		}
		p := env.Product.toDomain()
		return &p, nil
	case status == http.StatusNotFound:
		return nil, catalog.ErrNotFound
	default:
		return nil, &UpstreamError{StatusCode: status, Message: parseErrorBody(body).userMessage()}
	}
}

// orderPayload is the wire form of a past order.
type orderPayload struct {
	ID        string          `json:"id"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Items     []purchaseItem  `json:"items"`
}

// ListOrders fetches the customer's order history.
func (c *Client) ListOrders(ctx context.Context, token string) ([]orders.Order, error) {
	status, _, body, err := c.do(ctx, http.MethodGet, "/orders", token, nil)
	if err != nil {
		return nil, err
	}

	switch {
	case is2xx(status):
		var env struct {
			Orders []orderPayload `json:"orders"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, errors.Wrap(err, "decode orders")
		}

		out := make([]orders.Order, len(env.Orders))
		for i, o := range env.Orders {
			items := make([]orders.Item, len(o.Items))
			for j, it := range o.Items {
				items[j] = orders.Item{ProductID: it.ProductID, Quantity: it.Quantity}
			}
			out[i] = orders.Order{
				ID:        o.ID,
				Total:     o.Total,
				Status:    o.Status,
				CreatedAt: o.CreatedAt,
				Items:     items,
			}
		}
		return out, nil
	case status == http.StatusUnauthorized:
		return nil, orders.ErrUnauthenticated
	default:
		return nil, &UpstreamError{StatusCode: status, Message: parseErrorBody(body).userMessage()}
	}
}
