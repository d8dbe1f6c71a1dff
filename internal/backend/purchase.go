package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/groveshop/storefront-gateway/internal/domain/checkout"
)

// purchaseItem is the wire form of a purchase line.
type purchaseItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// purchaseAddress is the wire form of an optional shipping address.
type purchaseAddress struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// purchasePayload is the body of POST /orders/purchase. It carries product
// identifiers and quantities only; the backend owns all pricing.
type purchasePayload struct {
	Items           []purchaseItem   `json:"items"`
	ShippingAddress *purchaseAddress `json:"shippingAddress,omitempty"`
}

// orderEnvelope is the backend's 2xx purchase response.
type orderEnvelope struct {
	Order struct {
		ID     string          `json:"id"`
		Total  decimal.Decimal `json:"total"`
		Status string          `json:"status"`
		Items  []purchaseItem  `json:"items"`
	} `json:"order"`
}

// PlaceOrder issues the single purchase request and returns the backend's
// raw answer. Any HTTP status comes back as a Placement; only transport
// problems and undecodable success bodies are errors.
func (c *Client) PlaceOrder(ctx context.Context, token string, req checkout.PurchaseRequest) (*checkout.Placement, error) {
	payload := purchasePayload{
		Items: make([]purchaseItem, len(req.Items)),
	}
	for i, item := range req.Items {
		payload.Items[i] = purchaseItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}
	if a := req.ShippingAddress; a != nil {
		payload.ShippingAddress = &purchaseAddress{
			Name:       a.Name,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			Region:     a.Region,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		}
	}

	status, header, body, err := c.do(ctx, http.MethodPost, "/orders/purchase", token, payload)
	if err != nil {
		return nil, err
	}

	p := &checkout.Placement{StatusCode: status}
	if is2xx(status) {
		var env orderEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, errors.Wrap(err, "decode order")
		}
		p.OrderID = env.Order.ID
		p.Total = env.Order.Total
		p.OrderStatus = env.Order.Status
		return p, nil
	}

	eb := parseErrorBody(body)
	p.Message = eb.userMessage()
	p.RetryAfter = eb.RetryAfter
	if p.RetryAfter == 0 {
		// The body's retryAfter wins; the header is a fallback hint.
		p.RetryAfter = retryAfterFromHeader(header)
	}
	return p, nil
}
