package checkout

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/groveshop/storefront-gateway/internal/domain/cart"
)

// Item is a single purchase line sent to the backend: product identifier and
// quantity only. Pricing authority lives server-side, so no client-computed
// prices ever cross this boundary.
type Item struct {
	ProductID string
	Quantity  int
}

// Address is an optional shipping address attached to a purchase.
type Address struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	Region     string
	PostalCode string
	Country    string
}

// PurchaseRequest is the minimal payload for the backend's purchase endpoint.
type PurchaseRequest struct {
	Items           []Item
	ShippingAddress *Address
}

// Placement is the backend's raw answer to a purchase request, before
// classification. StatusCode is always set; the remaining fields are filled
// from the response body when the backend supplied them.
type Placement struct {
	StatusCode  int
	OrderID     string
	Total       decimal.Decimal
	OrderStatus string

	// Message is the server-provided error message, if any.
	Message string
	// RetryAfter is the server's wait hint in seconds on 429, 0 if absent.
	RetryAfter int
}

// Gateway places purchases against the external order-creation endpoint.
// Implementations return an error only for transport-level problems; any
// HTTP response, success or not, comes back as a Placement.
type Gateway interface {
	PlaceOrder(ctx context.Context, token string, req PurchaseRequest) (*Placement, error)
}

// Request holds everything one submission attempt needs.
type Request struct {
	// Owner identifies the submitting client (the session ID). At most one
	// submission per owner may be in flight at a time.
	Owner string
	// Lines is the cart snapshot at submission time.
	Lines []cart.Line
	// Token is the session's bearer credential; empty means unauthenticated.
	Token string
	// ShippingAddress is forwarded verbatim when present.
	ShippingAddress *Address
	// InvalidateSession is invoked exactly once when the backend answers 401,
	// so a stale local credential is not reused. May be nil.
	InvalidateSession func()
}

// Submitter runs the purchase submission flow: local guards, a single
// network call, and classification of the result into an Outcome. It is
// stateless between invocations apart from per-owner in-flight flags.
type Submitter struct {
	gateway Gateway

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewSubmitter creates a Submitter backed by the given gateway.
func NewSubmitter(gateway Gateway) *Submitter {
	return &Submitter{
		gateway:  gateway,
		inFlight: make(map[string]struct{}),
	}
}

// InFlight reports whether the owner has a submission outstanding. The UI
// layer uses this to disable the submit control while a request is in
// flight.
func (s *Submitter) InFlight(owner string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[owner]
	return ok
}

// begin marks the owner as having a submission in flight. It reports false
// when one is already outstanding.
func (s *Submitter) begin(owner string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[owner]; ok {
		return false
	}
	s.inFlight[owner] = struct{}{}
	return true
}

// end clears the owner's in-flight flag.
func (s *Submitter) end(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, owner)
}

// Submit runs one purchase attempt and returns its Outcome. Branching:
//
//  1. Empty cart: rejected locally, no network call, no side effects.
//  2. Missing token: Unauthenticated, no network call. The caller redirects
//     to login, preserving the original target so checkout resumes after
//     authentication.
//  3. Otherwise exactly one request is issued and its response classified:
//     2xx success, 401 session expiry (invalidates the session), 429 rate
//     limit (never retried automatically), anything else a generic failure.
//
// Side effects are confined to the network call itself and the 401 session
// invalidation. Clearing the cart on success is the caller's job.
func (s *Submitter) Submit(ctx context.Context, req Request) Outcome {
	if len(req.Lines) == 0 {
		return failure("cart is empty")
	}
	if req.Token == "" {
		return unauthenticated()
	}

	// One in-flight submission per owner. A concurrent second attempt is
	// answered locally so no duplicate order can leave this client.
	if !s.begin(req.Owner) {
		return failure("a purchase is already in progress")
	}
	defer s.end(req.Owner)

	items := make([]Item, len(req.Lines))
	for i, l := range req.Lines {
		items[i] = Item{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
		}
	}

	placement, err := s.gateway.PlaceOrder(ctx, req.Token, PurchaseRequest{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		// Transport failures are flattened into a generic failure; the
		// four-way taxonomy deliberately has no transport category.
		zctx.From(ctx).Warn("purchase request failed", zap.Error(err))
		return failure("")
	}

	return s.classify(ctx, placement, req.InvalidateSession)
}

// classify maps the HTTP outcome onto the four-way Outcome taxonomy.
func (s *Submitter) classify(ctx context.Context, p *Placement, invalidate func()) Outcome {
	switch {
	case p.StatusCode >= 200 && p.StatusCode < 300:
		return success(p.OrderID, p.Total, p.OrderStatus)

	case p.StatusCode == http.StatusUnauthorized:
		// Session expiry: drop the stale credential so the next attempt
		// starts from a clean login rather than replaying a dead token.
		if invalidate != nil {
			invalidate()
		}
		return unauthenticated()

	case p.StatusCode == http.StatusTooManyRequests:
		zctx.From(ctx).Info("purchase rate limited",
			zap.Int("retry_after", p.RetryAfter))
		return rateLimited(p.RetryAfter, p.Message)

	default:
		return failure(p.Message)
	}
}
