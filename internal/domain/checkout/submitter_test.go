package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groveshop/storefront-gateway/internal/domain/cart"
)

type mockGateway struct {
	mu        sync.Mutex
	calls     int
	lastReq   PurchaseRequest
	placement *Placement
	err       error

	// block, when non-nil, is closed by the test to release an in-flight call.
	block chan struct{}
	// entered is signalled once a call is inside PlaceOrder.
	entered chan struct{}
}

func (m *mockGateway) PlaceOrder(_ context.Context, _ string, req PurchaseRequest) (*Placement, error) {
	m.mu.Lock()
	m.calls++
	m.lastReq = req
	m.mu.Unlock()

	if m.entered != nil {
		close(m.entered)
	}
	if m.block != nil {
		<-m.block
	}
	return m.placement, m.err
}

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testLines() []cart.Line {
	return []cart.Line{
		{ProductID: "p1", Title: "Widget", UnitPrice: decimal.RequireFromString("5.99"), Quantity: 2},
		{ProductID: "p2", Title: "Gadget", UnitPrice: decimal.RequireFromString("12.50"), Quantity: 1},
	}
}

func TestSubmit_EmptyCartRejectedLocally(t *testing.T) {
	gw := &mockGateway{}
	s := NewSubmitter(gw)

	out := s.Submit(context.Background(), Request{Token: "tok"})

	assert.Equal(t, KindFailure, out.Kind)
	assert.Equal(t, 0, gw.callCount(), "empty cart must not issue a network call")
}

func TestSubmit_MissingTokenReturnsUnauthenticated(t *testing.T) {
	gw := &mockGateway{}
	s := NewSubmitter(gw)

	out := s.Submit(context.Background(), Request{Lines: testLines()})

	assert.Equal(t, KindUnauthenticated, out.Kind)
	assert.Equal(t, 0, gw.callCount(), "missing token must not issue a network call")
}

func TestSubmit_Success(t *testing.T) {
	gw := &mockGateway{
		placement: &Placement{
			StatusCode:  200,
			OrderID:     "o1",
			Total:       decimal.RequireFromString("5.99"),
			OrderStatus: "completed",
		},
	}
	s := NewSubmitter(gw)

	out := s.Submit(context.Background(), Request{Lines: testLines(), Token: "tok"})

	require.Equal(t, KindSuccess, out.Kind)
	assert.True(t, out.Succeeded())
	assert.Equal(t, "o1", out.OrderID)
	assert.Equal(t, "completed", out.OrderStatus)
	assert.True(t, decimal.RequireFromString("5.99").Equal(out.Total))
	assert.Equal(t, 1, gw.callCount())
}

func TestSubmit_PayloadCarriesNoPrices(t *testing.T) {
	gw := &mockGateway{placement: &Placement{StatusCode: 200, OrderID: "o1"}}
	s := NewSubmitter(gw)

	s.Submit(context.Background(), Request{Lines: testLines(), Token: "tok"})

	require.Len(t, gw.lastReq.Items, 2)
	assert.Equal(t, Item{ProductID: "p1", Quantity: 2}, gw.lastReq.Items[0])
	assert.Equal(t, Item{ProductID: "p2", Quantity: 1}, gw.lastReq.Items[1])
}

func TestSubmit_RateLimited(t *testing.T) {
	gw := &mockGateway{
		placement: &Placement{
			StatusCode: 429,
			Message:    "Too many purchases. Please wait a minute.",
			RetryAfter: 60,
		},
	}
	s := NewSubmitter(gw)

	out := s.Submit(context.Background(), Request{Lines: testLines(), Token: "tok"})

	require.Equal(t, KindRateLimited, out.Kind)
	assert.Equal(t, 60, out.RetryAfter)
	assert.Equal(t, "Too many purchases. Please wait a minute.", out.Message)
}

func TestSubmit_RateLimitedDefaultMessage(t *testing.T) {
	gw := &mockGateway{placement: &Placement{StatusCode: 429}}
	s := NewSubmitter(gw)

	out := s.Submit(context.Background(), Request{Lines: testLines(), Token: "tok"})

	require.Equal(t, KindRateLimited, out.Kind)
	assert.Equal(t, 0, out.RetryAfter)
	assert.Equal(t, DefaultRateLimitMessage, out.Message)
}

func TestSubmit_UnauthorizedInvalidatesSessionOnce(t *testing.T) {
	gw := &mockGateway{placement: &Placement{StatusCode: 401}}
	s := NewSubmitter(gw)

	invalidations := 0
	req := Request{
		Lines:             testLines(),
		Token:             "expired",
		InvalidateSession: func() { invalidations++ },
	}

	out := s.Submit(context.Background(), req)
	require.Equal(t, KindUnauthenticated, out.Kind)
	assert.Equal(t, 1, invalidations)

	// A second 401 in a row invalidates again at this layer; idempotency of
	// the invalidation itself is the session store's contract.
	out = s.Submit(context.Background(), req)
	require.Equal(t, KindUnauthenticated, out.Kind)
	assert.Equal(t, 2, invalidations)
}

func TestSubmit_ServerErrorUsesProvidedMessage(t *testing.T) {
	gw := &mockGateway{
		placement: &Placement{StatusCode: 500, Message: "inventory service down"},
	}
	s := NewSubmitter(gw)

	out := s.Submit(context.Background(), Request{Lines: testLines(), Token: "tok"})

	require.Equal(t, KindFailure, out.Kind)
	assert.Equal(t, "inventory service down", out.Message)
}

func TestSubmit_ServerErrorFallbackMessage(t *testing.T) {
	gw := &mockGateway{placement: &Placement{StatusCode: 502}}
	s := NewSubmitter(gw)

	out := s.Submit(context.Background(), Request{Lines: testLines(), Token: "tok"})

	require.Equal(t, KindFailure, out.Kind)
	assert.NotEmpty(t, out.Message)
}

func TestSubmit_TransportErrorIsGenericFailure(t *testing.T) {
	gw := &mockGateway{err: errors.New("dial tcp: connection refused")}
	s := NewSubmitter(gw)

	out := s.Submit(context.Background(), Request{Lines: testLines(), Token: "tok"})

	require.Equal(t, KindFailure, out.Kind)
	assert.NotEmpty(t, out.Message)
	// The raw transport error never leaks into user-facing copy.
	assert.NotContains(t, out.Message, "dial tcp")
}

func TestSubmit_SecondConcurrentSubmitRejected(t *testing.T) {
	gw := &mockGateway{
		placement: &Placement{StatusCode: 200, OrderID: "o1"},
		block:     make(chan struct{}),
		entered:   make(chan struct{}),
	}
	s := NewSubmitter(gw)

	done := make(chan Outcome, 1)
	go func() {
		done <- s.Submit(context.Background(), Request{Owner: "sess-1", Lines: testLines(), Token: "tok"})
	}()

	// Wait until the first submission is inside the gateway call.
	<-gw.entered
	assert.True(t, s.InFlight("sess-1"))

	// The concurrent attempt is rejected locally, without a network call.
	out := s.Submit(context.Background(), Request{Owner: "sess-1", Lines: testLines(), Token: "tok"})
	assert.Equal(t, KindFailure, out.Kind)
	assert.Equal(t, 1, gw.callCount())

	close(gw.block)
	first := <-done
	assert.Equal(t, KindSuccess, first.Kind)
	assert.False(t, s.InFlight("sess-1"))
}

func TestSubmit_DistinctOwnersDoNotBlockEachOther(t *testing.T) {
	gw := &mockGateway{
		placement: &Placement{StatusCode: 200, OrderID: "o1"},
		block:     make(chan struct{}),
		entered:   make(chan struct{}),
	}
	s := NewSubmitter(gw)

	done := make(chan Outcome, 1)
	go func() {
		done <- s.Submit(context.Background(), Request{Owner: "sess-1", Lines: testLines(), Token: "tok"})
	}()
	<-gw.entered

	// The guard is keyed per session: sess-2 is unaffected by sess-1's
	// outstanding submission.
	assert.False(t, s.InFlight("sess-2"))

	close(gw.block)
	<-done
}

func TestSubmit_NeverRetriesAfterRateLimit(t *testing.T) {
	gw := &mockGateway{placement: &Placement{StatusCode: 429, RetryAfter: 60}}
	s := NewSubmitter(gw)

	s.Submit(context.Background(), Request{Lines: testLines(), Token: "tok"})

	// Exactly one request per attempt: the limiter exists to force a
	// human-paced wait, so no automatic retry loop may exist.
	assert.Equal(t, 1, gw.callCount())
}
