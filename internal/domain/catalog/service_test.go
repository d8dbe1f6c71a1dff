package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	listCalls atomic.Int64
	getCalls  atomic.Int64
	products  []Product
	err       error
}

func (m *mockSource) ListProducts(_ context.Context) ([]Product, error) {
	m.listCalls.Add(1)
	return m.products, m.err
}

func (m *mockSource) GetProduct(_ context.Context, id string) (*Product, error) {
	m.getCalls.Add(1)
	for i := range m.products {
		if m.products[i].ID == id {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func testProducts() []Product {
	return []Product{
		{ID: "p1", Title: "Widget", Price: decimal.RequireFromString("5.99"), Category: "tools"},
		{ID: "p2", Title: "Gadget", Price: decimal.RequireFromString("12.50"), Category: "tools"},
	}
}

func TestService_ListCachesWithinTTL(t *testing.T) {
	src := &mockSource{products: testProducts()}
	svc := NewService(src, time.Minute)

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), src.listCalls.Load(), "second list must hit the cache")
}

func TestService_ListRefreshesAfterTTL(t *testing.T) {
	src := &mockSource{products: testProducts()}
	svc := NewService(src, time.Minute)

	current := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), src.listCalls.Load())
}

func TestService_ConcurrentListsCollapse(t *testing.T) {
	src := &mockSource{products: testProducts()}
	svc := NewService(src, time.Minute)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.List(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// All ten callers share at most a handful of upstream fetches; after the
	// first completes, the rest are served from cache.
	assert.LessOrEqual(t, src.listCalls.Load(), int64(2))
}

func TestService_GetServedFromCachedListing(t *testing.T) {
	src := &mockSource{products: testProducts()}
	svc := NewService(src, time.Minute)

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	p, err := svc.Get(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "Gadget", p.Title)
	assert.Equal(t, int64(0), src.getCalls.Load())
}

func TestService_GetUnknownProductFromCache(t *testing.T) {
	src := &mockSource{products: testProducts()}
	svc := NewService(src, time.Minute)

	_, err := svc.List(context.Background())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_GetWithoutCacheFetchesDirectly(t *testing.T) {
	src := &mockSource{products: testProducts()}
	svc := NewService(src, time.Minute)

	p, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Title)
	assert.Equal(t, int64(1), src.getCalls.Load())
}
