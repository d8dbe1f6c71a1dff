package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Service fronts a Source with a short TTL cache and request collapsing, so
// a burst of storefront page renders produces a single upstream fetch.
type Service struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	group singleflight.Group

	mu        sync.Mutex
	products  []Product
	fetchedAt time.Time
}

// NewService creates a Service caching catalog listings for ttl.
func NewService(source Source, ttl time.Duration) *Service {
	return &Service{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
}

// List returns the product catalog, served from cache when fresh. Concurrent
// cache misses collapse into one upstream request.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	if cached, ok := s.cached(); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do("list", func() (any, error) {
		// Re-check under the flight: another caller may have refilled the
		// cache while this one waited.
		if cached, ok := s.cached(); ok {
			return cached, nil
		}

		products, err := s.source.ListProducts(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.products = products
		s.fetchedAt = s.now()
		s.mu.Unlock()
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Product), nil
}

// Get returns a single product. A fresh cached listing is consulted first;
// otherwise the product is fetched directly.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	if cached, ok := s.cached(); ok {
		for i := range cached {
			if cached[i].ID == id {
				p := cached[i]
				return &p, nil
			}
		}
		return nil, ErrNotFound
	}

	v, err, _ := s.group.Do("product:"+id, func() (any, error) {
		return s.source.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Product), nil
}

// cached returns a copy of the cached listing when it is still fresh.
func (s *Service) cached() ([]Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.products == nil || s.now().Sub(s.fetchedAt) >= s.ttl {
		return nil, false
	}
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, true
}
