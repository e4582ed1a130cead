package usecases_test

import (
	"context"
	"sync"
	"time"

	"github.com/samirrijal/geoproxy/internal/core/domain"
	"github.com/samirrijal/geoproxy/internal/core/ports"
)

// --- Mock Provider ---

type mockProvider struct {
	id         domain.ProviderID
	convention domain.BoundsConvention
	parseFn    func(body []byte) domain.ProviderResult
}

func (m *mockProvider) ID() domain.ProviderID { return m.id }

func (m *mockProvider) BoundsConvention() domain.BoundsConvention {
	if m.convention == "" {
		return domain.BoundsBottomLeftTopRight
	}
	return m.convention
}

func (m *mockProvider) BuildQuery(address string, _ *domain.BoundingBox) domain.ProviderQuery {
	return domain.ProviderQuery{Method: "GET", URL: "http://" + string(m.id) + ".test/geocode?q=" + address}
}

func (m *mockProvider) ParseResponse(body []byte) domain.ProviderResult {
	if m.parseFn != nil {
		return m.parseFn(body)
	}
	return domain.ZeroResults()
}

// --- Mock ProviderRegistry ---

type mockRegistry struct {
	order []domain.ProviderID
	byID  map[domain.ProviderID]*mockProvider
}

func newMockRegistry(providers ...*mockProvider) *mockRegistry {
	r := &mockRegistry{byID: make(map[domain.ProviderID]*mockProvider)}
	for _, p := range providers {
		r.order = append(r.order, p.id)
		r.byID[p.id] = p
	}
	return r
}

func (r *mockRegistry) IDs() []domain.ProviderID {
	return append([]domain.ProviderID(nil), r.order...)
}

func (r *mockRegistry) Get(id domain.ProviderID) (ports.Provider, bool) {
	p, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return p, true
}

// --- Mock Fetcher ---

type mockFetcher struct {
	mu      sync.Mutex
	urls    []string
	fetchFn func(ctx context.Context, url string) ([]byte, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, url string, _ time.Duration) ([]byte, error) {
	m.mu.Lock()
	m.urls = append(m.urls, url)
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, url)
	}
	return []byte("{}"), nil
}

func (m *mockFetcher) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}

// --- Mock ResponseCache ---

type mockCache struct {
	mu      sync.Mutex
	entries map[string]domain.ProxyResponse
	stored  []string
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]domain.ProxyResponse)}
}

func (m *mockCache) Lookup(_ context.Context, key string) (domain.ProxyResponse, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[key]
	return r, ok
}

func (m *mockCache) Store(_ context.Context, key string, resp domain.ProxyResponse, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = resp
	m.stored = append(m.stored, key)
	return nil
}

// --- Mock EventPublisher ---

type mockEvents struct {
	mu     sync.Mutex
	events []domain.LookupEvent
}

func (m *mockEvents) PublishLookup(_ context.Context, e *domain.LookupEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}
