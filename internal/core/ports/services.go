package ports

import (
	"context"
	"time"

	"github.com/samirrijal/geoproxy/internal/core/domain"
)

// Provider adapts one third-party geocoding API. Implementations must be
// stateless: every per-request value goes through arguments and results.
type Provider interface {
	ID() domain.ProviderID
	// BoundsConvention is the corner pair the provider's own API expects.
	BoundsConvention() domain.BoundsConvention
	BuildQuery(address string, bounds *domain.BoundingBox) domain.ProviderQuery
	ParseResponse(body []byte) domain.ProviderResult
}

// ProviderRegistry resolves provider ids in registration order.
type ProviderRegistry interface {
	IDs() []domain.ProviderID
	Get(id domain.ProviderID) (Provider, bool)
}

// Fetcher performs a single upstream GET, failing if no body arrives within timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
}

// ResponseCache stores finalized responses keyed by normalized request.
type ResponseCache interface {
	Lookup(ctx context.Context, key string) (domain.ProxyResponse, bool)
	Store(ctx context.Context, key string, resp domain.ProxyResponse, ttl time.Duration) error
}

// EventPublisher publishes lookup events to a message broker.
type EventPublisher interface {
	PublishLookup(ctx context.Context, event *domain.LookupEvent) error
}
