package http

import (
	"time"

	natsadapter "github.com/samirrijal/geoproxy/internal/adapters/nats"
	"github.com/samirrijal/geoproxy/internal/adapters/valkey"
	"github.com/samirrijal/geoproxy/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Geocoder *usecases.GeocodeService
	// Optional backends, reported by the readiness check.
	Cache *valkey.Cache
	NATS  *natsadapter.Publisher
	// RequestTimeout bounds a whole geocode request. Zero uses DefaultRequestTimeout.
	RequestTimeout time.Duration
	Version        string
}

// DefaultRequestTimeout covers a full fallback chain at the default fetch timeout.
const DefaultRequestTimeout = 10 * time.Second

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout > 0 {
		return d.RequestTimeout
	}
	return DefaultRequestTimeout
}
