package telemetry

// TracerName is the instrumentation scope for geocoding spans.
const TracerName = "github.com/samirrijal/geoproxy/internal/core/usecases"

// Span attribute keys.
const (
	AttrProvider      = "geocode.provider"
	AttrProviderCount = "geocode.provider_count"
	AttrHasBounds     = "geocode.has_bounds"
	AttrOutcome       = "geocode.outcome"
	AttrStatus        = "geocode.status"
)
