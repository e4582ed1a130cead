package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoproxy",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geoproxy",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Geocoding metrics
	ProviderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoproxy",
		Subsystem: "provider",
		Name:      "attempts_total",
		Help:      "Provider attempts by outcome (success, zero_results, failure)",
	}, []string{"provider", "outcome"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geoproxy",
		Subsystem: "provider",
		Name:      "attempt_duration_seconds",
		Help:      "Duration of a single provider build/fetch/parse cycle",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"provider"})

	GeocodeResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoproxy",
		Subsystem: "geocode",
		Name:      "responses_total",
		Help:      "Finalized geocode responses by status",
	}, []string{"status", "cached"})

	FetchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geoproxy",
		Subsystem: "upstream",
		Name:      "fetches_in_flight",
		Help:      "Upstream fetches currently holding a worker slot",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoproxy",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoproxy",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
