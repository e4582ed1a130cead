package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geoproxy/internal/core/domain"
	"github.com/samirrijal/geoproxy/internal/core/ports"
	"github.com/samirrijal/geoproxy/internal/pkg/logging"
	"github.com/samirrijal/geoproxy/internal/pkg/metrics"
	"github.com/samirrijal/geoproxy/internal/pkg/telemetry"
)

// DefaultFetchTimeout bounds each upstream call.
const DefaultFetchTimeout = time.Second

const (
	msgAllProvidersFailed = "all provider queries failed"
	msgZeroResults        = "Zero results"
)

// GeocodeService runs the provider fallback chain.
type GeocodeService struct {
	providers ports.ProviderRegistry
	fetcher   ports.Fetcher
	parser    *RequestParser
	cache     ports.ResponseCache
	events    ports.EventPublisher
	timeout   time.Duration
	cacheTTL  time.Duration
	tracer    trace.Tracer
}

// GeocodeOption customises a GeocodeService.
type GeocodeOption func(*GeocodeService)

// WithFetchTimeout overrides the per-call upstream timeout.
func WithFetchTimeout(d time.Duration) GeocodeOption {
	return func(s *GeocodeService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCache enables the read-through cache of OK responses.
func WithCache(cache ports.ResponseCache, ttl time.Duration) GeocodeOption {
	return func(s *GeocodeService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithEvents publishes a LookupEvent after every finalized lookup.
func WithEvents(events ports.EventPublisher) GeocodeOption {
	return func(s *GeocodeService) { s.events = events }
}

// WithBoundsMode selects how bounds strings are read.
func WithBoundsMode(mode BoundsMode) GeocodeOption {
	return func(s *GeocodeService) { s.parser = NewRequestParser(s.providers, mode) }
}

// NewGeocodeService creates a new GeocodeService.
func NewGeocodeService(providers ports.ProviderRegistry, fetcher ports.Fetcher, opts ...GeocodeOption) *GeocodeService {
	s := &GeocodeService{
		providers: providers,
		fetcher:   fetcher,
		parser:    NewRequestParser(providers, BoundsFixed),
		timeout:   DefaultFetchTimeout,
		tracer:    otel.Tracer(telemetry.TracerName),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Providers returns the registered provider ids in registration order.
func (s *GeocodeService) Providers() []domain.ProviderID {
	return s.providers.IDs()
}

// Lookup parses a raw request and runs it through the fallback chain.
// It always returns a well-formed response.
func (s *GeocodeService) Lookup(ctx context.Context, raw RawRequest) domain.ProxyResponse {
	req, err := s.parser.Parse(ctx, raw)
	if err != nil {
		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			resp := domain.NewErrorResponse(firstOrEmpty(raw.Address), clientErr.Status, clientErr.Message)
			metrics.GeocodeResponses.WithLabelValues(string(resp.Status), "false").Inc()
			return resp
		}
		return domain.NewErrorResponse(firstOrEmpty(raw.Address), domain.StatusUnknownError, err.Error())
	}
	return s.Geocode(ctx, req)
}

// Geocode queries each provider in req.ProviderOrder until one succeeds.
// Zero results from a provider are tentative: a later success replaces them.
func (s *GeocodeService) Geocode(ctx context.Context, req domain.GeocodeRequest) (resp domain.ProxyResponse) {
	start := time.Now()
	logger := logging.FromContext(ctx)

	ctx, span := s.tracer.Start(ctx, "geocode.lookup", trace.WithAttributes(
		attribute.Int(telemetry.AttrProviderCount, len(req.ProviderOrder)),
		attribute.Bool(telemetry.AttrHasBounds, req.Bounds != nil),
	))

	var attempted []domain.ProviderID
	cached := false

	defer func() {
		if r := recover(); r != nil {
			logger.Error("geocode panic", "panic", r)
			resp = domain.NewErrorResponse(req.Query, domain.StatusUnknownError,
				fmt.Sprintf("Caught general exception in server: %v", r))
		}
		span.SetAttributes(attribute.String(telemetry.AttrStatus, string(resp.Status)))
		if resp.Status == domain.StatusUnknownError {
			span.SetStatus(codes.Error, resp.Message)
		}
		span.End()

		metrics.GeocodeResponses.WithLabelValues(string(resp.Status), fmt.Sprint(cached)).Inc()
		s.publish(ctx, resp, attempted, cached, time.Since(start))
		logger.Info("geocode completed",
			"status", resp.Status,
			"source", resp.Source,
			"attempted", attempted,
			"cached", cached,
			"duration", time.Since(start).String(),
		)
	}()

	key := CacheKey(req)
	if s.cache != nil {
		if hit, ok := s.cache.Lookup(ctx, key); ok && hit.OK() {
			metrics.CacheHits.WithLabelValues("geocode").Inc()
			cached = true
			hit.Query = req.Query
			return hit
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	pending := domain.NewErrorResponse(req.Query, domain.StatusUnknownError, msgAllProvidersFailed)

	for _, id := range req.ProviderOrder {
		attempted = append(attempted, id)

		result := s.attempt(ctx, id, req)
		switch result.Kind {
		case domain.OutcomeSuccess:
			resp = domain.NewOKResponse(req.Query, id, result.ResolvedAddress, result.Latitude, result.Longitude)
			if s.cache != nil {
				if err := s.cache.Store(ctx, key, resp, s.cacheTTL); err != nil {
					logger.Warn("cache store failed", "error", err)
				}
			}
			return resp
		case domain.OutcomeZeroResults:
			pending = domain.NewErrorResponse(req.Query, domain.StatusZeroResults, msgZeroResults)
		default:
			logger.Debug("provider attempt failed", "provider", id, "error", result.Err)
		}
	}

	return pending
}

// attempt runs one build/fetch/parse cycle against a single provider.
func (s *GeocodeService) attempt(ctx context.Context, id domain.ProviderID, req domain.GeocodeRequest) domain.ProviderResult {
	ctx, span := s.tracer.Start(ctx, "geocode.provider_attempt",
		trace.WithAttributes(attribute.String(telemetry.AttrProvider, string(id))))
	defer span.End()

	start := time.Now()
	result := s.run(ctx, id, req)

	metrics.ProviderAttempts.WithLabelValues(string(id), result.Kind.String()).Inc()
	metrics.ProviderLatency.WithLabelValues(string(id)).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String(telemetry.AttrOutcome, result.Kind.String()))
	if result.Err != nil {
		span.RecordError(result.Err)
	}
	return result
}

func (s *GeocodeService) run(ctx context.Context, id domain.ProviderID, req domain.GeocodeRequest) domain.ProviderResult {
	provider, ok := s.providers.Get(id)
	if !ok {
		return domain.Failure(fmt.Errorf("provider %q is not registered", id))
	}

	query := provider.BuildQuery(req.Address, req.Bounds)
	logging.FromContext(ctx).Info("querying provider", "provider", id, "host", hostOf(query.URL))

	body, err := s.fetcher.Fetch(ctx, query.URL, s.timeout)
	if err != nil {
		return domain.Failure(fmt.Errorf("fetch %s: %w", id, err))
	}
	if len(body) == 0 {
		return domain.Failure(fmt.Errorf("fetch %s: empty body", id))
	}
	return provider.ParseResponse(body)
}

func (s *GeocodeService) publish(ctx context.Context, resp domain.ProxyResponse, attempted []domain.ProviderID, cached bool, elapsed time.Duration) {
	if s.events == nil {
		return
	}
	event := &domain.LookupEvent{
		ID:        uuid.New().String(),
		Query:     resp.Query,
		Status:    resp.Status,
		Source:    resp.Source,
		Attempted: attempted,
		Cached:    cached,
		Duration:  float64(elapsed.Microseconds()) / 1000,
		Time:      time.Now().UTC(),
	}
	if err := s.events.PublishLookup(context.WithoutCancel(ctx), event); err != nil {
		logging.FromContext(ctx).Warn("publish lookup event failed", "error", err)
	}
}

// CacheKey identifies a normalized request for the response cache.
func CacheKey(req domain.GeocodeRequest) string {
	order := make([]string, len(req.ProviderOrder))
	for i, id := range req.ProviderOrder {
		order[i] = string(id)
	}
	key := "geocode:" + req.Address + ":" + strings.Join(order, ",")
	if req.Bounds != nil {
		key += ":" + domain.FormatDegrees(req.Bounds.BottomLeft.Latitude) +
			"," + domain.FormatDegrees(req.Bounds.BottomLeft.Longitude) +
			"|" + domain.FormatDegrees(req.Bounds.TopRight.Latitude) +
			"," + domain.FormatDegrees(req.Bounds.TopRight.Longitude)
	}
	return key
}

// hostOf keeps credentials in the query string out of the logs.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	return u.Host
}

func firstOrEmpty(values []string) string {
	if len(values) == 1 {
		return values[0]
	}
	return ""
}
