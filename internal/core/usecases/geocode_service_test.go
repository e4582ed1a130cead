package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/samirrijal/geoproxy/internal/core/domain"
	"github.com/samirrijal/geoproxy/internal/core/usecases"
)

func success(addr string, lat, lon float64) func([]byte) domain.ProviderResult {
	return func([]byte) domain.ProviderResult { return domain.Success(addr, lat, lon) }
}

func zero([]byte) domain.ProviderResult { return domain.ZeroResults() }

func failure([]byte) domain.ProviderResult { return domain.Failure(errors.New("boom")) }

func lookup(svc *usecases.GeocodeService, address string) domain.ProxyResponse {
	return svc.Lookup(context.Background(), usecases.RawRequest{Address: []string{address}})
}

func TestGeocodeService_ZeroResultsIsTentative(t *testing.T) {
	reg := newMockRegistry(
		&mockProvider{id: "p1", parseFn: zero},
		&mockProvider{id: "p2", parseFn: success("42 Main St", 10, 20)},
	)
	svc := usecases.NewGeocodeService(reg, &mockFetcher{})

	got := lookup(svc, "42 Main St")
	want := domain.NewOKResponse("42 Main St", "p2", "42 Main St", 10, 20)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestGeocodeService_StopsAtFirstSuccess(t *testing.T) {
	reg := newMockRegistry(
		&mockProvider{id: "p1", parseFn: success("A", 1, 2)},
		&mockProvider{id: "p2", parseFn: success("B", 3, 4)},
	)
	fetcher := &mockFetcher{}
	svc := usecases.NewGeocodeService(reg, fetcher)

	got := lookup(svc, "a")
	if got.Source != "p1" {
		t.Errorf("expected source p1, got %s", got.Source)
	}
	if n := len(fetcher.calls()); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestGeocodeService_AllFailed(t *testing.T) {
	reg := newMockRegistry(
		&mockProvider{id: "p1", parseFn: failure},
		&mockProvider{id: "p2", parseFn: failure},
	)
	fetcher := &mockFetcher{}
	svc := usecases.NewGeocodeService(reg, fetcher)

	got := lookup(svc, "a")
	want := domain.NewErrorResponse("a", domain.StatusUnknownError, "all provider queries failed")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
	if n := len(fetcher.calls()); n != 2 {
		t.Errorf("expected 2 fetches, got %d", n)
	}
}

func TestGeocodeService_AllZero(t *testing.T) {
	reg := newMockRegistry(
		&mockProvider{id: "p1", parseFn: zero},
		&mockProvider{id: "p2", parseFn: zero},
	)
	svc := usecases.NewGeocodeService(reg, &mockFetcher{})

	got := lookup(svc, "nowhere")
	if got.Status != domain.StatusZeroResults {
		t.Errorf("expected ZERO_RESULTS, got %s", got.Status)
	}
}

func TestGeocodeService_ZeroThenFailureStaysZero(t *testing.T) {
	reg := newMockRegistry(
		&mockProvider{id: "p1", parseFn: zero},
		&mockProvider{id: "p2", parseFn: failure},
	)
	svc := usecases.NewGeocodeService(reg, &mockFetcher{})

	if got := lookup(svc, "a"); got.Status != domain.StatusZeroResults {
		t.Errorf("expected ZERO_RESULTS, got %s", got.Status)
	}
}

func TestGeocodeService_FetchErrorFallsThrough(t *testing.T) {
	reg := newMockRegistry(
		&mockProvider{id: "p1", parseFn: func([]byte) domain.ProviderResult {
			t.Error("p1 must not be parsed after a fetch error")
			return domain.ZeroResults()
		}},
		&mockProvider{id: "p2", parseFn: success("B", 3, 4)},
	)
	fetcher := &mockFetcher{fetchFn: func(_ context.Context, url string) ([]byte, error) {
		if strings.Contains(url, "p1.test") {
			return nil, context.DeadlineExceeded
		}
		return []byte(`{}`), nil
	}}
	svc := usecases.NewGeocodeService(reg, fetcher)

	if got := lookup(svc, "a"); got.Source != "p2" {
		t.Errorf("expected source p2, got %+v", got)
	}
}

func TestGeocodeService_EmptyBodyIsFailure(t *testing.T) {
	reg := newMockRegistry(&mockProvider{id: "p1", parseFn: zero})
	fetcher := &mockFetcher{fetchFn: func(context.Context, string) ([]byte, error) { return nil, nil }}
	svc := usecases.NewGeocodeService(reg, fetcher)

	if got := lookup(svc, "a"); got.Status != domain.StatusUnknownError {
		t.Errorf("expected UNKNOWN_ERROR, got %s", got.Status)
	}
}

func TestGeocodeService_PanicBecomesUnknownError(t *testing.T) {
	reg := newMockRegistry(&mockProvider{id: "p1", parseFn: func([]byte) domain.ProviderResult {
		panic("unexpected")
	}})
	svc := usecases.NewGeocodeService(reg, &mockFetcher{})

	got := lookup(svc, "a")
	if got.Status != domain.StatusUnknownError {
		t.Fatalf("expected UNKNOWN_ERROR, got %s", got.Status)
	}
	if got.Query != "a" || got.Message == "" {
		t.Errorf("unexpected response %+v", got)
	}
}

func TestGeocodeService_InvalidRequest(t *testing.T) {
	fetcher := &mockFetcher{}
	svc := usecases.NewGeocodeService(newTestRegistry(), fetcher)

	got := svc.Lookup(context.Background(), usecases.RawRequest{})
	if got.Status != domain.StatusInvalidRequest {
		t.Errorf("expected INVALID_REQUEST, got %s", got.Status)
	}
	if len(fetcher.calls()) != 0 {
		t.Error("no provider should be queried for an invalid request")
	}
}

func TestGeocodeService_ServiceSelectsFirstProvider(t *testing.T) {
	fetcher := &mockFetcher{}
	reg := newMockRegistry(
		&mockProvider{id: "google", parseFn: zero},
		&mockProvider{id: "here", parseFn: zero},
	)
	svc := usecases.NewGeocodeService(reg, fetcher)

	svc.Lookup(context.Background(), usecases.RawRequest{
		Address: []string{"two words"},
		Service: []string{"here"},
	})

	want := []string{
		"http://here.test/geocode?q=two+words",
		"http://google.test/geocode?q=two+words",
	}
	if diff := cmp.Diff(want, fetcher.calls()); diff != "" {
		t.Errorf("fetch order mismatch (-want +got):\n%s", diff)
	}
}

func TestGeocodeService_Cache(t *testing.T) {
	reg := newMockRegistry(&mockProvider{id: "p1", parseFn: success("A", 1, 2)})
	fetcher := &mockFetcher{}
	cache := newMockCache()
	svc := usecases.NewGeocodeService(reg, fetcher, usecases.WithCache(cache, time.Minute))

	first := lookup(svc, "a")
	second := lookup(svc, "a")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached response differs (-first +second):\n%s", diff)
	}
	if n := len(fetcher.calls()); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
	if len(cache.stored) != 1 {
		t.Errorf("expected 1 store, got %d", len(cache.stored))
	}
}

func TestGeocodeService_CacheSkipsErrors(t *testing.T) {
	reg := newMockRegistry(&mockProvider{id: "p1", parseFn: zero})
	cache := newMockCache()
	svc := usecases.NewGeocodeService(reg, &mockFetcher{}, usecases.WithCache(cache, time.Minute))

	lookup(svc, "a")
	if len(cache.stored) != 0 {
		t.Errorf("expected nothing stored, got %v", cache.stored)
	}
}

func TestGeocodeService_PublishesEvents(t *testing.T) {
	reg := newMockRegistry(
		&mockProvider{id: "p1", parseFn: failure},
		&mockProvider{id: "p2", parseFn: success("B", 3, 4)},
	)
	events := &mockEvents{}
	svc := usecases.NewGeocodeService(reg, &mockFetcher{}, usecases.WithEvents(events))

	lookup(svc, "b")

	if len(events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.events))
	}
	e := events.events[0]
	if e.ID == "" || e.Status != domain.StatusOK || e.Source != "p2" || e.Cached {
		t.Errorf("unexpected event %+v", e)
	}
	if diff := cmp.Diff([]domain.ProviderID{"p1", "p2"}, e.Attempted); diff != "" {
		t.Errorf("attempted mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheKey(t *testing.T) {
	bb := domain.BoundingBoxFromBottomLeftTopRight(domain.NewCoordinate(1, 2), domain.NewCoordinate(3, 4))
	req := domain.GeocodeRequest{
		Query:         "a b",
		Address:       "a+b",
		ProviderOrder: []domain.ProviderID{"here", "google"},
		Bounds:        &bb,
	}
	if got, want := usecases.CacheKey(req), "geocode:a+b:here,google:1.0,2.0|3.0,4.0"; got != want {
		t.Errorf("CacheKey = %q, want %q", got, want)
	}
}
