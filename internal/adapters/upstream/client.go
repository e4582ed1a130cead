package upstream

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/sync/semaphore"

	"github.com/samirrijal/geoproxy/internal/pkg/metrics"
)

// DefaultWorkers caps concurrent upstream calls across all requests.
const DefaultWorkers = 4

// Client fetches provider responses over HTTP. A weighted semaphore bounds
// the number of calls in flight; waiting for a slot counts against the
// caller's timeout.
type Client struct {
	http *fasthttp.Client
	sem  *semaphore.Weighted
}

// New creates a Client with a default fasthttp client.
func New(workers int) *Client {
	return NewWithClient(&fasthttp.Client{
		Name:            "geoproxy",
		MaxConnsPerHost: 64,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
	}, workers)
}

// NewWithClient wraps an existing fasthttp client.
func NewWithClient(c *fasthttp.Client, workers int) *Client {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Client{http: c, sem: semaphore.NewWeighted(int64(workers))}
}

// Fetch issues a GET and returns the body. Non-2xx replies, transport errors
// and timeouts all return an error.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	acquireCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	if err := c.sem.Acquire(acquireCtx, 1); err != nil {
		return nil, fmt.Errorf("waiting for fetch slot: %w", err)
	}
	defer c.sem.Release(1)

	metrics.FetchInFlight.Inc()
	defer metrics.FetchInFlight.Dec()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("GET %s: %w", redact(req), err)
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return nil, fmt.Errorf("HTTP %d for %s", code, redact(req))
	}

	// resp is returned to the pool, so the body must be copied out
	body := append([]byte(nil), resp.Body()...)
	return body, nil
}

// redact keeps credentials in the query string out of error messages.
func redact(req *fasthttp.Request) string {
	u := req.URI()
	return string(u.Scheme()) + "://" + string(u.Host()) + string(u.Path())
}
