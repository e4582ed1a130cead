package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/geoproxy/internal/core/domain"
	"github.com/samirrijal/geoproxy/internal/pkg/logging"
)

// Cache implements ports.ResponseCache using Valkey (Redis-compatible).
type Cache struct {
	client valkey.Client
}

// New creates a new Valkey cache client.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client valkey.Client) *Cache {
	return &Cache{client: client}
}

// Lookup returns a cached response. Misses, transport errors and undecodable
// entries all read as a miss; the cache never fails a lookup.
func (c *Cache) Lookup(ctx context.Context, key string) (domain.ProxyResponse, bool) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			logging.FromContext(ctx).Warn("cache lookup failed", "error", err)
		}
		return domain.ProxyResponse{}, false
	}

	var resp domain.ProxyResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		logging.FromContext(ctx).Warn("discarding corrupt cache entry", "key", key, "error", err)
		return domain.ProxyResponse{}, false
	}
	return resp, true
}

// Store writes a response with a TTL.
func (c *Cache) Store(ctx context.Context, key string, resp domain.ProxyResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	cmd := c.client.B().Set().Key(key).Value(valkey.BinaryString(data))
	if ttl > 0 {
		return c.client.Do(ctx, cmd.Ex(ttl).Build()).Error()
	}
	return c.client.Do(ctx, cmd.Build()).Error()
}

// Ping reports whether the server answers.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
