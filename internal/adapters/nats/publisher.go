package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoproxy/internal/core/domain"
)

const (
	// LookupStream retains lookup events for downstream analytics.
	LookupStream = "GEOCODE_LOOKUPS"
	// LookupSubjectPrefix is followed by the lowercased response status.
	LookupSubjectPrefix = "geoproxy.lookup."
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}

	p, err := NewPublisherWithConn(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// NewPublisherWithConn enables JetStream on an existing connection and
// ensures the lookup stream exists.
func NewPublisherWithConn(conn *nats.Conn) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      LookupStream,
		Subjects:  []string{LookupSubjectPrefix + ">"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist
		if _, err := js.UpdateStream(cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishLookup publishes to geoproxy.lookup.<status>.
func (p *Publisher) PublishLookup(ctx context.Context, event *domain.LookupEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(LookupSubject(event.Status))
	msg.Data = data
	// JetStream drops duplicates carrying the same id within its window
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

// IsConnected reports the connection state for readiness checks.
func (p *Publisher) IsConnected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// LookupSubject maps a status to its subject.
func LookupSubject(status domain.Status) string {
	return LookupSubjectPrefix + strings.ToLower(string(status))
}

// Connect creates a plain NATS connection that keeps retrying in the background.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("geoproxy"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
