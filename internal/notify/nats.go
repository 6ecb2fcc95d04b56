package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/logfields"
)

const connectTimeout = 5 * time.Second

// NATSPublisher publishes build events on a core NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url and publishes on subject.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if url == "" {
		return nil, errors.ConfigError("notify.nats_url is required").Build()
	}
	if subject == "" {
		return nil, errors.ConfigError("notify.subject is required").Build()
	}

	conn, err := nats.Connect(url,
		nats.Name("dist"),
		nats.Timeout(connectTimeout),
	)
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").
			WithCause(err).WithContext("url", url).Build()
	}

	slog.Info("NATS publisher initialized", logfields.URL(url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish sends event and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, event BuildEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return errors.InternalError("failed to marshal build event").WithCause(err).Build()
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.NetworkError("failed to publish build event").
			WithCause(err).WithContext("subject", p.subject).Build()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errors.NetworkError("failed to flush build event").
			WithCause(err).WithContext("subject", p.subject).Build()
	}

	slog.Debug("Published build event",
		logfields.RunID(event.RunID),
		slog.String("subject", p.subject),
		slog.String("status", event.Status))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
