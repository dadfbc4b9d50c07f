package natsq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/poiesic/cookbook/ingestion"
)

// Conn is the publishing half of *nats.Conn.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends job notifications to a subject.
type Publisher struct {
	conn    Conn
	subject string
}

var _ ingestion.Notifier = (*Publisher)(nil)

// NewPublisher creates a publisher on subject, or SubjectNotify if empty.
func NewPublisher(conn Conn, subject string) (*Publisher, error) {
	if conn == nil {
		return nil, ErrConnectionRequired
	}
	if subject == "" {
		subject = SubjectNotify
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// Notify publishes n as JSON.
func (p *Publisher) Notify(ctx context.Context, n ingestion.Notification) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return p.conn.Publish(p.subject, data)
}

// Connect dials url with reconnect handling that logs through logger.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "natsq")
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}
