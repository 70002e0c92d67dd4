package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/moondial/internal/config"
	"git.home.luguber.info/inful/moondial/internal/dial"
	"git.home.luguber.info/inful/moondial/internal/logfields"
)

// Envelope is the message published for every reading.
type Envelope struct {
	ID          string       `json:"id"`
	PublishedAt time.Time    `json:"published_at"`
	Reading     dial.Reading `json:"reading"`
}

// publisher is the subset of jetstream.JetStream the NATS target uses.
type publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSPublisher publishes readings to a JetStream subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      publisher
	subject string
	timeout time.Duration
	now     func() time.Time
}

// NewNATSPublisher connects to NATS for publishing readings. The subject must
// be bound to a stream on the server.
func NewNATSPublisher(cfg *config.NATSConfig) (*NATSPublisher, error) {
	if cfg == nil {
		return nil, errors.New("nats config is required")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("moondial-publisher"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	slog.Info("NATS reading publisher initialized",
		slog.String("url", cfg.URL),
		logfields.Subject(cfg.Subject))

	return &NATSPublisher{conn: conn, js: js, subject: cfg.Subject, timeout: cfg.RequestTimeout(), now: time.Now}, nil
}

func (p *NATSPublisher) Name() string { return "nats" }

// Deliver publishes r wrapped in an Envelope. Same-day re-emits are skipped so
// subscribers see one message per committed update.
func (p *NATSPublisher) Deliver(ctx context.Context, r dial.Reading) error {
	if !r.Fresh {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	data, err := json.Marshal(Envelope{ID: uuid.NewString(), PublishedAt: p.now().UTC(), Reading: r})
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("failed to publish reading: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
