package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/moondial/internal/config"
	"git.home.luguber.info/inful/moondial/internal/logfields"
)

// keyValue is the subset of jetstream.KeyValue the slot uses.
type keyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// NATSSlot stores the angle under a single key of a JetStream KV bucket, so
// several dial instances can share one position.
type NATSSlot struct {
	conn    *nats.Conn
	kv      keyValue
	key     string
	timeout time.Duration
}

// NewNATSSlot connects to NATS and opens (or creates) the configured bucket.
func NewNATSSlot(ctx context.Context, cfg *config.NATSConfig) (*NATSSlot, error) {
	if cfg == nil {
		return nil, errors.New("nats config is required")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("moondial"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := openBucket(ctx, js, cfg.Bucket)
	if err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("NATS angle slot initialized",
		slog.String("url", cfg.URL),
		slog.String("bucket", cfg.Bucket),
		slog.String("key", cfg.Key))

	return &NATSSlot{conn: conn, kv: kv, key: cfg.Key, timeout: cfg.RequestTimeout()}, nil
}

func openBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Persisted moon dial angle",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create KV bucket: %w", err)
	}
	slog.Info("Created KV bucket for dial angle", logfields.Backend(string(config.StorageBackendNATS)), slog.String("bucket", bucket))
	return kv, nil
}

// Load reads the stored angle.
func (n *NATSSlot) Load(ctx context.Context) (int, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	entry, err := n.kv.Get(ctx, n.key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get angle: %w", err)
	}

	angle, ok := ParseAngle(entry.Value())
	return angle, ok, nil
}

// Save replaces the stored angle.
func (n *NATSSlot) Save(ctx context.Context, angle int) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if _, err := n.kv.Put(ctx, n.key, FormatAngle(angle)); err != nil {
		return fmt.Errorf("failed to put angle: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (n *NATSSlot) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
