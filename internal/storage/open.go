package storage

import (
	"context"

	"git.home.luguber.info/inful/moondial/internal/config"
	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
	"git.home.luguber.info/inful/moondial/internal/retry"
)

// Open builds the slot selected by cfg.Storage.Backend. Connecting to NATS
// is retried per nats.retry; each attempt is bounded by nats.timeout.
func Open(ctx context.Context, cfg *config.Config) (Slot, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendMemory:
		return NewMemorySlot(), nil
	case config.StorageBackendNATS:
		var s *NATSSlot
		err := retry.Do(ctx, nil, retry.FromNATS(cfg.NATS.Retry), "open NATS angle slot", func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, cfg.NATS.RequestTimeout())
			defer cancel()
			var err error
			s, err = NewNATSSlot(attemptCtx, &cfg.NATS)
			return err
		})
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryNetwork, "failed to open NATS angle slot").
				WithContext("url", cfg.NATS.URL).
				WithContext("bucket", cfg.NATS.Bucket).
				Retryable().
				Build()
		}
		return s, nil
	case config.StorageBackendFile, "":
		s, err := NewFileSlot(cfg.Storage.AngleFile)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryStorage, "failed to open angle file").
				WithContext("path", cfg.Storage.AngleFile).
				Build()
		}
		return s, nil
	default:
		return nil, derrors.ConfigError("unsupported storage backend").
			WithContext("backend", string(cfg.Storage.Backend)).
			Build()
	}
}
