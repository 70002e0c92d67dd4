package retry

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
	"git.home.luguber.info/inful/moondial/internal/logfields"
)

// Do calls fn until it succeeds, the policy runs out of retries, ctx ends,
// or fn returns a classified error that cannot be retried. The last error
// from fn is returned. A nil clock uses the wall clock.
func Do(ctx context.Context, clock clockwork.Clock, p Policy, op string, fn func(context.Context) error) error {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if c, ok := derrors.AsClassified(err); ok && !c.CanRetry() {
			return err
		}
		if attempt >= p.MaxRetries {
			return err
		}

		delay := p.Delay(attempt + 1)
		slog.WarnContext(ctx, "Retrying after transient failure",
			slog.String("operation", op),
			logfields.Attempt(attempt+1),
			slog.Duration("delay", delay),
			logfields.Error(err))

		select {
		case <-ctx.Done():
			return err
		case <-clock.After(delay):
		}
	}
}
