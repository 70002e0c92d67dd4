package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/moondial/internal/config"
	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
)

var errBrokerDown = errors.New("connection refused")

func TestDo_SucceedsFirstTime(t *testing.T) {
	calls := 0
	err := Do(context.Background(), clockwork.NewFakeClock(), DefaultPolicy(), "connect", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesWithBackoff(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p := NewPolicy(config.RetryBackoffLinear, time.Second, 10*time.Second, 2)

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(context.Background(), clock, p, "connect", func(context.Context) error {
			calls++
			if calls < 3 {
				return errBrokerDown
			}
			return nil
		})
	}()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(time.Second)
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(2 * time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not finish")
	}
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	p := NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
	calls := 0
	err := Do(context.Background(), clockwork.NewRealClock(), p, "connect", func(context.Context) error {
		calls++
		return errBrokerDown
	})
	require.ErrorIs(t, err, errBrokerDown)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), clockwork.NewFakeClock(), DefaultPolicy(), "connect", func(context.Context) error {
		calls++
		return derrors.ConfigError("bad url").Build()
	})
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryConfig))
	assert.Equal(t, 1, calls)
}

func TestDo_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, clockwork.NewFakeClock(), DefaultPolicy(), "connect", func(context.Context) error {
		calls++
		return errBrokerDown
	})
	require.ErrorIs(t, err, errBrokerDown)
	assert.Equal(t, 1, calls)
}
