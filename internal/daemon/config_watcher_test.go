package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/moondial/internal/config"
	"git.home.luguber.info/inful/moondial/internal/observability"
	"git.home.luguber.info/inful/moondial/internal/storage"
)

const watchedConfig = `version: "1.0"
dial:
  location: UTC
  tick_interval: 1m
storage:
  backend: memory
http:
  disabled: true
monitoring:
  logging:
    level: %s
`

func writeWatchedConfig(t *testing.T, path, level string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(watchedConfig, level)), 0o600))
}

func newWatchedDaemon(t *testing.T) (*Daemon, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moondial.yaml")
	writeWatchedConfig(t, path, "info")

	cfg, _, err := config.Load(path)
	require.NoError(t, err)

	logger := observability.NewLogger(io.Discard, cfg.Monitoring.Logging)
	d, err := NewDaemon(cfg, path, WithSlot(storage.NewMemorySlot()), WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Stop(context.Background()) })
	return d, path
}

func TestConfigWatcher_PerformReload(t *testing.T) {
	d, path := newWatchedDaemon(t)
	cw, err := NewConfigWatcher(path, d)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cw.Stop(context.Background()) })

	writeWatchedConfig(t, path, "debug")
	require.NoError(t, cw.performReload(context.Background()))
	assert.Equal(t, slog.LevelDebug, d.logger.Level())
	assert.Equal(t, config.LogLevelDebug, d.GetConfig().Monitoring.Logging.Level)
}

func TestConfigWatcher_PerformReloadRejectsBrokenFile(t *testing.T) {
	d, path := newWatchedDaemon(t)
	cw, err := NewConfigWatcher(path, d)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cw.Stop(context.Background()) })

	require.NoError(t, os.WriteFile(path, []byte("version: \"9.9\"\n"), 0o600))
	require.Error(t, cw.performReload(context.Background()))
	assert.Equal(t, config.LogLevelInfo, d.GetConfig().Monitoring.Logging.Level)
}

func TestConfigWatcher_ValidateConfigChange(t *testing.T) {
	d, path := newWatchedDaemon(t)
	cw, err := NewConfigWatcher(path, d)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cw.Stop(context.Background()) })

	next := *d.GetConfig()
	require.NoError(t, cw.validateConfigChange(&next))
	next.Version = "2.0"
	require.Error(t, cw.validateConfigChange(&next))
}

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	d, path := newWatchedDaemon(t)
	cw, err := NewConfigWatcher(path, d)
	require.NoError(t, err)
	cw.debounceTime = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, cw.Start(ctx))
	t.Cleanup(func() { _ = cw.Stop(context.Background()) })

	writeWatchedConfig(t, path, "warn")

	require.Eventually(t, func() bool {
		return d.logger.Level() == slog.LevelWarn
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, cw.Stop(context.Background()))
	require.NoError(t, cw.Stop(context.Background()))
}
