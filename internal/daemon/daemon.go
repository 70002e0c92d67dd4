// Package daemon runs the moon dial as a long-lived service: a periodic clock
// tick drives the dial machine, readings fan out to the configured sinks, and
// a small HTTP server exposes the current reading, health and metrics.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/moondial/internal/config"
	"git.home.luguber.info/inful/moondial/internal/dial"
	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
	"git.home.luguber.info/inful/moondial/internal/journal"
	"git.home.luguber.info/inful/moondial/internal/logfields"
	"git.home.luguber.info/inful/moondial/internal/metrics"
	"git.home.luguber.info/inful/moondial/internal/observability"
	"git.home.luguber.info/inful/moondial/internal/retry"
	"git.home.luguber.info/inful/moondial/internal/sink"
	"git.home.luguber.info/inful/moondial/internal/storage"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Daemon owns the dial machine and everything around it.
type Daemon struct {
	mu         sync.RWMutex
	config     *config.Config
	configPath string
	status     Status
	startTime  time.Time

	clock    clockwork.Clock
	logger   *observability.Logger
	location *time.Location
	registry *prom.Registry
	recorder metrics.Recorder

	slot      storage.Slot
	journal   *journal.Journal
	publisher *sink.NATSPublisher
	latest    *sink.Latest
	fanout    *sink.Fanout
	machine   *dial.Machine

	scheduler     *Scheduler
	httpServer    *HTTPServer
	configWatcher *ConfigWatcher

	closeOnce sync.Once
	closeErr  error
}

// Option customizes a Daemon at construction.
type Option func(*Daemon)

// WithClock replaces the wall clock driving ticks.
func WithClock(c clockwork.Clock) Option {
	return func(d *Daemon) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithLogger replaces the logger built from the monitoring config.
func WithLogger(l *observability.Logger) Option {
	return func(d *Daemon) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithSlot replaces the angle slot selected by the storage config.
func WithSlot(s storage.Slot) Option {
	return func(d *Daemon) {
		if s != nil {
			d.slot = s
		}
	}
}

// NewDaemon wires the dial service from cfg. configPath is watched for
// changes once the daemon starts; pass "" to disable reloads.
func NewDaemon(cfg *config.Config, configPath string, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, derrors.ConfigError("configuration is required").Build()
	}

	loc, err := cfg.Dial.LoadLocation()
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "invalid dial location").
			WithContext("location", cfg.Dial.Location).
			Build()
	}

	d := &Daemon{
		config:     cfg,
		configPath: configPath,
		status:     StatusStopped,
		clock:      clockwork.NewRealClock(),
		location:   loc,
		registry:   prom.NewRegistry(),
		latest:     sink.NewLatest(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = observability.NewLogger(os.Stderr, cfg.Monitoring.Logging)
	}
	d.recorder = metrics.NewPrometheusRecorder(d.registry)

	if d.slot == nil {
		slot, err := storage.Open(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		d.slot = slot
	}

	if cfg.Storage.JournalPath != "" {
		j, err := journal.Open(cfg.Storage.JournalPath)
		if err != nil {
			_ = d.closeResources()
			return nil, err
		}
		d.journal = j
	}

	d.fanout = sink.NewFanout(d.recorder, d.logger.Logger, sink.NewLog(d.logger.Logger), d.latest)
	if d.journal != nil {
		d.fanout.Add(d.journal)
	}
	if cfg.NATS.Publish {
		var p *sink.NATSPublisher
		err := retry.Do(context.Background(), nil, retry.FromNATS(cfg.NATS.Retry), "connect NATS reading publisher", func(context.Context) error {
			var err error
			p, err = sink.NewNATSPublisher(&cfg.NATS)
			return err
		})
		if err != nil {
			_ = d.closeResources()
			return nil, derrors.WrapError(err, derrors.CategoryNetwork, "failed to start NATS reading publisher").
				WithContext("subject", cfg.NATS.Subject).
				Retryable().
				Build()
		}
		d.publisher = p
		d.fanout.Add(p)
	}

	d.machine = dial.NewMachine(d.slot,
		dial.WithSink(d.fanout),
		dial.WithRecorder(d.recorder),
		dial.WithLogger(d.logger.Logger))

	d.scheduler, err = NewScheduler(d.clock, loc, d.logger.Logger)
	if err != nil {
		_ = d.closeResources()
		return nil, derrors.WrapError(err, derrors.CategoryDaemon, "failed to create scheduler").Build()
	}

	if !cfg.HTTP.Disabled {
		d.httpServer = NewHTTPServer(cfg, d)
	}

	return d, nil
}

// Start schedules the clock tick and starts the HTTP server and config watcher.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.status == StatusRunning || d.status == StatusStarting {
		d.mu.Unlock()
		return derrors.DaemonError("daemon is already running").Build()
	}
	d.status = StatusStarting
	d.startTime = d.clock.Now()
	cfg := d.config
	d.mu.Unlock()

	if err := d.start(ctx, cfg); err != nil {
		d.setStatus(StatusError)
		return err
	}

	d.setStatus(StatusRunning)
	d.logger.InfoContext(ctx, "Moondial daemon started",
		logfields.Backend(string(cfg.Storage.Backend)),
		logfields.Interval(cfg.Dial.Interval().String()),
		slog.String("location", d.location.String()),
		slog.Any("sinks", d.fanout.Targets()))
	return nil
}

func (d *Daemon) start(ctx context.Context, cfg *config.Config) error {
	if _, err := d.scheduler.ScheduleTicks(cfg.Dial.Interval(), d.onTick); err != nil {
		return derrors.WrapError(err, derrors.CategoryDaemon, "failed to schedule dial tick").Build()
	}

	if d.httpServer != nil {
		if err := d.httpServer.Start(ctx); err != nil {
			return derrors.WrapError(err, derrors.CategoryDaemon, "failed to start HTTP server").
				WithContext("addr", cfg.HTTP.Addr).
				Build()
		}
	}

	if d.configPath != "" {
		w, err := NewConfigWatcher(d.configPath, d)
		if err != nil {
			return derrors.WrapError(err, derrors.CategoryDaemon, "failed to create config watcher").Build()
		}
		if err := w.Start(ctx); err != nil {
			_ = w.Stop(ctx)
			return derrors.WrapError(err, derrors.CategoryDaemon, "failed to start config watcher").Build()
		}
		d.mu.Lock()
		d.configWatcher = w
		d.mu.Unlock()
	}

	d.scheduler.Start(ctx)
	return nil
}

// Stop shuts everything down and closes the slot, journal and publisher.
// Stopping a daemon that never started only releases its resources.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.status == StatusStopped {
		d.mu.Unlock()
		return d.closeResources()
	}
	d.status = StatusStopping
	watcher := d.configWatcher
	d.configWatcher = nil
	d.mu.Unlock()

	d.logger.InfoContext(ctx, "Stopping moondial daemon")

	var errs []error
	if watcher != nil {
		errs = append(errs, watcher.Stop(ctx))
	}
	errs = append(errs, d.scheduler.Stop(ctx))
	if d.httpServer != nil {
		errs = append(errs, d.httpServer.Stop(ctx))
	}
	errs = append(errs, d.closeResources())

	d.setStatus(StatusStopped)
	if err := errors.Join(errs...); err != nil {
		return derrors.WrapError(err, derrors.CategoryDaemon, "daemon shutdown incomplete").Build()
	}
	d.logger.InfoContext(ctx, "Moondial daemon stopped")
	return nil
}

// Tick runs one update at the daemon clock's current time.
func (d *Daemon) Tick(ctx context.Context) dial.Reading {
	d.mu.RLock()
	loc := d.location
	d.mu.RUnlock()
	return d.machine.OnTick(ctx, d.clock.Now().In(loc))
}

func (d *Daemon) onTick(ctx context.Context, at time.Time) {
	d.machine.OnTick(ctx, at)
}

// ReloadConfig applies the settings that can change at runtime: log level,
// tick interval and location. Anything else is logged and waits for a restart.
func (d *Daemon) ReloadConfig(ctx context.Context, newConfig *config.Config) error {
	if newConfig == nil {
		return derrors.ConfigError("configuration is required").Build()
	}

	loc, err := newConfig.Dial.LoadLocation()
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryConfig, "invalid dial location").
			WithContext("location", newConfig.Dial.Location).
			Build()
	}

	d.mu.Lock()
	old := d.config
	d.config = newConfig
	d.location = loc
	d.mu.Unlock()

	d.logger.SetLevel(newConfig.Monitoring.Logging.Level)
	d.scheduler.SetLocation(loc)

	if interval := newConfig.Dial.Interval(); interval != old.Dial.Interval() && d.scheduler.Interval() > 0 {
		if err := d.scheduler.Reschedule(interval); err != nil {
			return derrors.WrapError(err, derrors.CategoryDaemon, "failed to apply new tick interval").
				WithContext("interval", interval.String()).
				Build()
		}
	}

	if old.Storage != newConfig.Storage || old.NATS != newConfig.NATS {
		d.logger.WarnContext(ctx, "Storage or NATS changes require a restart to take effect")
	}
	if old.HTTP != newConfig.HTTP || old.Monitoring.Metrics != newConfig.Monitoring.Metrics ||
		old.Monitoring.Health != newConfig.Monitoring.Health {
		d.logger.WarnContext(ctx, "HTTP changes require a restart to take effect")
	}

	d.logger.InfoContext(ctx, "Configuration applied",
		logfields.Interval(newConfig.Dial.Interval().String()),
		slog.String("location", loc.String()),
		slog.String("log_level", string(newConfig.Monitoring.Logging.Level)))
	return nil
}

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.config
}

// GetStatus returns the lifecycle status.
func (d *Daemon) GetStatus() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// GetStartTime returns when Start was last called.
func (d *Daemon) GetStartTime() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startTime
}

// Latest returns the most recent reading.
func (d *Daemon) Latest() (dial.Reading, bool) {
	return d.latest.Get()
}

// Registry returns the Prometheus registry holding the dial metrics.
func (d *Daemon) Registry() *prom.Registry {
	return d.registry
}

// Journal returns the update journal, nil when not configured.
func (d *Daemon) Journal() *journal.Journal {
	return d.journal
}

func (d *Daemon) setStatus(s Status) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

// closeResources releases the publisher, journal and slot exactly once.
func (d *Daemon) closeResources() error {
	d.closeOnce.Do(func() {
		var errs []error
		if d.publisher != nil {
			errs = append(errs, d.publisher.Close())
		}
		if d.journal != nil {
			errs = append(errs, d.journal.Close())
		}
		if d.slot != nil {
			errs = append(errs, d.slot.Close())
		}
		d.closeErr = errors.Join(errs...)
	})
	return d.closeErr
}
