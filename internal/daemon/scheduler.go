package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/moondial/internal/logfields"
	"git.home.luguber.info/inful/moondial/internal/observability"
)

// TickFunc receives one clock tick, already converted to the dial's location.
type TickFunc func(ctx context.Context, at time.Time)

// Scheduler wraps gocron to drive the dial's periodic clock tick.
type Scheduler struct {
	scheduler gocron.Scheduler
	clock     clockwork.Clock
	logger    *slog.Logger

	mu       sync.Mutex
	location *time.Location
	tick     TickFunc
	job      gocron.Job
	interval time.Duration
	runCtx   context.Context
	lastTick time.Time
}

// NewScheduler creates a scheduler reading time from clock.
func NewScheduler(clock clockwork.Clock, location *time.Location, logger *slog.Logger) (*Scheduler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler(gocron.WithClock(clock), gocron.WithLocation(location))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		clock:     clock,
		logger:    logger,
		location:  location,
		runCtx:    context.Background(),
	}, nil
}

// Start begins running scheduled jobs. Ticks inherit ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for a running tick.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleTicks registers fn to run every interval, starting as soon as the
// scheduler starts. Only one tick job exists; overlapping runs are skipped.
// Returns the job ID.
func (s *Scheduler) ScheduleTicks(interval time.Duration, fn TickFunc) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("tick interval must be positive, got %s", interval)
	}
	if fn == nil {
		return "", errors.New("tick function is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job != nil {
		return "", errors.New("tick job already scheduled")
	}

	s.tick = fn
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runTick),
		s.jobOptions()...,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create tick job: %w", err)
	}
	s.job = job
	s.interval = interval

	s.logger.Info("Scheduled dial tick",
		logfields.JobID(job.ID().String()),
		logfields.Interval(interval.String()))
	return job.ID().String(), nil
}

// Reschedule changes the tick interval of the existing job.
func (s *Scheduler) Reschedule(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return errors.New("no tick job scheduled")
	}
	if interval == s.interval {
		return nil
	}

	job, err := s.scheduler.Update(s.job.ID(),
		gocron.DurationJob(interval),
		gocron.NewTask(s.runTick),
		s.jobOptions()...,
	)
	if err != nil {
		return fmt.Errorf("failed to reschedule tick job: %w", err)
	}
	s.job = job
	s.interval = interval

	s.logger.Info("Rescheduled dial tick",
		logfields.JobID(job.ID().String()),
		logfields.Interval(interval.String()))
	return nil
}

// SetLocation changes the zone ticks are reported in.
func (s *Scheduler) SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	s.mu.Lock()
	s.location = loc
	s.mu.Unlock()
}

// Interval returns the current tick interval, zero before ScheduleTicks.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// LastTick returns when the tick job last fired.
func (s *Scheduler) LastTick() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTick, !s.lastTick.IsZero()
}

// NextTick returns when the tick job fires next.
func (s *Scheduler) NextTick() (time.Time, bool) {
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()
	if job == nil {
		return time.Time{}, false
	}
	next, err := job.NextRun()
	if err != nil || next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

func (s *Scheduler) jobOptions() []gocron.JobOption {
	return []gocron.JobOption{
		gocron.WithName("dial-tick"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	}
}

// runTick is called by gocron for every scheduled tick.
func (s *Scheduler) runTick() {
	s.mu.Lock()
	fn := s.tick
	loc := s.location
	ctx := s.runCtx
	at := s.clock.Now().In(loc)
	s.lastTick = at
	s.mu.Unlock()

	tickID := uuid.NewString()
	ctx = observability.WithTickID(ctx, tickID)
	s.logger.DebugContext(ctx, "Executing dial tick", logfields.TickID(tickID))
	fn(ctx, at)
}
