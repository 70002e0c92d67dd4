// Package sink delivers dial readings to the places that render or record them.
package sink

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/moondial/internal/dial"
	"git.home.luguber.info/inful/moondial/internal/logfields"
	"git.home.luguber.info/inful/moondial/internal/metrics"
)

// Target is a named reading destination that can fail.
type Target interface {
	Name() string
	Deliver(ctx context.Context, r dial.Reading) error
}

// Fanout is a dial.Sink that hands each reading to every target in order.
// Failures are logged and counted per target and never stop later targets.
type Fanout struct {
	mu       sync.RWMutex
	targets  []Target
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewFanout creates a fan-out over targets.
func NewFanout(recorder metrics.Recorder, logger *slog.Logger, targets ...Target) *Fanout {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{targets: targets, recorder: recorder, logger: logger}
}

// Add appends a target.
func (f *Fanout) Add(t Target) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, t)
}

// Targets returns the names of the configured targets.
func (f *Fanout) Targets() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, len(f.targets))
	for i, t := range f.targets {
		names[i] = t.Name()
	}
	return names
}

// Emit implements dial.Sink.
func (f *Fanout) Emit(ctx context.Context, r dial.Reading) {
	f.mu.RLock()
	targets := f.targets
	f.mu.RUnlock()

	for _, t := range targets {
		if err := t.Deliver(ctx, r); err != nil {
			f.recorder.IncSinkError(t.Name())
			f.logger.WarnContext(ctx, "Failed to deliver dial reading",
				logfields.Sink(t.Name()),
				logfields.Angle(r.Angle),
				logfields.Error(err))
		}
	}
}

// Func adapts a function to Target.
type Func struct {
	TargetName string
	Fn         func(ctx context.Context, r dial.Reading) error
}

func (f Func) Name() string { return f.TargetName }

func (f Func) Deliver(ctx context.Context, r dial.Reading) error { return f.Fn(ctx, r) }
