package sink

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/moondial/internal/dial"
	"git.home.luguber.info/inful/moondial/internal/logfields"
)

// Log writes each reading to a logger: fresh updates at info, cached
// re-emits at debug.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logging target. A nil logger uses slog.Default.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Deliver(ctx context.Context, r dial.Reading) error {
	level := slog.LevelDebug
	if r.Fresh {
		level = slog.LevelInfo
	}
	l.logger.LogAttrs(ctx, level, "Dial reading",
		logfields.Angle(r.Angle),
		logfields.Side(r.Side.String()),
		logfields.Phase(r.Phase.String()),
		slog.String("label", r.Label),
		slog.String("icon", r.Icon),
		logfields.Day(r.Day))
	return nil
}
