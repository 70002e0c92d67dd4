// Package observability builds the process logger and carries per-tick
// correlation fields through contexts.
package observability

import (
	"context"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/moondial/internal/config"
)

// Logger bundles a slog.Logger with the LevelVar behind it so a config
// reload can change verbosity without rebuilding handlers.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// NewLogger builds a logger writing to w in the configured format.
func NewLogger(w io.Writer, cfg config.MonitoringLogging) *Logger {
	level := new(slog.LevelVar)
	level.Set(SlogLevel(cfg.Level))

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == config.LogFormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(contextHandler{h}), level: level}
}

// SetLevel changes the minimum level of every record logged from now on.
func (l *Logger) SetLevel(lvl config.LogLevel) {
	l.level.Set(SlogLevel(lvl))
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

// SlogLevel maps a configured level onto slog.
func SlogLevel(lvl config.LogLevel) slog.Level {
	switch lvl {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler adds the context's correlation fields to each record so
// plain logger.InfoContext calls carry tick and job IDs.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if lc := extractLogContext(ctx); lc != (LogContext{}) {
		r = r.Clone()
		for _, a := range Attrs(ctx) {
			if !hasAttr(r, a.Key) {
				r.AddAttrs(a)
			}
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

func hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = true
			return false
		}
		return true
	})
	return found
}
