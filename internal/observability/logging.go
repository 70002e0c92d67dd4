package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/moondial/internal/logfields"
)

// LogContext holds the correlation fields carried through a tick.
type LogContext struct {
	TickID    string
	JobID     string
	Component string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithTickID tags ctx with the ID of the tick being processed.
func WithTickID(ctx context.Context, tickID string) context.Context {
	lc := extractLogContext(ctx)
	lc.TickID = tickID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithJobID tags ctx with the scheduler job that produced it.
func WithJobID(ctx context.Context, jobID string) context.Context {
	lc := extractLogContext(ctx)
	lc.JobID = jobID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithComponent tags ctx with the emitting component (scheduler, http, cli).
func WithComponent(ctx context.Context, component string) context.Context {
	lc := extractLogContext(ctx)
	lc.Component = component
	return context.WithValue(ctx, logContextKey, lc)
}

// GetContext returns the log context stored in ctx.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// Attrs returns the context's correlation fields as slog attributes.
func Attrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := make([]slog.Attr, 0, 3)
	if lc.TickID != "" {
		attrs = append(attrs, logfields.TickID(lc.TickID))
	}
	if lc.JobID != "" {
		attrs = append(attrs, logfields.JobID(lc.JobID))
	}
	if lc.Component != "" {
		attrs = append(attrs, slog.String("component", lc.Component))
	}
	return attrs
}

func logWithContext(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	all := append(Attrs(ctx), attrs...)
	slog.LogAttrs(ctx, level, msg, all...)
}

// InfoContext logs at info level with the context's correlation fields.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logWithContext(ctx, slog.LevelInfo, msg, attrs)
}

// WarnContext logs at warn level with the context's correlation fields.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logWithContext(ctx, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs at error level with the context's correlation fields.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logWithContext(ctx, slog.LevelError, msg, attrs)
}

// DebugContext logs at debug level with the context's correlation fields.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logWithContext(ctx, slog.LevelDebug, msg, attrs)
}
