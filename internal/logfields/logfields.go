package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyAngle      = "angle"
	KeyPhase      = "phase"
	KeySide       = "side"
	KeyDay        = "day"
	KeyTickID     = "tick_id"
	KeyBackend    = "backend"
	KeySink       = "sink"
	KeyPath       = "path"
	KeySubject    = "subject"
	KeyInterval   = "interval"
	KeyJobID      = "job_id"
	KeyError      = "error"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyAttempt    = "attempt"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Angle(a int) slog.Attr        { return slog.Int(KeyAngle, a) }
func Phase(p string) slog.Attr     { return slog.String(KeyPhase, p) }
func Side(s string) slog.Attr      { return slog.String(KeySide, s) }
func Day(d string) slog.Attr       { return slog.String(KeyDay, d) }
func TickID(id string) slog.Attr   { return slog.String(KeyTickID, id) }
func Backend(b string) slog.Attr   { return slog.String(KeyBackend, b) }
func Sink(name string) slog.Attr   { return slog.String(KeySink, name) }
func Path(p string) slog.Attr      { return slog.String(KeyPath, p) }
func Subject(s string) slog.Attr   { return slog.String(KeySubject, s) }
func Interval(d string) slog.Attr  { return slog.String(KeyInterval, d) }
func JobID(id string) slog.Attr    { return slog.String(KeyJobID, id) }
func Method(m string) slog.Attr     { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr     { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr { return slog.String(KeyRemoteAddr, a) }
func Attempt(n int) slog.Attr       { return slog.Int(KeyAttempt, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
