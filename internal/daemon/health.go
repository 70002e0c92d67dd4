package daemon

import (
	"context"
	"time"

	"git.home.luguber.info/inful/moondial/internal/version"
)

// HealthStatus represents the overall health of the daemon.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a single health check.
type HealthCheck struct {
	Name        string        `json:"name"`
	Status      HealthStatus  `json:"status"`
	Message     string        `json:"message,omitempty"`
	Duration    time.Duration `json:"duration"`
	LastChecked time.Time     `json:"last_checked"`
}

// HealthResponse represents the complete health check response.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Version   string        `json:"version"`
	Checks    []HealthCheck `json:"checks"`
}

// PerformHealthChecks runs every check and folds them into one status.
// A stopped daemon is unhealthy; any other failing check degrades it.
func (d *Daemon) PerformHealthChecks(ctx context.Context) *HealthResponse {
	now := d.clock.Now()

	checks := []HealthCheck{
		d.timed("daemon", func() (HealthStatus, string) { return d.checkDaemonHealth() }),
		d.timed("scheduler", func() (HealthStatus, string) { return d.checkSchedulerHealth() }),
		d.timed("storage", func() (HealthStatus, string) { return d.checkStorageHealth(ctx) }),
		d.timed("reading", func() (HealthStatus, string) { return d.checkReadingHealth() }),
	}

	overall := HealthStatusHealthy
	for _, c := range checks {
		switch {
		case c.Name == "daemon" && c.Status != HealthStatusHealthy:
			overall = HealthStatusUnhealthy
		case c.Status != HealthStatusHealthy && overall == HealthStatusHealthy:
			overall = HealthStatusDegraded
		}
	}

	uptime := time.Duration(0)
	if start := d.GetStartTime(); !start.IsZero() {
		uptime = now.Sub(start)
	}

	return &HealthResponse{
		Status:    overall,
		Timestamp: now,
		Uptime:    uptime.Round(time.Second).String(),
		Version:   version.Version,
		Checks:    checks,
	}
}

func (d *Daemon) timed(name string, check func() (HealthStatus, string)) HealthCheck {
	start := time.Now()
	status, msg := check()
	return HealthCheck{
		Name:        name,
		Status:      status,
		Message:     msg,
		Duration:    time.Since(start),
		LastChecked: d.clock.Now(),
	}
}

func (d *Daemon) checkDaemonHealth() (HealthStatus, string) {
	switch s := d.GetStatus(); s {
	case StatusRunning:
		return HealthStatusHealthy, "daemon is running"
	case StatusStarting, StatusStopping:
		return HealthStatusDegraded, "daemon is " + string(s)
	default:
		return HealthStatusUnhealthy, "daemon is " + string(s)
	}
}

func (d *Daemon) checkSchedulerHealth() (HealthStatus, string) {
	next, ok := d.scheduler.NextTick()
	if !ok {
		return HealthStatusDegraded, "no tick scheduled"
	}
	return HealthStatusHealthy, "next tick at " + next.Format(time.RFC3339)
}

func (d *Daemon) checkStorageHealth(ctx context.Context) (HealthStatus, string) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, _, err := d.slot.Load(ctx); err != nil {
		return HealthStatusDegraded, "angle slot unreadable: " + err.Error()
	}
	return HealthStatusHealthy, string(d.GetConfig().Storage.Backend) + " slot readable"
}

// checkReadingHealth flags a dial whose last reading is more than two tick
// intervals old.
func (d *Daemon) checkReadingHealth() (HealthStatus, string) {
	r, ok := d.Latest()
	if !ok {
		return HealthStatusDegraded, "no reading yet"
	}
	maxAge := 2 * d.GetConfig().Dial.Interval()
	if age := d.clock.Since(r.At); age > maxAge {
		return HealthStatusDegraded, "last reading is " + age.Round(time.Second).String() + " old"
	}
	return HealthStatusHealthy, "last reading on " + r.Day
}
