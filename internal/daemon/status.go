package daemon

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/moondial/internal/dial"
	"git.home.luguber.info/inful/moondial/internal/journal"
	"git.home.luguber.info/inful/moondial/internal/lunar"
	"git.home.luguber.info/inful/moondial/internal/version"
)

// statusHistoryLimit is how many journal rows the status page lists.
const statusHistoryLimit = 14

// StatusInfo is a point-in-time view of the daemon for /status.
type StatusInfo struct {
	Status       Status          `json:"status"`
	Version      string          `json:"version"`
	StartTime    time.Time       `json:"start_time"`
	Uptime       time.Duration   `json:"uptime"`
	Backend      string          `json:"backend"`
	Location     string          `json:"location"`
	TickInterval string          `json:"tick_interval"`
	Sinks        []string        `json:"sinks"`
	Reading      *dial.Reading   `json:"reading,omitempty"`
	Readings     int             `json:"readings"`
	Updates      int             `json:"updates"`
	LastTick     *time.Time      `json:"last_tick,omitempty"`
	NextTick     *time.Time      `json:"next_tick,omitempty"`
	MoonAge      float64         `json:"moon_age_days"`
	History      []journal.Entry `json:"history,omitempty"`
}

// GetStatusInfo collects the daemon's current status.
func (d *Daemon) GetStatusInfo(ctx context.Context) StatusInfo {
	cfg := d.GetConfig()
	now := d.clock.Now()

	d.mu.RLock()
	loc := d.location
	d.mu.RUnlock()

	info := StatusInfo{
		Status:       d.GetStatus(),
		Version:      version.Version,
		StartTime:    d.GetStartTime(),
		Backend:      string(cfg.Storage.Backend),
		Location:     loc.String(),
		TickInterval: cfg.Dial.Interval().String(),
		Sinks:        d.fanout.Targets(),
		MoonAge:      lunar.AgeDays(now.In(loc)),
	}
	if !info.StartTime.IsZero() {
		info.Uptime = now.Sub(info.StartTime)
	}
	if r, ok := d.Latest(); ok {
		info.Reading = &r
	}
	info.Readings, info.Updates = d.latest.Counts()
	if t, ok := d.scheduler.LastTick(); ok {
		info.LastTick = &t
	}
	if t, ok := d.scheduler.NextTick(); ok {
		info.NextTick = &t
	}
	if d.journal != nil {
		if entries, err := d.journal.Recent(ctx, statusHistoryLimit); err == nil {
			info.History = entries
		} else {
			d.logger.WarnContext(ctx, "Failed to read journal for status page", "error", err)
		}
	}
	return info
}

// StatusMarkdown renders info as a Markdown document.
func StatusMarkdown(info StatusInfo) string {
	var b strings.Builder
	b.WriteString("# Moondial\n\n")

	if info.Reading == nil {
		b.WriteString("The dial has not been updated yet.\n\n")
	} else {
		r := info.Reading
		fmt.Fprintf(&b, "**%s** side, **%d°**, %s", r.Side, r.Angle, r.Phase)
		if r.Label != "" {
			fmt.Fprintf(&b, " (%s)", r.Label)
		}
		fmt.Fprintf(&b, ", last updated %s.\n\n", r.Day)
	}

	b.WriteString("| Setting | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Status | %s |\n", info.Status)
	fmt.Fprintf(&b, "| Version | %s |\n", info.Version)
	fmt.Fprintf(&b, "| Uptime | %s |\n", info.Uptime.Round(time.Second))
	fmt.Fprintf(&b, "| Storage | %s |\n", info.Backend)
	fmt.Fprintf(&b, "| Location | %s |\n", info.Location)
	fmt.Fprintf(&b, "| Tick interval | %s |\n", info.TickInterval)
	fmt.Fprintf(&b, "| Sinks | %s |\n", strings.Join(info.Sinks, ", "))
	fmt.Fprintf(&b, "| Readings / updates | %d / %d |\n", info.Readings, info.Updates)
	fmt.Fprintf(&b, "| Moon age | %.2f days |\n", info.MoonAge)
	if info.NextTick != nil {
		fmt.Fprintf(&b, "| Next tick | %s |\n", info.NextTick.Format(time.RFC3339))
	}

	if len(info.History) > 0 {
		b.WriteString("\n## Recent updates\n\n")
		b.WriteString("| Day | Angle | Side | Phase | Notes |\n|---|---|---|---|---|\n")
		for _, e := range info.History {
			var notes []string
			if e.Flipped {
				notes = append(notes, "flipped")
			}
			if e.Recovered {
				notes = append(notes, "recovered")
			}
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n", e.Day, e.Angle, e.Side, e.Phase, strings.Join(notes, ", "))
		}
	}
	return b.String()
}

var statusRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderStatusHTML renders info as a standalone HTML page.
func RenderStatusHTML(info StatusInfo) ([]byte, error) {
	var body bytes.Buffer
	if err := statusRenderer.Convert([]byte(StatusMarkdown(info)), &body); err != nil {
		return nil, fmt.Errorf("render status page: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Moondial</title></head><body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}
