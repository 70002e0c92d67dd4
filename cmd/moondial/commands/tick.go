package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/moondial/internal/dial"
	"git.home.luguber.info/inful/moondial/internal/journal"
	"git.home.luguber.info/inful/moondial/internal/metrics"
	"git.home.luguber.info/inful/moondial/internal/sink"
	"git.home.luguber.info/inful/moondial/internal/storage"
)

// TickCmd implements the 'tick' command. Each invocation starts from a fresh
// machine, the same as a restarted device, so the persisted slot is what
// keeps the angle from snapping back to the phase start.
type TickCmd struct {
	At   string `help:"Moment to update for (RFC3339 or YYYY-MM-DD[THH:MM]); defaults to now"`
	JSON bool   `help:"Print the reading as JSON"`
}

func (t *TickCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	loc, err := dialLocation(cfg)
	if err != nil {
		return err
	}
	at, err := ParseAt(t.At, loc, time.Now)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slot, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = slot.Close() }()

	fanout := sink.NewFanout(metrics.NoopRecorder{}, g.Logger.Logger, sink.NewLog(g.Logger.Logger))
	if cfg.Storage.JournalPath != "" {
		j, err := journal.Open(cfg.Storage.JournalPath)
		if err != nil {
			return err
		}
		defer func() { _ = j.Close() }()
		fanout.Add(j)
	}

	m := dial.NewMachine(slot, dial.WithSink(fanout), dial.WithLogger(g.Logger.Logger))
	r := m.OnTick(ctx, at)

	if t.JSON {
		return writeJSON(g.Out, r)
	}
	_, err = fmt.Fprintln(g.Out, describeReading(r))
	return err
}
