package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/moondial/internal/dial"
	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
	"git.home.luguber.info/inful/moondial/internal/lunar"
	"git.home.luguber.info/inful/moondial/internal/storage"
)

// SimulateCmd implements the 'simulate' command.
type SimulateCmd struct {
	From         string `help:"First day (YYYY-MM-DD or RFC3339); defaults to today"`
	Days         int    `help:"Number of consecutive days" default:"30"`
	Side         string `help:"Side facing the viewer at the start (deer or ship)" default:"deer"`
	Hour         int    `help:"Hour of day each tick fires at" default:"12"`
	RestartEvery int    `help:"Restart the machine every N days to exercise recovery (0 disables)" default:"0"`
	JSON         bool   `help:"Print readings as JSON"`
}

// SimulationOptions controls Simulate.
type SimulationOptions struct {
	Side         dial.Side
	RestartEvery int
	Logger       *slog.Logger
}

// Simulate ticks a dial once per day for days days starting at from, against
// an in-memory slot, and returns every reading.
func Simulate(ctx context.Context, from time.Time, days int, opts SimulationOptions) []dial.Reading {
	slot := storage.NewMemorySlot()
	newMachine := func(side dial.Side) *dial.Machine {
		state := dial.InitialState()
		state.Side = side
		return dial.NewMachine(slot, dial.WithState(state), dial.WithLogger(opts.Logger))
	}

	m := newMachine(opts.Side)
	readings := make([]dial.Reading, 0, days)
	for i := 0; i < days; i++ {
		if opts.RestartEvery > 0 && i > 0 && i%opts.RestartEvery == 0 {
			m = newMachine(dial.InitialState().Side)
		}
		readings = append(readings, m.OnTick(ctx, from.AddDate(0, 0, i)))
	}
	return readings
}

func (s *SimulateCmd) Run(g *Global, root *CLI) error {
	if s.Days <= 0 {
		return derrors.ValidationError("--days must be positive").WithContext("days", s.Days).Build()
	}
	if s.Hour < 0 || s.Hour > 23 {
		return derrors.ValidationError("--hour must be between 0 and 23").WithContext("hour", s.Hour).Build()
	}
	side, err := dial.ParseSide(s.Side)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryValidation, "invalid --side").Build()
	}

	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	loc, err := dialLocation(cfg)
	if err != nil {
		return err
	}
	start, err := ParseAt(s.From, loc, time.Now)
	if err != nil {
		return err
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), s.Hour, 0, 0, 0, loc)

	readings := Simulate(context.Background(), start, s.Days, SimulationOptions{
		Side:         side,
		RestartEvery: s.RestartEvery,
		Logger:       g.Logger.Logger,
	})

	if s.JSON {
		return writeJSON(g.Out, readings)
	}
	for _, r := range readings {
		_, _ = fmt.Fprintf(g.Out, "%s  age %5.2f\n", describeReading(r), lunar.AgeDays(r.At))
	}
	return nil
}
