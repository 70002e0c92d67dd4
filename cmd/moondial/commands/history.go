package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
	"git.home.luguber.info/inful/moondial/internal/journal"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of most recent days to show" default:"30"`
	From  string `help:"First day to show (YYYY-MM-DD); with --to selects a range instead of --limit"`
	To    string `help:"Last day to show (YYYY-MM-DD)"`
	JSON  bool   `help:"Print entries as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if cfg.Storage.JournalPath == "" {
		return derrors.NewError(derrors.CategoryNotFound, "no update journal configured").
			WithContext("setting", "storage.journal_path").
			Build()
	}

	j, err := journal.Open(cfg.Storage.JournalPath)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var entries []journal.Entry
	if h.From != "" || h.To != "" {
		from, to, err := dayRange(h.From, h.To)
		if err != nil {
			return err
		}
		entries, err = j.Range(ctx, from, to)
		if err != nil {
			return err
		}
	} else {
		entries, err = j.Recent(ctx, h.Limit)
		if err != nil {
			return err
		}
	}

	if h.JSON {
		if entries == nil {
			entries = []journal.Entry{}
		}
		return writeJSON(g.Out, entries)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(g.Out, "No updates recorded.")
		return nil
	}
	for _, e := range entries {
		var notes []string
		if e.Flipped {
			notes = append(notes, "flipped")
		}
		if e.Recovered {
			notes = append(notes, "recovered")
		}
		line := fmt.Sprintf("%s  %3d°  %-5s %-15s", e.Day, e.Angle, e.Side, e.Phase)
		if len(notes) > 0 {
			line += " (" + strings.Join(notes, ", ") + ")"
		}
		_, _ = fmt.Fprintln(g.Out, strings.TrimRight(line, " "))
	}
	return nil
}

// dayRange validates --from/--to. A missing end is open.
func dayRange(from, to string) (string, string, error) {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return "", "", derrors.ValidationError("days must be YYYY-MM-DD").WithContext("value", d).Build()
		}
	}
	if from == "" {
		from = "0000-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	if from > to {
		return "", "", derrors.ValidationError("--from is after --to").
			WithContext("from", from).
			WithContext("to", to).
			Build()
	}
	return from, to, nil
}
