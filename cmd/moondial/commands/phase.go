package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/moondial/internal/lunar"
)

// PhaseCmd implements the 'phase' command.
type PhaseCmd struct {
	At   string `help:"Moment to classify (RFC3339 or YYYY-MM-DD[THH:MM]); defaults to now"`
	JSON bool   `help:"Print the result as JSON"`
}

// PhaseInfo is what 'phase' reports.
type PhaseInfo struct {
	At         time.Time   `json:"at"`
	Phase      lunar.Phase `json:"phase"`
	AgeDays    float64     `json:"age_days"`
	Waxing     bool        `json:"waxing"`
	Label      string      `json:"label"`
	Icon       string      `json:"icon"`
	PhaseStart bool        `json:"phase_start_day"`
}

// DescribePhase collects the lunar facts for at.
func DescribePhase(at time.Time) PhaseInfo {
	p := lunar.Classify(at)
	return PhaseInfo{
		At:         at,
		Phase:      p,
		AgeDays:    lunar.AgeDays(at),
		Waxing:     lunar.IsWaxing(at),
		Label:      lunar.ShortLabel(at),
		Icon:       p.Icon(),
		PhaseStart: lunar.IsPhaseStartDay(at),
	}
}

func (p *PhaseCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	loc, err := dialLocation(cfg)
	if err != nil {
		return err
	}
	at, err := ParseAt(p.At, loc, time.Now)
	if err != nil {
		return err
	}

	info := DescribePhase(at)
	if p.JSON {
		return writeJSON(g.Out, info)
	}

	trend := "waning"
	if info.Waxing {
		trend = "waxing"
	}
	_, _ = fmt.Fprintf(g.Out, "Time:   %s\n", info.At.Format(time.RFC3339))
	_, _ = fmt.Fprintf(g.Out, "Phase:  %s (%s)\n", info.Phase, info.Label)
	_, _ = fmt.Fprintf(g.Out, "Age:    %.2f days, %s\n", info.AgeDays, trend)
	_, _ = fmt.Fprintf(g.Out, "Icon:   %s\n", info.Icon)
	if info.PhaseStart {
		_, _ = fmt.Fprintln(g.Out, "Today is the first day of this phase.")
	}
	return nil
}
