package lunar

import (
	"fmt"
	"strings"
)

// Phase is one of the eight discrete lunar phase buckets, ordered through one synodic month.
type Phase int

const (
	NewMoon Phase = iota
	WaxingCrescent
	FirstQuarter
	WaxingGibbous
	FullMoon
	WaningGibbous
	LastQuarter
	WaningCrescent
)

// PhaseCount is the number of phase buckets in one cycle.
const PhaseCount = 8

var phaseNames = [PhaseCount]string{
	"new_moon",
	"waxing_crescent",
	"first_quarter",
	"waxing_gibbous",
	"full_moon",
	"waning_gibbous",
	"last_quarter",
	"waning_crescent",
}

// icon file names as shipped with the dial artwork ("cresent" spelling is the asset name).
var phaseIcons = [PhaseCount]string{
	"moon/new-moon.png",
	"moon/waxing-cresent.png",
	"moon/first-quarter.png",
	"moon/waxing-gibbous.png",
	"moon/full-moon.png",
	"moon/waning-gibbous.png",
	"moon/last-quarter.png",
	"moon/waning-cresent.png",
}

// Phases lists every phase in cycle order.
func Phases() []Phase {
	out := make([]Phase, PhaseCount)
	for i := range out {
		out[i] = Phase(i)
	}
	return out
}

// Valid reports whether p is one of the eight known phases.
func (p Phase) Valid() bool {
	return p >= NewMoon && p <= WaningCrescent
}

// Next returns the phase that follows p, wrapping WaningCrescent back to NewMoon.
func (p Phase) Next() Phase {
	return (p + 1) % PhaseCount
}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Icon returns the artwork name for p, or "" for an unknown phase so the
// display falls back to a blank icon.
func (p Phase) Icon() string {
	if !p.Valid() {
		return ""
	}
	return phaseIcons[p]
}

// ParsePhase accepts the snake_case names produced by String, ignoring case,
// surrounding space and '-' vs '_'.
func ParsePhase(raw string) (Phase, error) {
	cleaned := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	for i, name := range phaseNames {
		if name == cleaned {
			return Phase(i), nil
		}
	}
	return NewMoon, fmt.Errorf("unknown lunar phase: %q", raw)
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
