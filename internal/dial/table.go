package dial

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/moondial/internal/lunar"
)

// Side identifies which half of the two-sided dial artwork faces the viewer.
type Side int

const (
	Ship Side = iota
	Deer
)

// Opposite returns the other side of the dial.
func (s Side) Opposite() Side {
	if s == Ship {
		return Deer
	}
	return Ship
}

func (s Side) String() string {
	switch s {
	case Ship:
		return "ship"
	case Deer:
		return "deer"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// ParseSide accepts "ship" or "deer" in any case.
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ship":
		return Ship, nil
	case "deer":
		return Deer, nil
	default:
		return Deer, fmt.Errorf("unknown dial side: %q", raw)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Side) UnmarshalText(text []byte) error {
	parsed, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

const (
	// FullTurn is one revolution of the dial in degrees.
	FullTurn = 360

	// MaxStep is the most the dial moves forward in a single day without a phase change.
	MaxStep = 7
)

// Bound tells how an entry limits its daily advance.
type Bound int

const (
	// BoundCeiling stops the advance short of Entry.Ceiling.
	BoundCeiling Bound = iota
	// BoundOpen has no ceiling: the phase after it flips the dial side, so
	// the next start angle lives on the other half and cannot bound this one.
	BoundOpen
)

// Entry is the angle data for one (side, phase) pair.
type Entry struct {
	// Start is the angle shown on the first day of the phase.
	Start int
	// Ceiling is the next phase's start on the same side, expressed so it is
	// greater than Start. Only meaningful for BoundCeiling.
	Ceiling int
	Bound   Bound
	// Wraps marks the entry whose span crosses 0°; its advanced angle is
	// folded back into [0, 360).
	Wraps bool
}

type tableKey struct {
	side  Side
	phase lunar.Phase
}

var startAngles = map[Side][lunar.PhaseCount]int{
	Ship: {86, 100, 120, 145, 175, 200, 230, 242},
	Deer: {266, 280, 300, 325, 352, 22, 52, 64},
}

var table = buildTable()

func buildTable() map[tableKey]Entry {
	t := make(map[tableKey]Entry, 2*lunar.PhaseCount)
	for side, starts := range startAngles {
		for _, phase := range lunar.Phases() {
			e := Entry{Start: starts[phase]}
			if phase == lunar.WaningCrescent {
				e.Bound = BoundOpen
			} else {
				e.Ceiling = starts[phase.Next()]
				if e.Ceiling <= e.Start {
					e.Ceiling += FullTurn
					e.Wraps = true
				}
			}
			t[tableKey{side, phase}] = e
		}
	}
	return t
}

// Lookup returns the table entry for side and phase.
func Lookup(side Side, phase lunar.Phase) (Entry, bool) {
	e, ok := table[tableKey{side, phase}]
	return e, ok
}

// Start returns the first-day angle for side and phase. Unknown pairs return 0.
func Start(side Side, phase lunar.Phase) int {
	e, _ := Lookup(side, phase)
	return e.Start
}

// IsPhaseStart reports whether angle is the first-day angle of any phase on either side.
func IsPhaseStart(angle int) bool {
	for _, starts := range startAngles {
		for _, s := range starts {
			if s == angle {
				return true
			}
		}
	}
	return false
}

// Advance moves angle forward by the largest step in [0, MaxStep] that stays
// below the entry's ceiling. The result is always in [0, FullTurn).
func (e Entry) Advance(angle int) int {
	base := angle
	if e.Wraps && base+FullTurn < e.Ceiling {
		// already past 0°; compare in unwrapped degrees
		base += FullTurn
	}

	next := base
	for step := MaxStep; step > 0; step-- {
		if e.Bound == BoundOpen || base+step < e.Ceiling {
			next = base + step
			break
		}
	}

	if next >= FullTurn {
		next -= FullTurn
	}
	return next
}
