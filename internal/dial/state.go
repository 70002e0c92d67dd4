package dial

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/moondial/internal/lunar"
)

// Day is a calendar date in the tick's own location.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar date of t in t's location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is the unset day.
func (d Day) IsZero() bool { return d == Day{} }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// State is the dial's mutable position. The zero Angle is meaningless until
// HasAngle is set by the first update.
type State struct {
	Angle      int
	HasAngle   bool
	Side       Side
	Phase      lunar.Phase
	LastUpdate Day
}

// InitialState is the state of a freshly started dial: no angle yet, deer
// side up, last seen phase NewMoon.
func InitialState() State {
	return State{Side: Deer, Phase: lunar.NewMoon}
}

// Reading is what the machine hands to the display after every tick.
// Phase is the phase the angle was committed for; Label and Icon describe the
// moon at At and may run ahead of Phase until the next daily update.
type Reading struct {
	Angle int         `json:"angle"`
	Side  Side        `json:"side"`
	Phase lunar.Phase `json:"phase"`
	Label string      `json:"label"`
	Icon  string      `json:"icon"`
	Day   string      `json:"day"`
	At    time.Time   `json:"at"`
	// Fresh is false when the tick fell on an already-updated day and the
	// cached angle was re-emitted.
	Fresh bool `json:"fresh"`
	// Flipped is set on the update that turned the dial over.
	Flipped bool `json:"flipped"`
	// Recovered is set when the angle came from the persisted slot.
	Recovered bool `json:"recovered"`
}

// Rotation returns the angle as the float a display transform expects.
func (r Reading) Rotation() float64 { return float64(r.Angle) }

// Gateway is the single persisted angle slot used to recover after a restart.
type Gateway interface {
	// Load returns the last saved angle. ok is false when nothing usable is stored.
	Load(ctx context.Context) (angle int, ok bool, err error)
	// Save replaces the stored angle.
	Save(ctx context.Context, angle int) error
}

// Sink receives every reading the machine produces.
type Sink interface {
	Emit(ctx context.Context, r Reading)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, r Reading)

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, r Reading) { f(ctx, r) }

type discardSink struct{}

func (discardSink) Emit(context.Context, Reading) {}
