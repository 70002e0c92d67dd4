// Package lunar computes the moon's age and phase bucket for a local timestamp.
//
// The arithmetic is the Julian-date approximation used by the dial artwork: a
// reference new moon at JD 2451550.1 and a mean synodic month. It is accurate
// to within a day, which is all a day-granularity dial needs.
package lunar

import (
	"math"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// SynodicMonth is the mean length of a lunar cycle in days.
	SynodicMonth = 29.530588853

	// ReferenceNewMoon is the Julian date of the new moon all ages are measured from.
	ReferenceNewMoon = 2451550.1

	// WaxingLimit is the last age, in days, still reported as waxing.
	WaxingLimit = 14.765

	unixEpochJD   = 2440587.5
	millisPerDay  = 86400000.0
	secondsPerDay = 86400.0
)

// phaseUpperBounds are the exclusive upper ages of each bucket, in Phase order.
// Ages at or past the last bound belong to the next cycle's NewMoon.
var phaseUpperBounds = [PhaseCount]float64{
	1.84566,
	5.53699,
	9.22831,
	12.91963,
	16.61096,
	20.30228,
	23.99361,
	27.68493,
}

// JulianDate converts t to a Julian date measured on t's local wall clock.
func JulianDate(t time.Time) float64 {
	_, offset := t.Zone()
	return float64(t.UnixMilli())/millisPerDay + float64(offset)/secondsPerDay + unixEpochJD
}

// AgeDays returns the days elapsed since the most recent new moon, in [0, SynodicMonth).
func AgeDays(t time.Time) float64 {
	age := normalize((JulianDate(t)-ReferenceNewMoon)/SynodicMonth) * SynodicMonth
	if age >= SynodicMonth {
		return 0
	}
	return age
}

func normalize(v float64) float64 {
	v -= math.Floor(v)
	if v < 0 {
		v++
	}
	return v
}

// Classify maps t to its phase bucket.
func Classify(t time.Time) Phase {
	return PhaseForAge(AgeDays(t))
}

// PhaseForAge maps a lunar age in days to its phase bucket.
func PhaseForAge(age float64) Phase {
	for i, bound := range phaseUpperBounds {
		if age < bound {
			return Phase(i)
		}
	}
	return NewMoon
}

// IsWaxing reports whether the moon is in the first half of its cycle at t.
func IsWaxing(t time.Time) bool {
	return AgeDays(t) <= WaxingLimit
}

// IsWaning reports whether the moon is in the second half of its cycle at t.
func IsWaning(t time.Time) bool {
	return AgeDays(t) > WaxingLimit
}

// IsPhaseStartDay reports whether t falls in a different phase than the same
// instant one day earlier.
func IsPhaseStartDay(t time.Time) bool {
	return Classify(t) != Classify(t.Add(-24*time.Hour))
}

// ShortLabel returns the compact phase caption shown next to the dial:
// NEW, FULL, WAX or WAN.
func ShortLabel(t time.Time) string {
	return labelFor(Classify(t), AgeDays(t))
}

func labelFor(phase Phase, age float64) string {
	var label string
	switch {
	case !phase.Valid():
		label = " "
	case phase == NewMoon:
		label = "New"
	case phase == FullMoon:
		label = "Full"
	case age <= WaxingLimit:
		label = "Wax"
	default:
		label = "Wan"
	}
	return cases.Upper(language.English).String(label)
}
