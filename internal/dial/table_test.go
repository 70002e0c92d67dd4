package dial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/moondial/internal/lunar"
)

func TestStartAngles(t *testing.T) {
	ship := []int{86, 100, 120, 145, 175, 200, 230, 242}
	deer := []int{266, 280, 300, 325, 352, 22, 52, 64}
	for i, p := range lunar.Phases() {
		assert.Equal(t, ship[i], Start(Ship, p), "ship %s", p)
		assert.Equal(t, deer[i], Start(Deer, p), "deer %s", p)
	}
}

func TestStartAngles_Unique(t *testing.T) {
	seen := map[int]string{}
	for _, side := range []Side{Ship, Deer} {
		for _, p := range lunar.Phases() {
			a := Start(side, p)
			key := side.String() + "/" + p.String()
			prev, dup := seen[a]
			require.False(t, dup, "%s shares start angle %d with %s", key, a, prev)
			seen[a] = key
		}
	}
}

func TestCeilings(t *testing.T) {
	for _, side := range []Side{Ship, Deer} {
		for _, p := range lunar.Phases() {
			e, ok := Lookup(side, p)
			require.True(t, ok)
			if p == lunar.WaningCrescent {
				assert.Equal(t, BoundOpen, e.Bound, "%s/%s", side, p)
				continue
			}
			assert.Equal(t, BoundCeiling, e.Bound)
			assert.Greater(t, e.Ceiling, e.Start, "%s/%s", side, p)
			assert.Equal(t, Start(side, p.Next()), e.Ceiling%FullTurn, "%s/%s", side, p)
		}
	}

	full, _ := Lookup(Deer, lunar.FullMoon)
	assert.Equal(t, 360+22, full.Ceiling)
	assert.True(t, full.Wraps)

	for _, side := range []Side{Ship, Deer} {
		for _, p := range lunar.Phases() {
			e, _ := Lookup(side, p)
			if side == Deer && p == lunar.FullMoon {
				continue
			}
			assert.False(t, e.Wraps, "%s/%s should not wrap", side, p)
		}
	}
}

func TestLookup_UnknownPhase(t *testing.T) {
	_, ok := Lookup(Ship, lunar.Phase(11))
	assert.False(t, ok)
	assert.Equal(t, 0, Start(Deer, lunar.Phase(-1)))
}

func TestIsPhaseStart(t *testing.T) {
	for _, side := range []Side{Ship, Deer} {
		for _, p := range lunar.Phases() {
			assert.True(t, IsPhaseStart(Start(side, p)))
		}
	}
	for _, a := range []int{0, 6, 85, 87, 99, 265, 359} {
		assert.False(t, IsPhaseStart(a), "angle %d", a)
	}
}

func TestAdvance_GreedyBelowCeiling(t *testing.T) {
	e, _ := Lookup(Ship, lunar.NewMoon) // 86 -> ceiling 100
	cases := []struct{ from, want int }{
		{86, 93},
		{93, 99},
		{95, 99},
		{98, 99},
		{99, 99},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, e.Advance(tc.from), "from %d", tc.from)
	}
}

func TestAdvance_StepWithinBounds(t *testing.T) {
	for _, side := range []Side{Ship, Deer} {
		for _, p := range lunar.Phases() {
			e, _ := Lookup(side, p)
			if e.Bound == BoundOpen || e.Wraps {
				continue
			}
			for a := e.Start; a < e.Ceiling; a++ {
				next := e.Advance(a)
				step := next - a
				require.GreaterOrEqual(t, step, 0, "%s/%s from %d", side, p, a)
				require.LessOrEqual(t, step, MaxStep, "%s/%s from %d", side, p, a)
				require.Less(t, next, e.Ceiling, "%s/%s from %d", side, p, a)
			}
		}
	}
}

func TestAdvance_OpenBoundTakesFullStep(t *testing.T) {
	e, _ := Lookup(Deer, lunar.WaningCrescent)
	assert.Equal(t, 71, e.Advance(64))
	assert.Equal(t, 85, e.Advance(78))

	e, _ = Lookup(Ship, lunar.WaningCrescent)
	assert.Equal(t, 249, e.Advance(242))
}

func TestAdvance_OpenBoundFoldsPastFullTurn(t *testing.T) {
	for _, side := range []Side{Ship, Deer} {
		e, _ := Lookup(side, lunar.WaningCrescent)
		assert.Equal(t, 4, e.Advance(357), "%s", side)
		assert.Equal(t, 0, e.Advance(353), "%s", side)
		assert.Equal(t, 359, e.Advance(352), "%s", side)
		for a := 0; a < FullTurn; a++ {
			next := e.Advance(a)
			require.GreaterOrEqual(t, next, 0, "%s from %d", side, a)
			require.Less(t, next, FullTurn, "%s from %d", side, a)
		}
	}
}

func TestAdvance_DeerFullMoonWraps(t *testing.T) {
	e, _ := Lookup(Deer, lunar.FullMoon)
	assert.Equal(t, 359, e.Advance(352))
	assert.Equal(t, 6, e.Advance(359))
	assert.Equal(t, 13, e.Advance(6))
	assert.Equal(t, 20, e.Advance(13))
	// never crawls onto the WaningGibbous start
	assert.Equal(t, 21, e.Advance(20))
	assert.Equal(t, 21, e.Advance(21))
	// 353+7 lands on a full turn, which reads as 0
	assert.Equal(t, 0, e.Advance(353))
}

func TestSide(t *testing.T) {
	assert.Equal(t, Ship, Deer.Opposite())
	assert.Equal(t, Deer, Ship.Opposite())

	s, err := ParseSide(" DEER ")
	require.NoError(t, err)
	assert.Equal(t, Deer, s)

	_, err = ParseSide("whale")
	assert.Error(t, err)

	var u Side
	require.NoError(t, u.UnmarshalText([]byte("ship")))
	assert.Equal(t, Ship, u)
}
