package dial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/moondial/internal/lunar"
	"git.home.luguber.info/inful/moondial/internal/metrics"
)

// atAge returns the UTC instant at which the moon is age days old, cycle
// synodic months after the reference new moon.
func atAge(cycle int, age float64) time.Time {
	jd := lunar.ReferenceNewMoon + float64(cycle)*lunar.SynodicMonth + age
	ms := (jd - 2440587.5) * 86400000
	return time.UnixMilli(int64(ms)).UTC()
}

type fakeGateway struct {
	value   int
	ok      bool
	loadErr error
	saveErr error
	loads   int
	saved   []int
}

func (g *fakeGateway) Load(context.Context) (int, bool, error) {
	g.loads++
	if g.loadErr != nil {
		return 0, false, g.loadErr
	}
	return g.value, g.ok, nil
}

func (g *fakeGateway) Save(_ context.Context, angle int) error {
	g.saved = append(g.saved, angle)
	if g.saveErr != nil {
		return g.saveErr
	}
	g.value, g.ok = angle, true
	return nil
}

type captureSink struct{ readings []Reading }

func (c *captureSink) Emit(_ context.Context, r Reading) { c.readings = append(c.readings, r) }

type countingRecorder struct {
	metrics.NoopRecorder
	recoveries    map[metrics.RecoveryResult]int
	persistErrors map[metrics.PersistOp]int
	flips         int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		recoveries:    map[metrics.RecoveryResult]int{},
		persistErrors: map[metrics.PersistOp]int{},
	}
}

func (c *countingRecorder) IncRecovery(r metrics.RecoveryResult) { c.recoveries[r]++ }
func (c *countingRecorder) IncPersistError(op metrics.PersistOp) { c.persistErrors[op]++ }
func (c *countingRecorder) IncSideFlip()                         { c.flips++ }

const testCycle = 310

func TestOnTick_FirstUpdateAtNewMoon(t *testing.T) {
	gw := &fakeGateway{}
	m := NewMachine(gw)

	r := m.OnTick(context.Background(), atAge(testCycle, 0))

	assert.Equal(t, lunar.NewMoon, r.Phase)
	assert.Equal(t, Deer, r.Side)
	assert.Equal(t, 266, r.Angle)
	assert.True(t, r.Fresh)
	assert.False(t, r.Recovered)
	assert.Equal(t, []int{266}, gw.saved)
}

func TestOnTick_SameDayIsIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	sink := &captureSink{}
	m := NewMachine(gw, WithSink(sink))

	day := DayOf(atAge(testCycle, 7.2))
	morning := time.Date(day.Year, day.Month, day.Day, 8, 0, 0, 0, time.UTC)
	first := m.OnTick(context.Background(), morning)
	second := m.OnTick(context.Background(), morning.Add(time.Minute))

	assert.Equal(t, first.Angle, second.Angle)
	assert.Equal(t, first.Phase, second.Phase)
	assert.Equal(t, first.Side, second.Side)
	assert.True(t, first.Fresh)
	assert.False(t, second.Fresh)
	assert.Len(t, gw.saved, 1, "second tick must not persist")
	assert.Len(t, sink.readings, 2, "every tick is emitted")
}

func TestOnTick_SameDayAcrossMidnightBoundary(t *testing.T) {
	gw := &fakeGateway{}
	m := NewMachine(gw)

	day := DayOf(atAge(testCycle, 7.2))
	noon := time.Date(day.Year, day.Month, day.Day, 12, 0, 0, 0, time.UTC)
	endOfDay := time.Date(day.Year, day.Month, day.Day, 23, 59, 0, 0, time.UTC)
	nextDay := endOfDay.Add(2 * time.Minute)

	m.OnTick(context.Background(), noon)
	m.OnTick(context.Background(), endOfDay)
	require.Len(t, gw.saved, 1)

	m.OnTick(context.Background(), nextDay)
	assert.Len(t, gw.saved, 2)
}

func TestOnTick_DeerFullMoonProgression(t *testing.T) {
	gw := &fakeGateway{}
	m := NewMachine(gw, WithState(State{
		Angle:      340,
		HasAngle:   true,
		Side:       Deer,
		Phase:      lunar.WaxingGibbous,
		LastUpdate: DayOf(atAge(testCycle, 12.2)),
	}))
	ctx := context.Background()

	r := m.OnTick(ctx, atAge(testCycle, 13.2))
	require.Equal(t, lunar.FullMoon, r.Phase)
	assert.Equal(t, 352, r.Angle)

	r = m.OnTick(ctx, atAge(testCycle, 14.2))
	assert.Equal(t, 359, r.Angle, "352+7 stays below the wrap")

	r = m.OnTick(ctx, atAge(testCycle, 15.2))
	assert.Equal(t, 6, r.Angle, "359+7 wraps past 360")

	r = m.OnTick(ctx, atAge(testCycle, 16.2))
	assert.Equal(t, 13, r.Angle)

	r = m.OnTick(ctx, atAge(testCycle, 17.2))
	assert.Equal(t, lunar.WaningGibbous, r.Phase)
	assert.Equal(t, 22, r.Angle)
	assert.Equal(t, Deer, r.Side)
	assert.Zero(t, gw.loads, "phase start days never consult the slot")
}

func TestOnTick_ColdStartMidFullMoonWithoutData(t *testing.T) {
	gw := &fakeGateway{}
	rec := newCountingRecorder()
	m := NewMachine(gw, WithRecorder(rec))

	r := m.OnTick(context.Background(), atAge(testCycle, 16))

	assert.Equal(t, lunar.FullMoon, r.Phase)
	assert.Equal(t, Deer, r.Side)
	assert.Equal(t, 352, r.Angle)
	assert.False(t, r.Recovered)
	assert.Equal(t, 1, gw.loads)
	assert.Equal(t, 1, rec.recoveries[metrics.RecoveryNoData])
}

func TestOnTick_SideFlipsAtNewMoon(t *testing.T) {
	gw := &fakeGateway{value: 999, ok: true}
	rec := newCountingRecorder()
	m := NewMachine(gw, WithRecorder(rec), WithState(State{
		Angle:      78,
		HasAngle:   true,
		Side:       Deer,
		Phase:      lunar.WaningCrescent,
		LastUpdate: DayOf(atAge(testCycle, 27.5)),
	}))

	r := m.OnTick(context.Background(), atAge(testCycle, 28.3))

	assert.Equal(t, lunar.NewMoon, r.Phase)
	assert.Equal(t, Ship, r.Side)
	assert.Equal(t, 86, r.Angle)
	assert.True(t, r.Flipped)
	assert.Equal(t, 1, rec.flips)
	assert.Zero(t, gw.loads)
}

func TestOnTick_NoFlipWhenWaningCrescentIsSkipped(t *testing.T) {
	m := NewMachine(&fakeGateway{}, WithState(State{
		Angle:      59,
		HasAngle:   true,
		Side:       Deer,
		Phase:      lunar.LastQuarter,
		LastUpdate: DayOf(atAge(testCycle, 22)),
	}))

	r := m.OnTick(context.Background(), atAge(testCycle, 28.3))

	assert.Equal(t, lunar.NewMoon, r.Phase)
	assert.Equal(t, Deer, r.Side)
	assert.False(t, r.Flipped)
}

func TestOnTick_RecoversPersistedAngleAfterRestart(t *testing.T) {
	gw := &fakeGateway{value: 6, ok: true}
	rec := newCountingRecorder()
	m := NewMachine(gw, WithRecorder(rec))

	r := m.OnTick(context.Background(), atAge(testCycle, 16))

	assert.True(t, r.Recovered)
	assert.Equal(t, 6, r.Angle)
	assert.Equal(t, lunar.FullMoon, r.Phase, "recovery keeps the computed phase")
	assert.Equal(t, Deer, r.Side, "recovery keeps the side")
	assert.Equal(t, []int{6}, gw.saved)
	assert.Equal(t, 1, rec.recoveries[metrics.RecoveryRestored])

	next := m.OnTick(context.Background(), atAge(testCycle, 17))
	assert.Equal(t, lunar.WaningGibbous, next.Phase)
	assert.Equal(t, 22, next.Angle)
}

func TestOnTick_RecoveryContinuesAdvancingFromStoredAngle(t *testing.T) {
	gw := &fakeGateway{value: 105, ok: true}
	m := NewMachine(gw, WithState(State{Side: Ship, Phase: lunar.WaxingCrescent}))
	ctx := context.Background()

	r := m.OnTick(ctx, atAge(testCycle, 4.5))
	require.True(t, r.Recovered)
	assert.Equal(t, 105, r.Angle)

	r = m.OnTick(ctx, atAge(testCycle, 4.5).Add(24*time.Hour))
	assert.Equal(t, 112, r.Angle)
}

func TestOnTick_RecoveredAngleNearFullTurnStaysInRange(t *testing.T) {
	gw := &fakeGateway{value: 356, ok: true}
	m := NewMachine(gw)
	ctx := context.Background()

	r := m.OnTick(ctx, atAge(testCycle, 25))
	require.Equal(t, lunar.WaningCrescent, r.Phase)
	require.True(t, r.Recovered)
	assert.Equal(t, 356, r.Angle)

	next := m.OnTick(ctx, atAge(testCycle, 26))
	assert.Equal(t, lunar.WaningCrescent, next.Phase)
	assert.Equal(t, 3, next.Angle)
	assert.Equal(t, []int{356, 3}, gw.saved)

	// the saved value is one the machine accepts again after a restart
	restarted := NewMachine(gw)
	again := restarted.OnTick(ctx, atAge(testCycle, 26))
	assert.True(t, again.Recovered)
	assert.Equal(t, 3, again.Angle)
}

func TestOnTick_EmitsWithoutHoldingState(t *testing.T) {
	m := NewMachine(&fakeGateway{})
	var seen []State
	m.sink = SinkFunc(func(context.Context, Reading) {
		seen = append(seen, m.Snapshot())
	})

	done := make(chan Reading, 1)
	go func() { done <- m.OnTick(context.Background(), atAge(testCycle, 4.5)) }()

	select {
	case r := <-done:
		require.Len(t, seen, 1)
		assert.Equal(t, r.Angle, seen[0].Angle)
	case <-time.After(5 * time.Second):
		t.Fatal("sink could not read machine state during emit")
	}
}

func TestOnTick_RejectsOutOfRangePersistedAngle(t *testing.T) {
	for _, stored := range []int{360, 400, -7} {
		gw := &fakeGateway{value: stored, ok: true}
		rec := newCountingRecorder()
		m := NewMachine(gw, WithRecorder(rec))

		r := m.OnTick(context.Background(), atAge(testCycle, 16))

		assert.False(t, r.Recovered, "stored %d", stored)
		assert.Equal(t, 352, r.Angle, "stored %d", stored)
		assert.Equal(t, 1, rec.recoveries[metrics.RecoveryRejected], "stored %d", stored)
	}
}

func TestOnTick_PersistenceFailuresAreAbsorbed(t *testing.T) {
	gw := &fakeGateway{loadErr: errors.New("disk gone"), saveErr: errors.New("read-only")}
	rec := newCountingRecorder()
	sink := &captureSink{}
	m := NewMachine(gw, WithRecorder(rec), WithSink(sink))

	r := m.OnTick(context.Background(), atAge(testCycle, 16))

	assert.Equal(t, 352, r.Angle)
	assert.Equal(t, 1, rec.persistErrors[metrics.OpLoad])
	assert.Equal(t, 1, rec.persistErrors[metrics.OpSave])
	assert.Equal(t, 1, rec.recoveries[metrics.RecoveryError])
	require.Len(t, sink.readings, 1)
	assert.Equal(t, 352, m.Snapshot().Angle)
}

func TestOnTick_NoRecoveryOnPhaseStartDay(t *testing.T) {
	gw := &fakeGateway{value: 140, ok: true}
	m := NewMachine(gw, WithState(State{Side: Ship, Phase: lunar.FirstQuarter}))

	// Half a day into WaxingGibbous.
	r := m.OnTick(context.Background(), atAge(testCycle, 9.7))

	assert.Equal(t, lunar.WaxingGibbous, r.Phase)
	assert.Equal(t, 145, r.Angle)
	assert.Zero(t, gw.loads)
}

func TestOnTick_DailyPropertiesOverSeveralCycles(t *testing.T) {
	gw := &fakeGateway{}
	m := NewMachine(gw)
	ctx := context.Background()
	start := atAge(testCycle, 3).Truncate(24 * time.Hour).Add(9 * time.Hour)

	prev := m.OnTick(ctx, start)
	loads := gw.loads
	flips := 0
	for d := 1; d < 150; d++ {
		before := m.Snapshot()
		r := m.OnTick(ctx, start.AddDate(0, 0, d))

		require.True(t, r.Fresh)
		require.GreaterOrEqual(t, r.Angle, 0, "day %d", d)
		require.Less(t, r.Angle, FullTurn, "day %d", d)

		wantFlip := before.Phase == lunar.WaningCrescent && r.Phase == lunar.NewMoon
		require.Equal(t, wantFlip, r.Flipped, "day %d: %s -> %s", d, before.Phase, r.Phase)
		if wantFlip {
			flips++
			require.Equal(t, prev.Side.Opposite(), r.Side, "day %d", d)
		} else {
			require.Equal(t, prev.Side, r.Side, "day %d", d)
		}

		if r.Phase == prev.Phase {
			e, _ := Lookup(r.Side, r.Phase)
			from, to := prev.Angle, r.Angle
			if e.Wraps {
				if from+FullTurn < e.Ceiling {
					from += FullTurn
				}
				if to+FullTurn < e.Ceiling {
					to += FullTurn
				}
			}
			step := to - from
			require.GreaterOrEqual(t, step, 0, "day %d", d)
			require.LessOrEqual(t, step, MaxStep, "day %d", d)
			if e.Bound == BoundCeiling {
				require.Less(t, to, e.Ceiling, "day %d", d)
			}
		} else {
			require.Equal(t, Start(r.Side, r.Phase), r.Angle, "day %d", d)
		}
		prev = r
	}

	assert.GreaterOrEqual(t, flips, 4)
	assert.Equal(t, loads, gw.loads, "an uninterrupted run never needs recovery")
}

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	instant := time.Date(2025, time.March, 31, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, Day{2025, time.March, 31}, DayOf(instant))
	assert.Equal(t, Day{2025, time.April, 1}, DayOf(instant.In(loc)))
	assert.Equal(t, "2025-04-01", DayOf(instant.In(loc)).String())
	assert.True(t, Day{}.IsZero())
	assert.Empty(t, Day{}.String())
}
