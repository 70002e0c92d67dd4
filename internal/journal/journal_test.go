package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/moondial/internal/dial"
	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
	"git.home.luguber.info/inful/moondial/internal/lunar"
)

func openMemory(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	j.now = func() time.Time { return time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC) }
	return j
}

func reading(day string, angle int, phase lunar.Phase) dial.Reading {
	return dial.Reading{Angle: angle, Side: dial.Deer, Phase: phase, Day: day, Fresh: true}
}

func TestJournal_AppendAndRecent(t *testing.T) {
	j := openMemory(t)
	ctx := context.Background()

	_, err := j.Append(ctx, reading("2025-03-13", 352, lunar.FullMoon))
	require.NoError(t, err)
	e, err := j.Append(ctx, reading("2025-03-14", 359, lunar.FullMoon))
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-03-14", entries[0].Day)
	assert.Equal(t, 359, entries[0].Angle)
	assert.Equal(t, "deer", entries[0].Side)
	assert.Equal(t, "full_moon", entries[0].Phase)
	assert.Equal(t, e.ID, entries[0].ID)
	assert.Equal(t, time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC), entries[0].RecordedAt)
}

func TestJournal_SameDayReplaces(t *testing.T) {
	j := openMemory(t)
	ctx := context.Background()

	_, err := j.Append(ctx, reading("2025-03-14", 352, lunar.FullMoon))
	require.NoError(t, err)
	r := reading("2025-03-14", 6, lunar.FullMoon)
	r.Recovered = true
	_, err = j.Append(ctx, r)
	require.NoError(t, err)

	entries, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 6, entries[0].Angle)
	assert.True(t, entries[0].Recovered)
}

func TestJournal_Range(t *testing.T) {
	j := openMemory(t)
	ctx := context.Background()
	for i, day := range []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13"} {
		_, err := j.Append(ctx, reading(day, 300+i*7, lunar.FirstQuarter))
		require.NoError(t, err)
	}

	entries, err := j.Range(ctx, "2025-03-11", "2025-03-12")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-03-11", entries[0].Day)
	assert.Equal(t, 314, entries[1].Angle)
}

func TestJournal_DeliverSkipsCachedReadings(t *testing.T) {
	j := openMemory(t)
	ctx := context.Background()

	cached := reading("2025-03-14", 100, lunar.WaxingCrescent)
	cached.Fresh = false
	require.NoError(t, j.Deliver(ctx, cached))

	_, ok, err := j.Latest(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, j.Deliver(ctx, reading("2025-03-14", 100, lunar.WaxingCrescent)))
	latest, ok, err := j.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 100, latest.Angle)
	assert.Equal(t, "journal", j.Name())
}

func TestJournal_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	_, err = j.Append(ctx, reading("2025-03-14", 22, lunar.WaningGibbous))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	latest, ok, err := j.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 22, latest.Angle)
}

func TestJournal_ClosedDatabaseErrorsAreClassified(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	_, err = j.Append(context.Background(), reading("2025-03-14", 1, lunar.NewMoon))
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryJournal))
}
