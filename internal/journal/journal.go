// Package journal keeps an append-only SQLite log of the dial's daily updates.
//
// One row is kept per calendar day. A restart that recomputes the same day
// replaces that day's row, so the journal always reflects the last committed
// angle for each day.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/moondial/internal/dial"
	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
)

// Entry is one committed daily update.
type Entry struct {
	ID         string    `json:"id"`
	Day        string    `json:"day"`
	Angle      int       `json:"angle"`
	Side       string    `json:"side"`
	Phase      string    `json:"phase"`
	Flipped    bool      `json:"flipped"`
	Recovered  bool      `json:"recovered"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Journal is a SQLite-backed update log.
type Journal struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens (and creates if needed) the journal database at path.
// Use ":memory:" for an in-memory journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryJournal, "could not open journal database").
			WithContext("path", path).Build()
	}
	// a single connection keeps ":memory:" databases shared across queries
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, now: time.Now}
	if err := j.initialize(); err != nil {
		_ = db.Close()
		return nil, derrors.WrapError(err, derrors.CategoryJournal, "failed to initialize journal schema").
			WithContext("path", path).Build()
	}
	return j, nil
}

func (j *Journal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS updates (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		day TEXT NOT NULL UNIQUE,
		angle INTEGER NOT NULL,
		side TEXT NOT NULL,
		phase TEXT NOT NULL,
		flipped INTEGER NOT NULL DEFAULT 0,
		recovered INTEGER NOT NULL DEFAULT 0,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_updates_recorded_at ON updates(recorded_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Name identifies the journal as a reading target.
func (j *Journal) Name() string { return "journal" }

// Deliver records fresh readings. Cached same-day readings are ignored.
func (j *Journal) Deliver(ctx context.Context, r dial.Reading) error {
	if !r.Fresh {
		return nil
	}
	_, err := j.Append(ctx, r)
	return err
}

// Append records r as the committed update for its day.
func (j *Journal) Append(ctx context.Context, r dial.Reading) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e := Entry{
		ID:         uuid.NewString(),
		Day:        r.Day,
		Angle:      r.Angle,
		Side:       r.Side.String(),
		Phase:      r.Phase.String(),
		Flipped:    r.Flipped,
		Recovered:  r.Recovered,
		RecordedAt: j.now().UTC().Truncate(time.Second),
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO updates (id, day, angle, side, phase, flipped, recovered, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			id = excluded.id,
			angle = excluded.angle,
			side = excluded.side,
			phase = excluded.phase,
			flipped = excluded.flipped,
			recovered = excluded.recovered,
			recorded_at = excluded.recorded_at`,
		e.ID, e.Day, e.Angle, e.Side, e.Phase, e.Flipped, e.Recovered, e.RecordedAt.Unix(),
	)
	if err != nil {
		return Entry{}, derrors.WrapError(err, derrors.CategoryJournal, "failed to append update").
			WithContext("day", e.Day).Build()
	}
	return e, nil
}

// Recent returns up to limit entries, newest day first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 30
	}
	return j.query(ctx, `SELECT id, day, angle, side, phase, flipped, recovered, recorded_at
		FROM updates ORDER BY day DESC LIMIT ?`, limit)
}

// Range returns entries with from <= day <= to (YYYY-MM-DD), oldest first.
func (j *Journal) Range(ctx context.Context, from, to string) ([]Entry, error) {
	return j.query(ctx, `SELECT id, day, angle, side, phase, flipped, recovered, recorded_at
		FROM updates WHERE day >= ? AND day <= ? ORDER BY day`, from, to)
}

// Latest returns the most recent entry. ok is false for an empty journal.
func (j *Journal) Latest(ctx context.Context) (Entry, bool, error) {
	entries, err := j.Recent(ctx, 1)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[0], true, nil
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryJournal, "failed to query updates").Build()
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recordedAt int64
		if err := rows.Scan(&e.ID, &e.Day, &e.Angle, &e.Side, &e.Phase, &e.Flipped, &e.Recovered, &recordedAt); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryJournal, "failed to scan update row").Build()
		}
		e.RecordedAt = time.Unix(recordedAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
