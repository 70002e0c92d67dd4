package sink

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/moondial/internal/dial"
)

// Latest remembers the most recent reading for the HTTP API.
type Latest struct {
	mu      sync.RWMutex
	reading dial.Reading
	has     bool
	fresh   int
	total   int
}

// NewLatest creates an empty holder.
func NewLatest() *Latest { return &Latest{} }

func (l *Latest) Name() string { return "latest" }

// Deliver stores r.
func (l *Latest) Deliver(_ context.Context, r dial.Reading) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reading = r
	l.has = true
	l.total++
	if r.Fresh {
		l.fresh++
	}
	return nil
}

// Get returns the last reading. ok is false before the first tick.
func (l *Latest) Get() (dial.Reading, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reading, l.has
}

// Counts returns how many readings were seen and how many were fresh updates.
func (l *Latest) Counts() (total, fresh int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total, l.fresh
}
