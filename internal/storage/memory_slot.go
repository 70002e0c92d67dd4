package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemorySlot is an in-process slot. It is used by the simulator and by tests.
type MemorySlot struct {
	mu    sync.RWMutex
	value []byte
	calls MemoryCalls

	// LoadErr and SaveErr, when set, are returned by the next calls.
	LoadErr error
	SaveErr error
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Load int
	Save int
}

// NewMemorySlot creates an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

// SetRaw stores raw bytes as if another process had written them.
func (m *MemorySlot) SetRaw(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = append([]byte(nil), raw...)
}

// Load returns the stored angle.
func (m *MemorySlot) Load(ctx context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Load++

	if m.LoadErr != nil {
		return 0, false, m.LoadErr
	}
	if m.value == nil {
		return 0, false, nil
	}
	angle, ok := ParseAngle(m.value)
	return angle, ok, nil
}

// Save replaces the stored angle.
func (m *MemorySlot) Save(ctx context.Context, angle int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Save++

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.value = FormatAngle(angle)
	return nil
}

// Close releases resources (no-op for memory).
func (m *MemorySlot) Close() error {
	return nil
}

// Calls returns the number of times each method was called.
func (m *MemorySlot) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// String returns a string representation for debugging.
func (m *MemorySlot) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("MemorySlot{value: %q, calls: %+v}", m.value, m.calls)
}
