// Package storage provides the persisted angle slot the dial recovers from
// after a restart.
//
// A slot holds exactly one value: the last committed dial angle, encoded as an
// ASCII decimal integer. Every backend treats a missing, empty, non-numeric or
// negative value as "no data" rather than an error.
package storage

import (
	"context"
	"strconv"
	"strings"
)

// Slot is a single persisted angle. It satisfies dial.Gateway.
type Slot interface {
	// Load returns the stored angle. ok is false when nothing usable is stored.
	Load(ctx context.Context) (angle int, ok bool, err error)

	// Save replaces the stored angle.
	Save(ctx context.Context, angle int) error

	// Close releases any resources held by the slot.
	Close() error
}

// ParseAngle decodes a stored slot value. ok is false for values that carry
// no usable angle.
func ParseAngle(raw []byte) (int, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// FormatAngle encodes angle for storage.
func FormatAngle(angle int) []byte {
	return []byte(strconv.Itoa(angle))
}
