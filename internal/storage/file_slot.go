package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSlot keeps the angle in a small text file. Writes go to a temporary
// file in the same directory which is then renamed over the target.
type FileSlot struct {
	path string
	mu   sync.RWMutex
}

// NewFileSlot creates a file-backed slot at path, creating parent directories.
func NewFileSlot(path string) (*FileSlot, error) {
	if path == "" {
		return nil, errors.New("angle file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
	}
	return &FileSlot{path: path}, nil
}

// Path returns the file the slot writes to.
func (f *FileSlot) Path() string { return f.path }

// Load reads the stored angle.
func (f *FileSlot) Load(ctx context.Context) (int, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	// #nosec G304 - path comes from operator configuration
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read angle file: %w", err)
	}

	angle, ok := ParseAngle(data)
	return angle, ok, nil
}

// Save atomically replaces the stored angle.
func (f *FileSlot) Save(ctx context.Context, angle int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp angle file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(FormatAngle(angle)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write angle file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close angle file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace angle file: %w", err)
	}
	return nil
}

// Close releases resources.
func (f *FileSlot) Close() error {
	return nil
}
