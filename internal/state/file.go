package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// FileBackend stores the document as a JSON file. Writes go to a temporary
// file in the same directory and are renamed over the target while an
// exclusive lock on "<path>.lock" is held.
type FileBackend struct {
	path string
	lock *flock.Flock
}

// NewFileBackend returns a backend for the JSON document at path.
func NewFileBackend(path string) (*FileBackend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("state: file path is required")
	}
	return &FileBackend{path: path, lock: flock.New(path + ".lock")}, nil
}

// Path returns the document location.
func (b *FileBackend) Path() string {
	return b.path
}

// Load implements Backend.
func (b *FileBackend) Load(ctx context.Context) (ConfigState, bool, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return ConfigState{}, false, nil
	}
	if err != nil {
		return ConfigState{}, false, fmt.Errorf("state: read %s: %w", b.path, err)
	}
	state, err := decode(data)
	if err != nil {
		return ConfigState{}, false, err
	}
	return state, true, nil
}

// Save implements Backend.
func (b *FileBackend) Save(ctx context.Context, state ConfigState) error {
	data, err := encode(state)
	if err != nil {
		return fmt.Errorf("state: encode document: %w", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: create directory %s: %w", dir, err)
	}

	locked, err := b.lock.TryLockContext(ctx, 25*time.Millisecond)
	if err != nil {
		return fmt.Errorf("state: lock %s: %w", b.path, err)
	}
	if !locked {
		return fmt.Errorf("state: lock %s: not acquired", b.path)
	}
	defer func() { _ = b.lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("state: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("state: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		return fmt.Errorf("state: replace %s: %w", b.path, err)
	}
	return nil
}

// Close implements Backend.
func (b *FileBackend) Close() error {
	return b.lock.Close()
}
