package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/johnpapajani/rezi-web-sub002/internal/errs"
)

// FileBackend keeps all entries in a single JSON file. Multi-key writes are
// atomic via write-to-temp-then-rename, so readers see either the old or the
// new file, never a mix.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

// NewFileBackend creates the parent directory if needed and returns a backend
// rooted at path.
func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileBackend{path: path}, nil
}

// Get returns the stored value or errs.ErrNotFound.
func (f *FileBackend) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := entries[key]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// SetAll merges the entries into the file in one atomic replace.
func (f *FileBackend) SetAll(_ context.Context, entries map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		return err
	}
	for k, v := range entries {
		current[k] = v
	}
	return f.save(current)
}

// DeleteAll removes the keys in one atomic replace. Missing keys are ignored.
func (f *FileBackend) DeleteAll(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(current, k)
	}
	return f.save(current)
}

func (f *FileBackend) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	entries := map[string]string{}
	if len(raw) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		// Corrupt state file: treat as empty rather than wedging the session.
		return map[string]string{}, nil
	}
	return entries, nil
}

func (f *FileBackend) save(entries map[string]string) error {
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
