// Package file stores the key record as a small JSON document on disk.
//
// Writes go through renameio: a synced temporary file in the same directory
// is renamed over the target, so a reader sees either the old or the new
// document. Atomic replacement needs POSIX rename semantics.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	"github.com/google/renameio/v2"
)

// DefaultPath is the file name used when none is configured.
const DefaultPath = "current_key.json"

const fileMode = 0o600

type Store struct {
	path string

	// mu serialises writers within this process.
	mu sync.Mutex
}

// NewStore returns a store backed by path. The file need not exist yet but
// its directory must.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("file store: resolve %q: %w", path, err)
	}

	return &Store{path: abs}, nil
}

// Path returns the absolute location of the record.
func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context) (keyx.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return keyx.KeyRecord{}, err
	}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return keyx.KeyRecord{}, keyx.ErrNoRecord
	case err != nil:
		return keyx.KeyRecord{}, fmt.Errorf("file store: read: %w", err)
	}

	return keyx.UnmarshalRecord(data)
}

func (s *Store) Save(ctx context.Context, rec keyx.KeyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := keyx.MarshalRecord(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The temp file lives next to the record so the rename stays on one
	// filesystem.
	if err := renameio.WriteFile(s.path, data, fileMode, renameio.WithTempDir(filepath.Dir(s.path))); err != nil {
		return fmt.Errorf("file store: write: %w", err)
	}
	return nil
}

// Ping checks that the record's directory exists.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("file store: %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func (s *Store) Close() error { return nil }
