// Package memory is a process-local store driver. The key survives only for
// the lifetime of the process.
package memory

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/chatgate/pkg/keyx"
)

type Store struct {
	mu  sync.RWMutex
	rec *keyx.KeyRecord
}

func NewStore() *Store { return &Store{} }

func (s *Store) Load(context.Context) (keyx.KeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec == nil {
		return keyx.KeyRecord{}, keyx.ErrNoRecord
	}
	return *s.rec, nil
}

func (s *Store) Save(_ context.Context, rec keyx.KeyRecord) error {
	if rec.IsZero() {
		return keyx.ErrMalformedRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
