package keyx_test

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/chatgate/pkg/keyx"
)

const testSecret = "s3cr3t"

// manualClock is a keyx.Clock whose time only moves when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(t time.Time) *manualClock { return &manualClock{now: t} }

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeStore is an in-memory keyx.KeyStore with injectable failures. Like
// the real drivers it refuses to work on a cancelled context.
type fakeStore struct {
	mu      sync.Mutex
	rec     *keyx.KeyRecord
	loadErr error
	saveErr error
	saves   int
}

func (s *fakeStore) Load(ctx context.Context) (keyx.KeyRecord, error) {
	if err := ctx.Err(); err != nil {
		return keyx.KeyRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return keyx.KeyRecord{}, s.loadErr
	}
	if s.rec == nil {
		return keyx.KeyRecord{}, keyx.ErrNoRecord
	}
	return *s.rec, nil
}

func (s *fakeStore) Save(ctx context.Context, rec keyx.KeyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.rec = &rec
	return nil
}

func (s *fakeStore) stored() (keyx.KeyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return keyx.KeyRecord{}, false
	}
	return *s.rec, true
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
