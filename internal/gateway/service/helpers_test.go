package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/chatgate/internal/gateway/store/drivers/memory"
	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	"github.com/aussiebroadwan/chatgate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cr3t"

var week10 = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

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

// flakyStore fails every Save once broken is set.
type flakyStore struct {
	*memory.Store

	mu     sync.Mutex
	broken bool
}

func (s *flakyStore) Save(ctx context.Context, rec keyx.KeyRecord) error {
	s.mu.Lock()
	broken := s.broken
	s.mu.Unlock()

	if broken {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, rec)
}

func (s *flakyStore) Break() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken = true
}

func newKeyManager(t *testing.T, clock keyx.Clock) (*keyx.KeyManager, *flakyStore) {
	t.Helper()

	st := &flakyStore{Store: memory.NewStore()}
	km, err := keyx.NewKeyManager(keyx.KeyManagerOptions{
		Store:  st,
		Secret: testSecret,
		Clock:  clock,
		Logger: slogx.Discard(),
	})
	require.NoError(t, err)
	require.NoError(t, km.Initialize(context.Background()))
	return km, st
}
