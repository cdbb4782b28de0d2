// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/chatgate/internal/gateway/store"
	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	"github.com/stretchr/testify/require"
)

// Run exercises a driver. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	ctx := context.Background()
	week10 := keyx.KeyRecord{
		Key:    "sk-4edbaceaf79443dc",
		Expiry: time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC),
	}
	week11 := keyx.KeyRecord{
		Key:    "sk-514fb80d13f10f58",
		Expiry: time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC),
	}

	t.Run("empty store reports no record", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Load(ctx)
		require.ErrorIs(t, err, keyx.ErrNoRecord)
	})

	t.Run("save then load", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Save(ctx, week10))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, week10.Key, got.Key)
		require.True(t, week10.Expiry.Equal(got.Expiry))
	})

	t.Run("save replaces", func(t *testing.T) {
		s := newStore(t)

		require.NoError(t, s.Save(ctx, week10))
		require.NoError(t, s.Save(ctx, week11))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, week11.Key, got.Key)
		require.True(t, week11.Expiry.Equal(got.Expiry))
	})

	t.Run("sub-second expiry survives", func(t *testing.T) {
		s := newStore(t)
		rec := keyx.KeyRecord{Key: week10.Key, Expiry: week10.Expiry.Add(123456789 * time.Nanosecond)}

		require.NoError(t, s.Save(ctx, rec))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		require.True(t, rec.Expiry.Equal(got.Expiry))
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newStore(t).Ping(ctx))
	})

	t.Run("concurrent loads never see partial records", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(ctx, week10))

		var wg sync.WaitGroup
		stop := make(chan struct{})
		errs := make(chan error, 1)

		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-stop:
						return
					default:
					}
					got, err := s.Load(ctx)
					if err != nil {
						select {
						case errs <- err:
						default:
						}
						return
					}
					if got.Key != week10.Key && got.Key != week11.Key {
						select {
						case errs <- &tornError{got}:
						default:
						}
						return
					}
				}
			}()
		}

		for i := range 50 {
			rec := week10
			if i%2 == 1 {
				rec = week11
			}
			require.NoError(t, s.Save(ctx, rec))
		}
		close(stop)
		wg.Wait()

		select {
		case err := <-errs:
			require.NoError(t, err)
		default:
		}
	})
}

type tornError struct{ rec keyx.KeyRecord }

func (e *tornError) Error() string { return "torn record: " + e.rec.Key }
