package keyx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/chatgate/pkg/cryptox"
	"golang.org/x/sync/singleflight"
)

// KeyManager owns the authoritative current KeyRecord. It derives, persists,
// reloads and refreshes it, and is the only writer of its KeyStore.
//
// Readers call Current, which is lock-free: the record is swapped as a whole
// through an atomic pointer so a reader observes either the old or the new
// record, never a mix. Writers (Initialize, RefreshIfExpired) are serialised
// by mu, and concurrent refresh callers are collapsed into one rotation.
type KeyManager struct {
	store  KeyStore
	secret string
	clock  Clock
	logger *slog.Logger

	current atomic.Pointer[KeyRecord]
	mu      sync.Mutex
	refresh singleflight.Group
}

// KeyManagerOptions configures a KeyManager.
type KeyManagerOptions struct {
	// Store persists the current record across restarts. Required.
	Store KeyStore

	// Secret is the derivation secret. Required; never logged.
	Secret string

	// Clock defaults to SystemClock.
	Clock Clock

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewKeyManager validates the options and returns a manager with no current
// record. Call Initialize before serving.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("keyx: Store is required")
	}
	if opts.Secret == "" {
		return nil, fmt.Errorf("keyx: Secret is required")
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &KeyManager{
		store:  opts.Store,
		secret: opts.Secret,
		clock:  opts.Clock,
		logger: opts.Logger,
	}, nil
}

// Initialize derives the key for the current week and reconciles it with the
// store. A stored record is adopted, with its exact stored expiry, only when
// it is readable, unexpired and carries the freshly derived key; otherwise
// the fresh record is persisted and adopted.
//
// An error wrapping ErrPersist means the record is live in memory but was not
// saved.
func (km *KeyManager) Initialize(ctx context.Context) error {
	km.mu.Lock()
	defer km.mu.Unlock()

	_, err := km.rotateLocked(ctx)
	return err
}

// Current returns the in-memory record without side effects. It returns the
// zero record before Initialize has run.
func (km *KeyManager) Current() KeyRecord {
	if rec := km.current.Load(); rec != nil {
		return *rec
	}
	return KeyRecord{}
}

// RefreshIfExpired rotates the record when the clock has reached its expiry
// and reports whether a rotation happened. It is safe to call concurrently
// with itself and with Current.
func (km *KeyManager) RefreshIfExpired(ctx context.Context) (bool, error) {
	if !km.Current().ExpiredAt(km.clock.Now()) {
		return false, nil
	}

	// Collapsed callers share this rotation, so one caller going away must
	// not abort the write for the others.
	ctx = context.WithoutCancel(ctx)

	v, err, _ := km.refresh.Do("refresh", func() (any, error) {
		km.mu.Lock()
		defer km.mu.Unlock()

		// Another writer may have rotated while we waited for the lock.
		if !km.Current().ExpiredAt(km.clock.Now()) {
			return false, nil
		}

		_, err := km.rotateLocked(ctx)
		return true, err
	})

	rotated, _ := v.(bool)
	return rotated, err
}

// rotateLocked runs the derive-or-load logic and swaps in the result.
// The caller must hold km.mu.
func (km *KeyManager) rotateLocked(ctx context.Context) (KeyRecord, error) {
	now := km.clock.Now()
	candidate := Derive(now, km.secret)
	week := WeekOf(now).String()

	if stored, ok := km.loadUsable(ctx, now, candidate); ok {
		km.current.Store(&stored)
		km.logger.Info("adopted stored api key",
			"week", week,
			"key_fp", cryptox.Fingerprint(stored.Key),
			"expiry", stored.Expiry,
		)
		return stored, nil
	}

	err := km.persist(ctx, candidate)
	km.current.Store(&candidate)

	if err != nil {
		km.logger.Error("api key rotated in memory but not persisted",
			"week", week,
			"key_fp", cryptox.Fingerprint(candidate.Key),
			"error", err,
		)
		return candidate, err
	}

	km.logger.Info("derived new api key",
		"week", week,
		"key_fp", cryptox.Fingerprint(candidate.Key),
		"expiry", candidate.Expiry,
	)
	return candidate, nil
}

// loadUsable reads the stored record and reports whether it may be adopted.
// Read and decode failures count as "no stored record".
func (km *KeyManager) loadUsable(ctx context.Context, now time.Time, candidate KeyRecord) (KeyRecord, bool) {
	stored, err := km.store.Load(ctx)
	switch {
	case errors.Is(err, ErrNoRecord):
		return KeyRecord{}, false
	case err != nil:
		km.logger.Warn("stored api key unusable, regenerating", "error", err)
		return KeyRecord{}, false
	}

	if stored.ExpiredAt(now) {
		km.logger.Debug("stored api key expired", "expiry", stored.Expiry)
		return KeyRecord{}, false
	}

	if stored.Key != candidate.Key {
		km.logger.Warn("stored api key does not match derived key, regenerating")
		return KeyRecord{}, false
	}

	return stored, true
}

// persist writes rec to the store, replacing any prior value.
func (km *KeyManager) persist(ctx context.Context, rec KeyRecord) error {
	if err := km.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
