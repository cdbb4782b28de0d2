package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/aussiebroadwan/chatgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/chatgate/pkg/cryptox"
	"github.com/aussiebroadwan/chatgate/pkg/keyx"
)

// Policy controls when the current key is refreshed after startup.
type Policy string

const (
	// PolicyStartup rotates only when the process starts. A long-lived
	// process keeps serving the same key until it is restarted.
	PolicyStartup Policy = "startup"

	// PolicyOnDemand refreshes an expired key whenever the admin endpoint is
	// queried.
	PolicyOnDemand Policy = "on-demand"

	// PolicyScheduled is PolicyOnDemand plus a background job that refreshes
	// on a fixed schedule.
	PolicyScheduled Policy = "scheduled"
)

// ParsePolicy maps a configuration value onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyStartup, PolicyOnDemand, PolicyScheduled:
		return p, nil
	case "":
		return PolicyScheduled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// RefreshesOnDemand reports whether the admin endpoint should refresh.
func (p Policy) RefreshesOnDemand() bool {
	return p == PolicyOnDemand || p == PolicyScheduled
}

// PersistWarning is reported when a key was rotated in memory but could not
// be saved.
const PersistWarning = "key rotated but could not be persisted"

// Rotation outcomes recorded in metrics.
const (
	RotationRotated      = "rotated"
	RotationUnchanged    = "unchanged"
	RotationPersistError = "persist_error"
)

// KeyManager is the part of keyx.KeyManager the rotation service needs.
type KeyManager interface {
	Current() keyx.KeyRecord
	RefreshIfExpired(ctx context.Context) (bool, error)
}

// KeyRotationService applies the configured Policy and answers the admin
// key endpoint.
type KeyRotationService struct {
	KeyManager KeyManager
	Policy     Policy
	Clock      keyx.Clock
	Metrics    *metrics.Metrics // optional
	Logger     *slog.Logger
}

// CurrentKeyResponse is what the key endpoint reports to administrators.
// Handlers map it onto the wire type in gatewaysdk.
type CurrentKeyResponse struct {
	APIKey        string
	Expiry        time.Time
	DaysRemaining int
	Warning       string
}

// Refresh rotates the key if it has expired and records the outcome. A
// returned error wraps keyx.ErrPersist; the new key is live regardless.
func (s *KeyRotationService) Refresh(ctx context.Context) (bool, error) {
	rotated, err := s.KeyManager.RefreshIfExpired(ctx)

	result := RotationUnchanged
	switch {
	case err != nil:
		result = RotationPersistError
	case rotated:
		result = RotationRotated
	}

	if s.Metrics != nil {
		s.Metrics.ObserveRotation(result, s.KeyManager.Current())
	}

	if rotated {
		s.logger().Info("api key rotated",
			"key_fp", cryptox.Fingerprint(s.KeyManager.Current().Key),
			"persisted", err == nil,
		)
	}

	return rotated, err
}

// CurrentKey returns the current key for an administrator, refreshing it
// first when the policy allows. Persistence failures become a warning on an
// otherwise successful response.
func (s *KeyRotationService) CurrentKey(ctx context.Context) (CurrentKeyResponse, error) {
	var warning string

	if s.Policy.RefreshesOnDemand() {
		if _, err := s.Refresh(ctx); err != nil {
			if !errors.Is(err, keyx.ErrPersist) {
				return CurrentKeyResponse{}, err
			}
			s.logger().Error("serving key that could not be persisted", "error", err)
			warning = PersistWarning
		}
	}

	current := s.KeyManager.Current()
	return CurrentKeyResponse{
		APIKey:        current.Key,
		Expiry:        current.Expiry,
		DaysRemaining: DaysRemaining(current.Expiry, s.now()),
		Warning:       warning,
	}, nil
}

// DaysRemaining is the number of whole days from now until expiry, rounded
// down. It is negative once the key is more than a day stale.
func DaysRemaining(expiry, now time.Time) int {
	return int(math.Floor(expiry.Sub(now).Hours() / 24))
}

func (s *KeyRotationService) now() time.Time {
	if s.Clock == nil {
		return keyx.SystemClock.Now()
	}
	return s.Clock.Now()
}

func (s *KeyRotationService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
