// Package store persists the gateway's current key record.
//
// Drivers live under drivers/. Each one holds a single logical slot and is
// written only by the keyx.KeyManager.
package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/chatgate/pkg/keyx"
)

// Driver names accepted by KEY_STORE_DRIVER.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// ErrUnknownDriver is returned when a configured driver name is not one of
// the Driver constants.
var ErrUnknownDriver = errors.New("store: unknown driver")

// Store is the root data access interface. Concrete drivers implement this.
type Store interface {
	keyx.KeyStore

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}
