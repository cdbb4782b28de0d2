package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/chatgate/internal/gateway/store"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store/drivers/file"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store/drivers/memory"
	"github.com/aussiebroadwan/chatgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/chatgate/pkg/keyx"
)

// InitKeyStore opens the configured key store driver.
//
// Drivers:
//   - "file": the record is a JSON document rewritten atomically on rotation.
//   - "sqlite": the record is a single row; the schema is migrated on open.
//   - "memory": the record lives only as long as the process. Every restart
//     derives and adopts the key afresh.
func InitKeyStore(cfg Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.KeyStoreDriver {
	case store.DriverFile, "":
		st, err := file.NewStore(cfg.KeyStoreFile)
		if err != nil {
			return nil, err
		}
		logger.Info("key store opened", "driver", store.DriverFile, "path", st.Path())
		return st, nil

	case store.DriverSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.KeyStoreDatabase)
		st, err := sqlite.NewStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open key database: %w", err)
		}
		if err := st.ApplyMigrations(); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		logger.Info("key store opened", "driver", store.DriverSQLite, "path", cfg.KeyStoreDatabase)
		return st, nil

	case store.DriverMemory:
		logger.Warn("key store is in memory; the key record will not survive a restart")
		return memory.NewStore(), nil

	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownDriver, cfg.KeyStoreDriver)
	}
}

// InitKeyManager builds the KeyManager and adopts this week's key. A key
// that could not be persisted is still served; the failure is only logged.
func InitKeyManager(ctx context.Context, cfg Config, st store.Store, clock keyx.Clock, logger *slog.Logger) (*keyx.KeyManager, error) {
	km, err := keyx.NewKeyManager(keyx.KeyManagerOptions{
		Store:  st,
		Secret: cfg.AdminSecret,
		Clock:  clock,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	if err := km.Initialize(ctx); err != nil {
		if !errors.Is(err, keyx.ErrPersist) {
			return nil, fmt.Errorf("failed to initialize api key: %w", err)
		}
		logger.Error("serving api key that could not be persisted", "error", err)
	}

	return km, nil
}
