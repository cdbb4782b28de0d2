// Package sqlite stores the key record in a single-row SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	_ "modernc.org/sqlite"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "gateway.db"

// slot is the only row the table may hold.
const slot = 1

const (
	loadQuery = `SELECT key, expiry FROM api_keys WHERE slot = ?`

	saveQuery = `
INSERT INTO api_keys (slot, key, expiry, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (slot) DO UPDATE SET
    key        = excluded.key,
    expiry     = excluded.expiry,
    updated_at = excluded.updated_at`
)

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = DefaultPath
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One writer at a time; also keeps ":memory:" to a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Load(ctx context.Context) (keyx.KeyRecord, error) {
	var key, expiry string
	err := s.db.QueryRowContext(ctx, loadQuery, slot).Scan(&key, &expiry)
	if err != nil {
		return keyx.KeyRecord{}, mapNotFound(err)
	}

	return keyx.RecordFromFields(key, expiry)
}

// Save upserts the single row in one statement, so readers never observe a
// partially written record.
func (s *Store) Save(ctx context.Context, rec keyx.KeyRecord) error {
	if rec.IsZero() {
		return fmt.Errorf("%w: empty key", keyx.ErrMalformedRecord)
	}

	_, err := s.db.ExecContext(ctx, saveQuery,
		slot,
		rec.Key,
		keyx.FormatExpiry(rec.Expiry),
		keyx.FormatExpiry(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("sqlite store: save: %w", err)
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return keyx.ErrNoRecord
	}
	return fmt.Errorf("sqlite store: load: %w", err)
}
