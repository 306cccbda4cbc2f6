// Package sqlite implements the hotel directory and override-state
// repositories on SQLite.
package sqlite

import (
	"context"
	"fmt"
)

// Storage bundles the connection pool with schema management.
type Storage struct {
	pool *ConnectionPool
}

// Open opens the database behind dsn.
func Open(dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{pool: pool}, nil
}

// Pool exposes the connection pool for repository construction.
func (s *Storage) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the underlying connections.
func (s *Storage) Close() error {
	return s.pool.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS hotels (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		city            TEXT NOT NULL,
		local_currency  TEXT NOT NULL DEFAULT '',
		local_threshold REAL NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_hotels_city ON hotels(city)`,
	`CREATE TABLE IF NOT EXISTS extra_hotels (
		city     TEXT NOT NULL,
		hotel_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (city, hotel_id)
	)`,
	`CREATE TABLE IF NOT EXISTS hotel_assignments (
		city          TEXT NOT NULL,
		booking_id    TEXT NOT NULL,
		check_in_date TEXT NOT NULL,
		hotel_id      TEXT NOT NULL,
		PRIMARY KEY (city, booking_id, check_in_date)
	)`,
	`CREATE TABLE IF NOT EXISTS row_statuses (
		hotel_id      TEXT NOT NULL,
		booking_id    TEXT NOT NULL,
		check_in_date TEXT NOT NULL,
		status        TEXT NOT NULL,
		PRIMARY KEY (hotel_id, booking_id, check_in_date)
	)`,
}

// Migrate applies the schema. Statements are idempotent, so repeated startup
// runs are safe.
func (s *Storage) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
