package db

import (
	"context"
	"fmt"
)

// schema holds the idempotent DDL for all tables. Kept as CREATE TABLE IF
// NOT EXISTS so a fresh database bootstraps itself on startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		token_expiry TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		popularity INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS track_attributes (
		track_id TEXT PRIMARY KEY REFERENCES tracks(id) ON DELETE CASCADE,
		camelot TEXT,
		bpm DOUBLE PRECISION,
		energy DOUBLE PRECISION,
		fetched_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sort_runs (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		playlist_id TEXT NOT NULL,
		playlist_name TEXT NOT NULL,
		track_ids TEXT[] NOT NULL,
		average_cost DOUBLE PRECISION NOT NULL,
		applied BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sort_runs_user ON sort_runs (user_id, created_at DESC)`,
}

// EnsureSchema creates any missing tables.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}
