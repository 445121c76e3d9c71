package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the registry tables when they do not exist yet.
// Intended for development and single-node deployments; production schemas
// are managed out of band.
func EnsureSchema(ctx context.Context, db DB) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS modules (
			name TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			integrity TEXT,
			version TEXT,
			variables JSONB NOT NULL DEFAULT '{}'::jsonb,
			description TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS releases (
			release_id TEXT PRIMARY KEY,
			version TEXT NOT NULL,
			description TEXT,
			artifacts JSONB NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS releases_created_at_idx ON releases (created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS audit_events (
			event_id BIGSERIAL PRIMARY KEY,
			occurred_at TIMESTAMPTZ NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			resource_type TEXT NOT NULL,
			resource_id TEXT NOT NULL,
			request_id TEXT,
			payload JSONB NOT NULL DEFAULT '{}'::jsonb
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
