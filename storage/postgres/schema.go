package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Bootstrap applies the idempotent schema the kit needs. Hosts with their own
// migration tooling can run equivalent DDL instead.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id             UUID PRIMARY KEY,
			email          TEXT NOT NULL UNIQUE,
			username       TEXT,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			active         BOOLEAN NOT NULL DEFAULT TRUE,
			password_hash  TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS audit_events (
			id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			occurred_at TIMESTAMPTZ NOT NULL,
			action      TEXT NOT NULL,
			severity    TEXT NOT NULL,
			subject_id  TEXT,
			ip          TEXT,
			metadata    JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS audit_events_occurred_at_idx ON audit_events (occurred_at)`,
		`CREATE INDEX IF NOT EXISTS audit_events_subject_idx ON audit_events (subject_id, occurred_at)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	return nil
}
