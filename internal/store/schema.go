package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrProductionGuard is returned when a destructive schema operation is
// attempted with APP_ENV=production.
var ErrProductionGuard = fmt.Errorf("refusing destructive schema operation in production")

// tableNames lists every table the schema manages, in creation order.
var tableNames = []string{"users", "analyses", "audit_logs", "system_settings"}

// schemaStatements holds the portable DDL. Identifiers and types are kept to
// the subset both sqlite and postgres accept.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              TEXT PRIMARY KEY,
		email           TEXT NOT NULL UNIQUE,
		username        TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		full_name       TEXT,
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		is_verified     BOOLEAN NOT NULL DEFAULT FALSE,
		last_login      TIMESTAMP,
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id           TEXT PRIMARY KEY,
		user_id      TEXT REFERENCES users(id),
		title        TEXT,
		description  TEXT,
		status       TEXT NOT NULL DEFAULT 'pending',
		content_type TEXT NOT NULL,
		file_path    TEXT,
		file_size    INTEGER,
		file_hash    TEXT,
		results      TEXT,
		error        TEXT,
		started_at   TIMESTAMP,
		completed_at TIMESTAMP,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id            TEXT PRIMARY KEY,
		user_id       TEXT,
		action        TEXT NOT NULL,
		resource_type TEXT,
		resource_id   TEXT,
		status        TEXT NOT NULL,
		ip_address    TEXT,
		user_agent    TEXT,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS system_settings (
		id          TEXT PRIMARY KEY,
		key         TEXT NOT NULL UNIQUE,
		value       TEXT NOT NULL,
		description TEXT,
		is_public   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_user_status ON analyses (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at)`,
}

// CreateSchema creates all tables and indexes. Idempotent.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops every managed table. Refused in production.
func (s *Store) DropSchema(ctx context.Context) error {
	if strings.EqualFold(s.env, "production") {
		return ErrProductionGuard
	}
	// Reverse order so foreign keys don't block the drop.
	for i := len(tableNames) - 1; i >= 0; i-- {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableNames[i])
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("dropping table %s: %w", tableNames[i], err)
		}
	}
	return nil
}

// SchemaReady reports whether the users table exists, the same check the
// readiness endpoint relies on.
func (s *Store) SchemaReady(ctx context.Context) (bool, error) {
	var query string
	switch s.dialect {
	case DialectPostgres:
		query = `SELECT 1 FROM information_schema.tables WHERE table_schema='public' AND table_name='users'`
	default:
		query = `SELECT 1 FROM sqlite_master WHERE type='table' AND name='users'`
	}

	var one int
	err := s.db.QueryRowContext(ctx, query).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		// No row means the table is missing, not a failure.
		return false, nil
	default:
		return false, err
	}
}
