// Package store persists users, analyses, and operational records in the
// configured database. The backend is selected by the DATABASE_URL scheme:
// sqlite:// (default, pure-Go driver) or postgres:// via pgx.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver

	"github.com/keshavgujrathi/scholariq/internal/config"
)

// Dialect identifies the SQL flavor behind the store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Store wraps the SQL connection pool together with its dialect.
type Store struct {
	db      *sql.DB
	dialect Dialect
	env     string // APP_ENV, consulted before destructive operations
}

// Open parses the database URL, opens the pool, and verifies connectivity.
func Open(ctx context.Context, cfg config.DatabaseConfig, appEnv string) (*Store, error) {
	driver, dsn, dialect, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if dialect == DialectSQLite {
		// The sqlite file is a single writer; a wide pool just produces
		// SQLITE_BUSY under load.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{db: db, dialect: dialect, env: appEnv}, nil
}

// parseURL maps a DATABASE_URL onto an sql driver name and DSN.
//
//	sqlite://scholariq.db            → driver "sqlite", DSN "scholariq.db"
//	postgres://user:pw@host:5432/db  → driver "pgx", DSN unchanged
func parseURL(url string) (driver, dsn string, dialect Dialect, err error) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return "sqlite", strings.TrimPrefix(url, "sqlite://"), DialectSQLite, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "pgx", url, DialectPostgres, nil
	default:
		return "", "", "", fmt.Errorf("unsupported database URL %q (want sqlite:// or postgres://)", url)
	}
}

// Dialect returns the SQL flavor the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites "?" placeholders into the "$N" form pgx expects. Queries
// in this package are written with "?" and rebound per dialect.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}
