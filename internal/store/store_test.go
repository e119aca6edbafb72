package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshavgujrathi/scholariq/internal/config"
)

// newTestStore opens a sqlite store in a temp directory with the schema
// already created.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), config.DatabaseConfig{URL: "sqlite://" + dbPath}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.CreateSchema(context.Background()))
	return s
}

func TestParseURL(t *testing.T) {
	t.Parallel()

	driver, dsn, dialect, err := parseURL("sqlite://scholariq.db")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", driver)
	assert.Equal(t, "scholariq.db", dsn)
	assert.Equal(t, DialectSQLite, dialect)

	driver, dsn, dialect, err = parseURL("postgres://u:p@db:5432/app")
	require.NoError(t, err)
	assert.Equal(t, "pgx", driver)
	assert.Equal(t, "postgres://u:p@db:5432/app", dsn)
	assert.Equal(t, DialectPostgres, dialect)

	_, _, _, err = parseURL("mysql://nope")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	t.Parallel()

	s := &Store{dialect: DialectPostgres}
	assert.Equal(t, "SELECT $1, $2", s.rebind("SELECT ?, ?"))

	s.dialect = DialectSQLite
	assert.Equal(t, "SELECT ?, ?", s.rebind("SELECT ?, ?"))
}

func TestSchemaLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	ready, err := s.SchemaReady(ctx)
	require.NoError(t, err)
	assert.True(t, ready)

	// Idempotent create.
	require.NoError(t, s.CreateSchema(ctx))

	require.NoError(t, s.DropSchema(ctx))
	ready, err = s.SchemaReady(ctx)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestDropSchema_ProductionGuard(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "prod.db")
	s, err := Open(context.Background(), config.DatabaseConfig{URL: "sqlite://" + dbPath}, "production")
	require.NoError(t, err)
	defer s.Close()

	err = s.DropSchema(context.Background())
	assert.ErrorIs(t, err, ErrProductionGuard)
}

func TestUserCRUD(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	u := &User{
		Email:          "alice@example.com",
		Username:       "alice",
		HashedPassword: "x",
		FullName:       "Alice",
		IsActive:       true,
	}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LastLogin)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAnalysisLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	a := &Analysis{ContentType: "text/plain", Title: "sample"}
	require.NoError(t, s.CreateAnalysis(ctx, a))
	assert.Equal(t, AnalysisPending, a.Status)

	require.NoError(t, s.MarkProcessing(ctx, a.ID))
	got, err := s.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, AnalysisProcessing, got.Status)
	require.NotNil(t, got.StartedAt)

	results := map[string]any{"word_count": float64(10), "language": "en"}
	require.NoError(t, s.MarkCompleted(ctx, a.ID, results))

	got, err = s.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, AnalysisCompleted, got.Status)
	assert.Equal(t, results, got.Results)
	require.NotNil(t, got.CompletedAt)
	assert.Greater(t, got.Duration(), -1.0)
}

func TestAnalysisFailure(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	a := &Analysis{ContentType: "text/plain"}
	require.NoError(t, s.CreateAnalysis(ctx, a))
	require.NoError(t, s.MarkFailed(ctx, a.ID, errors.New("boom")))

	got, err := s.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, AnalysisFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
}

func TestAnalysisUpdate_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	err := s.MarkProcessing(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAnalyses(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateAnalysis(ctx, &Analysis{ContentType: "text/plain"}))
	}

	list, err := s.ListAnalyses(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSeed_Idempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Seed(ctx))
	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	admin, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsActive)
	assert.NotEqual(t, "admin123", admin.HashedPassword)

	// Second run must not duplicate anything.
	require.NoError(t, s.Seed(ctx))
	n, err = s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestProbe(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	p := NewProber(s, NewBreaker("database"))

	result := p.Probe(context.Background())
	assert.True(t, result.OK)
	assert.Equal(t, "database", result.Name)
	assert.Empty(t, result.Error)
}

func TestProbe_MissingSchema(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "bare.db")
	s, err := Open(context.Background(), config.DatabaseConfig{URL: "sqlite://" + dbPath}, "test")
	require.NoError(t, err)
	defer s.Close()

	p := NewProber(s, NewBreaker("database"))
	result := p.Probe(context.Background())
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "schema not initialized")
}
