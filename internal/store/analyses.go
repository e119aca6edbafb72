package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Analysis status lifecycle, from the analyses table's status column.
const (
	AnalysisPending    = "pending"
	AnalysisProcessing = "processing"
	AnalysisCompleted  = "completed"
	AnalysisFailed     = "failed"
)

// Analysis is a content analysis task row. Results are stored as a JSON
// document so analyzers can evolve their output shape freely.
type Analysis struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      string
	ContentType string
	FilePath    string
	FileSize    int64
	FileHash    string
	Results     map[string]any
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Duration returns the processing time in seconds, or 0 while unfinished.
func (a *Analysis) Duration() float64 {
	if a.StartedAt == nil || a.CompletedAt == nil {
		return 0
	}
	return a.CompletedAt.Sub(*a.StartedAt).Seconds()
}

// CreateAnalysis inserts a task in its initial state.
func (s *Store) CreateAnalysis(ctx context.Context, a *Analysis) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = AnalysisPending
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	results, err := marshalResults(a.Results)
	if err != nil {
		return err
	}

	_, err = s.exec(ctx,
		`INSERT INTO analyses (id, user_id, title, description, status, content_type, file_path, file_size, file_hash, results, error, started_at, completed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, nullable(a.UserID), a.Title, a.Description, a.Status, a.ContentType,
		a.FilePath, a.FileSize, a.FileHash, results, a.Error,
		nullableTime(a.StartedAt), nullableTime(a.CompletedAt), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting analysis %s: %w", a.ID, err)
	}
	return nil
}

// MarkProcessing transitions a task to processing and stamps started_at.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return s.updateStatus(ctx, id,
		`UPDATE analyses SET status = ?, started_at = ?, updated_at = ? WHERE id = ?`,
		AnalysisProcessing, now, now, id)
}

// MarkCompleted stores the results and stamps completed_at.
func (s *Store) MarkCompleted(ctx context.Context, id string, results map[string]any) error {
	data, err := marshalResults(results)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.updateStatus(ctx, id,
		`UPDATE analyses SET status = ?, results = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		AnalysisCompleted, data, now, now, id)
}

// MarkFailed stores the error message and stamps completed_at.
func (s *Store) MarkFailed(ctx context.Context, id string, taskErr error) error {
	now := time.Now().UTC()
	return s.updateStatus(ctx, id,
		`UPDATE analyses SET status = ?, error = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		AnalysisFailed, taskErr.Error(), now, now, id)
}

func (s *Store) updateStatus(ctx context.Context, id, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating analysis %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAnalysis fetches a task by id.
func (s *Store) GetAnalysis(ctx context.Context, id string) (*Analysis, error) {
	row := s.queryRow(ctx,
		`SELECT id, user_id, title, description, status, content_type, file_path, file_size, file_hash, results, error, started_at, completed_at, created_at, updated_at
		 FROM analyses WHERE id = ?`, id)
	return scanAnalysis(row)
}

// ListAnalyses returns the most recent tasks, newest first.
func (s *Store) ListAnalyses(ctx context.Context, limit int) ([]*Analysis, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.query(ctx,
		`SELECT id, user_id, title, description, status, content_type, file_path, file_size, file_hash, results, error, started_at, completed_at, created_at, updated_at
		 FROM analyses ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	var out []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*Analysis, error) {
	var a Analysis
	var userID, title, description, filePath, fileHash, results, errMsg sql.NullString
	var fileSize sql.NullInt64
	var startedAt, completedAt sql.NullTime

	err := row.Scan(&a.ID, &userID, &title, &description, &a.Status, &a.ContentType,
		&filePath, &fileSize, &fileHash, &results, &errMsg,
		&startedAt, &completedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning analysis: %w", err)
	}

	a.UserID = userID.String
	a.Title = title.String
	a.Description = description.String
	a.FilePath = filePath.String
	a.FileSize = fileSize.Int64
	a.FileHash = fileHash.String
	a.Error = errMsg.String
	if startedAt.Valid {
		t := startedAt.Time
		a.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	if results.Valid && results.String != "" {
		if err := json.Unmarshal([]byte(results.String), &a.Results); err != nil {
			return nil, fmt.Errorf("decoding results for analysis %s: %w", a.ID, err)
		}
	}
	return &a, nil
}

func marshalResults(m map[string]any) (string, error) {
	if m == nil {
		return "", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding results: %w", err)
	}
	return string(data), nil
}

// nullable converts an empty string into a SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// NewID returns a fresh task id. Exposed so the analysis service can hand
// ids to clients before the row exists.
func NewID() string {
	return uuid.NewString()
}
