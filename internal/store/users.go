package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// User is an account row.
type User struct {
	ID             string
	Email          string
	Username       string
	HashedPassword string
	FullName       string
	IsActive       bool
	IsVerified     bool
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateUser inserts a user, generating an id when absent.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.exec(ctx,
		`INSERT INTO users (id, email, username, hashed_password, full_name, is_active, is_verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, u.HashedPassword, u.FullName, u.IsActive, u.IsVerified, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user %s: %w", u.Username, err)
	}
	return nil
}

// GetUserByUsername looks a user up by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.queryRow(ctx,
		`SELECT id, email, username, hashed_password, full_name, is_active, is_verified, last_login, created_at, updated_at
		 FROM users WHERE username = ?`, username)

	var u User
	var fullName sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.HashedPassword, &fullName,
		&u.IsActive, &u.IsVerified, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", username, err)
	}
	u.FullName = fullName.String
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// CountUsers returns the number of user rows. Used by seeding to stay idempotent.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// RecordAudit appends an audit log entry. Audit failures are the caller's
// choice to ignore; this method never panics on nil fields.
func (s *Store) RecordAudit(ctx context.Context, action, resourceType, resourceID, status, ip string) error {
	_, err := s.exec(ctx,
		`INSERT INTO audit_logs (id, action, resource_type, resource_id, status, ip_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), action, resourceType, resourceID, status, ip, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording audit %s: %w", action, err)
	}
	return nil
}
