package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
)

// Seed populates the database with the initial development data set: an
// admin and a demo account, default system settings, and one completed
// sample analysis. Seeding is idempotent; a database that already has
// users is left alone.
func (s *Store) Seed(ctx context.Context) error {
	n, err := s.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.InfoContext(ctx, "database already seeded, skipping", "users", n)
		return nil
	}

	admin, err := seedUser("admin", "admin@scholariq.local", "ScholarIQ Admin", "admin123")
	if err != nil {
		return err
	}
	demo, err := seedUser("demo", "demo@scholariq.local", "Demo User", "demo123")
	if err != nil {
		return err
	}

	for _, u := range []*User{admin, demo} {
		if err := s.CreateUser(ctx, u); err != nil {
			return err
		}
	}

	settings := map[string]string{
		"analysis.max_text_length": `100000`,
		"analysis.default_options": `{"extract_key_phrases":true,"analyze_sentiment":false,"detect_language":true}`,
		"maintenance_mode":         `false`,
	}
	now := time.Now().UTC()
	for key, value := range settings {
		_, err := s.exec(ctx,
			`INSERT INTO system_settings (id, key, value, is_public, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), key, value, false, now, now)
		if err != nil {
			return fmt.Errorf("seeding setting %s: %w", key, err)
		}
	}

	started := now.Add(-2 * time.Second)
	sample := &Analysis{
		UserID:      demo.ID,
		Title:       "Introduction to Machine Learning",
		Status:      AnalysisCompleted,
		ContentType: "text/plain",
		Results: map[string]any{
			"word_count":           412,
			"sentence_count":       28,
			"reading_time_minutes": 2.06,
			"language":             "en",
		},
		StartedAt:   &started,
		CompletedAt: &now,
	}
	if err := s.CreateAnalysis(ctx, sample); err != nil {
		return err
	}

	slog.InfoContext(ctx, "database seeded",
		"users", 2, "settings", len(settings), "analyses", 1)
	return nil
}

func seedUser(username, email, fullName, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password for %s: %w", username, err)
	}
	return &User{
		Email:          email,
		Username:       username,
		HashedPassword: string(hash),
		FullName:       fullName,
		IsActive:       true,
		IsVerified:     true,
	}, nil
}
