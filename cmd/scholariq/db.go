package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/keshavgujrathi/scholariq/internal/store"
)

var dbDrop bool

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the ScholarIQ database",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema",
	Long: `Create all tables and indexes. The operation is idempotent; with
--drop the schema is dropped first. Dropping is refused when
APP_ENV=production.`,
	RunE: runDBInit,
}

var dbSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load initial data (admin and demo users, default settings)",
	Long: `Seed the database with an admin user, a demo user, default system
settings, and a sample completed analysis. Seeding is skipped when users
already exist.`,
	RunE: runDBSeed,
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop, recreate, and reseed the database",
	RunE:  runDBReset,
}

func init() {
	dbInitCmd.Flags().BoolVar(&dbDrop, "drop", false, "drop the existing schema first")
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbSeedCmd)
	dbCmd.AddCommand(dbResetCmd)
}

func openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, cfg.Database, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return st, nil
}

func runDBInit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if dbDrop {
		if err := st.DropSchema(ctx); err != nil {
			return fmt.Errorf("dropping schema: %w", err)
		}
		slog.Info("schema dropped")
	}
	if err := st.CreateSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	slog.Info("schema created")
	return nil
}

func runDBSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.CreateSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if err := st.Seed(ctx); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	slog.Info("database seeded")
	return nil
}

func runDBReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DropSchema(ctx); err != nil {
		return fmt.Errorf("dropping schema: %w", err)
	}
	if err := st.CreateSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if err := st.Seed(ctx); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	slog.Info("database reset complete")
	return nil
}
