package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/keshavgujrathi/scholariq/internal/config"
	"github.com/keshavgujrathi/scholariq/internal/telemetry"
)

var (
	envFile  string
	logLevel string

	// cfg is populated by PersistentPreRunE and shared with all subcommands.
	cfg *config.Config

	// logCloser flushes the optional log file sink on exit.
	logCloser func() error
)

var rootCmd = &cobra.Command{
	Use:   "scholariq",
	Short: "ScholarIQ backend and development tooling",
	Long: `ScholarIQ is an AI-powered student analytics backend.

The same binary carries the HTTP API (serve), the development environment
bootstrap (setup), database management (db), and environment verification
(verify).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a key=value env file (default .env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path := envFile
		if path == "" {
			if _, err := os.Stat(".env"); err == nil {
				path = ".env"
			}
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// --log-level takes precedence over the env file.
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}

		logger, closer, err := telemetry.NewLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		slog.SetDefault(logger)
		logCloser = closer

		return nil
	}

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser()
		}
	}

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(verifyCmd)
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
