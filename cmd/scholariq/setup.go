package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keshavgujrathi/scholariq/internal/bootstrap"
)

var setupOpts bootstrap.Options

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Bootstrap the development environment and start the server",
	Long: `Setup brings a development environment from nothing to a running
server in one idempotent run: prerequisite check, isolated tool
environment, pinned tool installation, .env materialization, database
initialization, and server launch.

An existing .env is never overwritten. Database-init failure is a warning
unless --strict-db is set. A JSON step report is printed at the end.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVar(&setupOpts.Dev, "dev", false, "install development tools and git hooks")
	setupCmd.Flags().BoolVarP(&setupOpts.Force, "force", "f", false, "recreate the isolated environment unconditionally")
	setupCmd.Flags().BoolVarP(&setupOpts.Yes, "yes", "y", false, "assume yes on confirmation prompts")
	setupCmd.Flags().StringVar(&setupOpts.Host, "host", "0.0.0.0", "server bind address")
	setupCmd.Flags().IntVar(&setupOpts.Port, "port", 8000, "server port")
	setupCmd.Flags().IntVar(&setupOpts.Workers, "workers", 1, "analysis worker count")
	setupCmd.Flags().BoolVar(&setupOpts.NoReload, "no-reload", false, "disable restart-on-change supervision")
	setupCmd.Flags().BoolVar(&setupOpts.Debug, "debug", false, "run the server with DEBUG logging")
	setupCmd.Flags().BoolVar(&setupOpts.StrictDB, "strict-db", false, "treat database-init failure as fatal")
	setupCmd.Flags().BoolVar(&setupOpts.SkipLaunch, "skip-launch", false, "run setup steps without starting the server")
}

func runSetup(cmd *cobra.Command, args []string) error {
	// The launch step supervises a child server process; a signal must
	// cancel the run so the supervisor can stop the child before we exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := bootstrap.New(cfg, setupOpts)

	result, err := orch.Run(ctx)
	if result != nil {
		printRunResult(result)
	}
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	return nil
}

func printRunResult(result *bootstrap.RunResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stdout, `{"status":%q}`+"\n", result.Status)
	}
}
