// Package bootstrap brings a local development environment from nothing to
// a running server in one invocation, idempotently. The pipeline is
// strictly sequential: each step blocks until it finishes, and any fatal
// failure stops the run. Only the database step may downgrade its failure
// to a warning.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/keshavgujrathi/scholariq/internal/config"
	"github.com/keshavgujrathi/scholariq/internal/store"
)

// ErrRunInProgress is returned when Run is called while a setup run is
// already active in this process.
var ErrRunInProgress = errors.New("setup already in progress")

// ErrSetupFailed is the terminal error for a run with a fatal step. The
// failing step's detail lives in the RunResult.
var ErrSetupFailed = errors.New("setup failed")

// Options are the setup flags, unified across invocation styles.
type Options struct {
	Dev        bool // include the development manifest and hook install
	Force      bool // recreate the isolated environment unconditionally
	Yes        bool // assume "yes" on confirmation prompts
	Host       string
	Port       int
	Workers    int
	NoReload   bool
	Debug      bool
	StrictDB   bool // database-init failure aborts instead of warning
	SkipLaunch bool // run steps 1-5 only
}

// Orchestrator executes the setup pipeline. External effects go through
// small injectable seams (runner, initDB, prompt streams) so tests can
// substitute fakes.
type Orchestrator struct {
	opts   Options
	layout config.BootstrapConfig
	dbCfg  config.DatabaseConfig
	appEnv string

	runner Runner
	exe    string // binary to relaunch for the serve child

	// initDB creates the schema against the configured database. Wired to
	// the store by New; replaceable in tests.
	initDB func(ctx context.Context) error

	// interactive reports whether prompting the user is possible.
	interactive func() bool
	stdin       io.Reader
	stdout      io.Writer

	inProgress atomic.Bool
}

// New builds an Orchestrator over the loaded configuration. The serve
// child is the current executable.
func New(cfg *config.Config, opts Options) *Orchestrator {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	o := &Orchestrator{
		opts:   opts,
		layout: cfg.Bootstrap,
		dbCfg:  cfg.Database,
		appEnv: cfg.App.Env,
		runner: &ExecRunner{},
		exe:    exe,
		interactive: func() bool {
			info, err := os.Stdin.Stat()
			return err == nil && info.Mode()&os.ModeCharDevice != 0
		},
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
	o.initDB = func(ctx context.Context) error {
		st, err := store.Open(ctx, o.dbCfg, o.appEnv)
		if err != nil {
			return err
		}
		defer st.Close()
		return st.CreateSchema(ctx)
	}
	return o
}

// Run executes the pipeline and returns the per-step results. A non-nil
// error means the run was fatal and the process should exit non-zero; the
// RunResult is still populated up to the failing step.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if !o.inProgress.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.inProgress.Store(false)

	result := &RunResult{
		Status: StatusInProgress,
		Steps:  make([]StepResult, 0, totalSteps),
	}

	slog.InfoContext(ctx, "setup started",
		"dev", o.opts.Dev, "force", o.opts.Force, "reload", !o.opts.NoReload)

	steps := []func(context.Context) StepResult{
		o.checkPrerequisites,
		o.provisionEnvDir,
		o.installDependencies,
		o.materializeEnvFile,
		o.initializeDatabase,
		o.launchServer,
	}

	for _, step := range steps {
		res := step(ctx)
		result.Steps = append(result.Steps, res)
		logStep(ctx, res)
		if res.Status == StatusError {
			result.Status = StatusError
			return result, fmt.Errorf("%w: step %s: %s", ErrSetupFailed, res.Name, res.Error)
		}
	}

	result.Status = StatusOK
	slog.InfoContext(ctx, "setup completed", "status", result.Status)
	return result, nil
}

// IsRunInProgress returns true while a setup run is active.
func (o *Orchestrator) IsRunInProgress() bool {
	return o.inProgress.Load()
}

func logStep(ctx context.Context, s StepResult) {
	switch s.Status {
	case StatusError:
		slog.ErrorContext(ctx, "setup step failed", "step", s.Name, "error", s.Error)
	case StatusWarning:
		slog.WarnContext(ctx, "setup step degraded", "step", s.Name, "detail", s.Detail, "error", s.Error)
	default:
		slog.InfoContext(ctx, "setup step done", "step", s.Name, "status", s.Status, "detail", s.Detail)
	}
}
