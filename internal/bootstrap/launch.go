package bootstrap

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// launchServer starts the HTTP server as a child process with an explicitly
// constructed argv and environment; the parent's environment is never
// mutated. Reload mode wraps the child in a file watcher that restarts it
// on source changes. The step blocks until the child (or the watcher loop)
// exits.
func (o *Orchestrator) launchServer(ctx context.Context) StepResult {
	if o.opts.SkipLaunch {
		return skipStep(StepLaunch, "launch skipped by request")
	}

	args := o.launchArgs()
	env := o.childEnv()

	if o.opts.NoReload {
		if err := o.runner.Run(ctx, env, o.exe, args...); err != nil {
			return errStep(StepLaunch, fmt.Errorf("server exited: %w", err))
		}
		return okStep(StepLaunch, "server exited cleanly")
	}

	sup := &Supervisor{
		Dirs:     o.layout.WatchDirs,
		Debounce: 500 * time.Millisecond,
		Start: func(ctx context.Context) (Process, error) {
			return startChild(ctx, o.exe, args, env)
		},
	}
	if err := sup.Run(ctx); err != nil {
		return errStep(StepLaunch, fmt.Errorf("server exited: %w", err))
	}
	return okStep(StepLaunch, "server exited cleanly")
}

// launchArgs builds the serve child's argument vector from the launch
// options. Exactly one --port value is ever passed.
func (o *Orchestrator) launchArgs() []string {
	return []string{
		"serve",
		"--host", o.opts.Host,
		"--port", strconv.Itoa(o.opts.Port),
		"--workers", strconv.Itoa(o.opts.Workers),
	}
}

// childEnv returns the environment entries appended for the serve child.
// The log level follows the debug flag.
func (o *Orchestrator) childEnv() []string {
	logLevel := "INFO"
	if o.opts.Debug {
		logLevel = "DEBUG"
	}
	return []string{
		"APP_ENV=development",
		"DEBUG=" + strconv.FormatBool(o.opts.Debug),
		"LOG_LEVEL=" + logLevel,
	}
}
