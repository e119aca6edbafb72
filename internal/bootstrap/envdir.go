package bootstrap

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// markerFile records when and by what the environment was provisioned. Its
// presence distinguishes a provisioned environment from a stray directory.
const markerFile = "devenv.json"

// workspaceDirs are created alongside the environment; the backend expects
// them at runtime.
var workspaceDirs = []string{"data/uploads", "logs", "static"}

type envMarker struct {
	CreatedAt time.Time `json:"created_at"`
	Tool      string    `json:"tool"`
}

// provisionEnvDir creates the isolated tool environment, or reuses an
// existing one. Reuse of an existing environment requires --yes, a --force
// recreate, or an interactive confirmation; a non-interactive run without
// either flag fails rather than guessing.
func (o *Orchestrator) provisionEnvDir(ctx context.Context) StepResult {
	dir := o.layout.EnvDir

	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return errStep(StepEnvDir, fmt.Errorf("%s exists and is not a directory", dir))
		}
		if o.opts.Force {
			if err := os.RemoveAll(dir); err != nil {
				return errStep(StepEnvDir, fmt.Errorf("removing %s: %w", dir, err))
			}
		} else {
			reuse, err := o.confirmReuse(dir)
			if err != nil {
				return errStep(StepEnvDir, err)
			}
			if !reuse {
				return errStep(StepEnvDir, fmt.Errorf("declined to reuse %s (rerun with --force to recreate)", dir))
			}
			if err := o.ensureWorkspaceDirs(); err != nil {
				return errStep(StepEnvDir, err)
			}
			return okStep(StepEnvDir, dir+" reused")
		}
	} else if !os.IsNotExist(err) {
		return errStep(StepEnvDir, fmt.Errorf("inspecting %s: %w", dir, err))
	}

	if err := os.MkdirAll(filepath.Join(dir, "bin"), 0o755); err != nil {
		return errStep(StepEnvDir, fmt.Errorf("creating %s: %w", dir, err))
	}
	marker := envMarker{CreatedAt: time.Now().UTC(), Tool: "scholariq setup"}
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return errStep(StepEnvDir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, markerFile), data, 0o644); err != nil {
		return errStep(StepEnvDir, fmt.Errorf("writing environment marker: %w", err))
	}
	if err := o.ensureWorkspaceDirs(); err != nil {
		return errStep(StepEnvDir, err)
	}

	detail := dir + " created"
	if o.opts.Force {
		detail = dir + " recreated"
	}
	return okStep(StepEnvDir, detail)
}

func (o *Orchestrator) ensureWorkspaceDirs() error {
	for _, dir := range workspaceDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating workspace directory %s: %w", dir, err)
		}
	}
	return nil
}

// confirmReuse decides whether an existing environment may be reused.
// --yes answers without prompting; otherwise the user is asked, and a
// non-interactive run is an error.
func (o *Orchestrator) confirmReuse(dir string) (bool, error) {
	if o.opts.Yes {
		return true, nil
	}
	if !o.interactive() {
		return false, fmt.Errorf("%s already exists; pass --yes to reuse it or --force to recreate it", dir)
	}
	fmt.Fprintf(o.stdout, "%s already exists. Reuse it? [y/N] ", dir)
	line, err := bufio.NewReader(o.stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
