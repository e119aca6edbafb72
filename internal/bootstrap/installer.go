package bootstrap

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// installDependencies installs the pinned tool manifests into the isolated
// environment. The module cache is primed first, then each tool installs
// sequentially; the first failure aborts with no rollback.
func (o *Orchestrator) installDependencies(ctx context.Context) StepResult {
	manifests := []string{o.layout.Manifest}
	if o.opts.Dev {
		manifests = append(manifests, o.layout.DevManifest)
	}

	gobin, err := filepath.Abs(filepath.Join(o.layout.EnvDir, "bin"))
	if err != nil {
		return errStep(StepInstall, err)
	}
	env := []string{"GOBIN=" + gobin}

	if err := o.runner.Run(ctx, env, "go", "mod", "download"); err != nil {
		return errStep(StepInstall, fmt.Errorf("priming module cache: %w", err))
	}

	installed := 0
	for _, manifest := range manifests {
		tools, err := readManifest(manifest)
		if err != nil {
			return errStep(StepInstall, err)
		}
		for _, tool := range tools {
			if err := o.runner.Run(ctx, env, "go", "install", tool); err != nil {
				return errStep(StepInstall, fmt.Errorf("installing %s: %w", tool, err))
			}
			installed++
		}
	}

	detail := fmt.Sprintf("%d tools into %s", installed, gobin)
	if o.opts.Dev {
		if _, err := o.runner.LookPath("pre-commit"); err == nil {
			if err := o.runner.Run(ctx, nil, "pre-commit", "install"); err != nil {
				return errStep(StepInstall, fmt.Errorf("installing git hooks: %w", err))
			}
			detail += ", git hooks installed"
		}
	}
	return okStep(StepInstall, detail)
}

// readManifest parses a tool manifest: one module@version per line, blank
// lines and # comments ignored.
func readManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest %s: %w", path, err)
	}
	defer f.Close()

	var tools []string
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		entry := strings.TrimSpace(scanner.Text())
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}
		if !strings.Contains(entry, "@") {
			return nil, fmt.Errorf("%s:%d: %q is not pinned (want module@version)", path, line, entry)
		}
		tools = append(tools, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return tools, nil
}
