package bootstrap

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// checkPrerequisites verifies the go toolchain and git are on PATH and the
// toolchain meets the configured minimum version. With --dev, a missing
// pre-commit downgrades the step to a warning instead of failing it.
func (o *Orchestrator) checkPrerequisites(ctx context.Context) StepResult {
	if _, err := o.runner.LookPath("go"); err != nil {
		return errStep(StepPrereq,
			fmt.Errorf("go toolchain not found on PATH (%s or newer required): %w", o.layout.MinGoVersion, err))
	}

	out, err := o.runner.Output(ctx, "go", "version")
	if err != nil {
		return errStep(StepPrereq, fmt.Errorf("querying go version: %w", err))
	}
	version, err := parseGoVersion(out)
	if err != nil {
		return errStep(StepPrereq, err)
	}
	if !versionAtLeast(version, o.layout.MinGoVersion) {
		return errStep(StepPrereq,
			fmt.Errorf("go %s found, %s or newer required", version, o.layout.MinGoVersion))
	}

	if _, err := o.runner.LookPath("git"); err != nil {
		return errStep(StepPrereq, fmt.Errorf("git not found on PATH: %w", err))
	}

	detail := "go " + version + ", git"
	if o.opts.Dev {
		if _, err := o.runner.LookPath("pre-commit"); err != nil {
			return warnStep(StepPrereq, detail+"; pre-commit missing, hook install will be skipped", nil)
		}
		detail += ", pre-commit"
	}
	return okStep(StepPrereq, detail)
}

// parseGoVersion extracts "1.22.3" from "go version go1.22.3 linux/amd64".
func parseGoVersion(out string) (string, error) {
	for _, field := range strings.Fields(out) {
		if strings.HasPrefix(field, "go") && len(field) > 2 && field[2] >= '0' && field[2] <= '9' {
			return strings.TrimPrefix(field, "go"), nil
		}
	}
	return "", fmt.Errorf("unrecognized go version output: %q", out)
}

// versionAtLeast compares dotted version strings numerically, component by
// component. Missing components count as zero.
func versionAtLeast(have, want string) bool {
	hp := strings.Split(have, ".")
	wp := strings.Split(want, ".")
	for i := 0; i < len(hp) || i < len(wp); i++ {
		h, w := 0, 0
		if i < len(hp) {
			h, _ = strconv.Atoi(hp[i])
		}
		if i < len(wp) {
			w, _ = strconv.Atoi(wp[i])
		}
		if h != w {
			return h > w
		}
	}
	return true
}
