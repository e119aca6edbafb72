package bootstrap

import (
	"context"
	"fmt"
	"os"
)

// materializeEnvFile copies the configuration template to the active
// configuration file, but only when the latter is absent. An existing file
// is never touched, so user edits survive reruns.
func (o *Orchestrator) materializeEnvFile(ctx context.Context) StepResult {
	target := o.layout.EnvFile
	template := o.layout.EnvTemplate

	if _, err := os.Stat(target); err == nil {
		return okStep(StepEnvFile, target+" already present, left untouched")
	} else if !os.IsNotExist(err) {
		return errStep(StepEnvFile, fmt.Errorf("inspecting %s: %w", target, err))
	}

	data, err := os.ReadFile(template)
	if err != nil {
		return errStep(StepEnvFile, fmt.Errorf("reading template %s: %w", template, err))
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return errStep(StepEnvFile, fmt.Errorf("writing %s: %w", target, err))
	}

	fmt.Fprintf(o.stdout, "Created %s from %s; review it and set your secrets before deploying.\n", target, template)
	return okStep(StepEnvFile, target+" created from "+template)
}
