package bootstrap

// Status values used across RunResult and StepResult.
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusWarning    = "warning"
	StatusSkipped    = "skipped"
	StatusInProgress = "in-progress"
)

// Step names, in pipeline order.
const (
	StepPrereq   = "prerequisites"
	StepEnvDir   = "environment"
	StepInstall  = "dependencies"
	StepEnvFile  = "configuration"
	StepInitDB   = "database"
	StepLaunch   = "server"
	totalSteps   = 6
)

// RunResult is the aggregate result of a full setup run. Steps appear in
// execution order; a fatal step is the last entry.
type RunResult struct {
	Status string       `json:"status"` // "ok", "error", "in-progress"
	Steps  []StepResult `json:"steps"`
}

// StepResult records the outcome of a single pipeline step.
type StepResult struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "error", "warning", "skipped"
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Step returns the recorded result for a named step, if present.
func (r *RunResult) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

func okStep(name, detail string) StepResult {
	return StepResult{Name: name, Status: StatusOK, Detail: detail}
}

func errStep(name string, err error) StepResult {
	return StepResult{Name: name, Status: StatusError, Error: err.Error()}
}

func warnStep(name, detail string, err error) StepResult {
	s := StepResult{Name: name, Status: StatusWarning, Detail: detail}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

func skipStep(name, detail string) StepResult {
	return StepResult{Name: name, Status: StatusSkipped, Detail: detail}
}
