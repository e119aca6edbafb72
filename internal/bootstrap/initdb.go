package bootstrap

import "context"

// initializeDatabase creates the schema against the configured database.
// Failure is a warning by default so the server can still start and report
// the broken datastore itself; --strict-db makes it fatal instead.
func (o *Orchestrator) initializeDatabase(ctx context.Context) StepResult {
	if err := o.initDB(ctx); err != nil {
		if o.opts.StrictDB {
			return errStep(StepInitDB, err)
		}
		return warnStep(StepInitDB, "continuing without an initialized database", err)
	}
	return okStep(StepInitDB, "schema ready")
}
