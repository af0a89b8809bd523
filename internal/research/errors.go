package research

import (
	"errors"
	"fmt"
)

// ErrInternalConsistency marks failures that indicate a reconciliation defect
// rather than provider flakiness. Always fatal, never retried.
var ErrInternalConsistency = errors.New("internal consistency violation")

// PipelineError is the terminal error surfaced to callers of Run. Stage names
// the phase that failed (input, search, parse, reconcile, validate).
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("research pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// StageFromError reports which pipeline stage an error came from, or
// "pipeline" for errors raised outside a stage boundary.
func StageFromError(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return "pipeline"
}
