package pipeline

import (
	"errors"
	"fmt"

	"github.com/okian/talentcheck/internal/domain/assessment"
)

// Sentinel kinds for run errors.
var (
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrConsentDenied     = errors.New("athlete consent not granted")
	ErrNoAnalysis        = errors.New("every analytic stage failed")
	ErrPersistence       = errors.New("persisting result failed")
	ErrCancelled         = errors.New("run cancelled")
	ErrMissingDependency = errors.New("missing pipeline dependency")
)

// AnalyzerFailure is a recoverable failure of one analytic stage. It is
// recorded on the result and never aborts the run.
type AnalyzerFailure struct {
	Stage assessment.Stage
	Err   error
}

func (e *AnalyzerFailure) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Stage, e.Err)
}

func (e *AnalyzerFailure) Unwrap() error { return e.Err }
