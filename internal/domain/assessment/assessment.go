// Package assessment holds the result of one pipeline run, shared by the
// orchestrator, the verdict store and the HTTP layer.
package assessment

import (
	"time"

	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/feedback"
	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/internal/domain/movement"
)

// Stage is a step of the pipeline state machine.
type Stage string

// Pipeline stages in order. Error is terminal and reachable from any stage.
const (
	StageUpload       Stage = "upload"
	StageIntegrity    Stage = "integrity"
	StageMovement     Stage = "movement"
	StagePerformance  Stage = "performance"
	StageFeedback     Stage = "feedback"
	StageStorage      Stage = "storage"
	StageNotification Stage = "notification"
	StageComplete     Stage = "complete"
	StageError        Stage = "error"
)

// Terminal reports whether no further stage follows.
func (s Stage) Terminal() bool { return s == StageComplete || s == StageError }

// ProcessingStatus summarizes how many analytic stages succeeded.
type ProcessingStatus string

// Processing statuses.
const (
	ProcessingComplete ProcessingStatus = "complete"
	ProcessingPartial  ProcessingStatus = "partial"
	ProcessingFailed   ProcessingStatus = "failed"
)

// OutcomeStatus tells a skipped stage from a failed one.
type OutcomeStatus string

// Outcome statuses.
const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// Outcome is the result of an optional analytic stage.
type Outcome[T any] struct {
	Status OutcomeStatus `json:"status"`
	Value  *T            `json:"value,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Succeeded wraps a stage value.
func Succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{Status: OutcomeSucceeded, Value: &v}
}

// Failed records a stage error.
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Status: OutcomeFailed, Error: err.Error()}
}

// Skipped marks a stage that was not run.
func Skipped[T any]() Outcome[T] {
	return Outcome[T]{Status: OutcomeSkipped}
}

// Get returns the value and whether the stage succeeded.
func (o Outcome[T]) Get() (T, bool) {
	if o.Status != OutcomeSucceeded || o.Value == nil {
		var zero T
		return zero, false
	}
	return *o.Value, true
}

// Ptr returns the value, or nil unless the stage succeeded.
func (o Outcome[T]) Ptr() *T {
	if o.Status != OutcomeSucceeded {
		return nil
	}
	return o.Value
}

// StageFailure is one recoverable failure recorded during a run.
type StageFailure struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// Quorum is the recruitment notification decision. Conditions counts how
// many of the four standout conditions held.
type Quorum struct {
	Conditions int  `json:"conditions_met"`
	Eligible   bool `json:"eligible"`
}

// Result is everything a run produced.
type Result struct {
	RunID        string                     `json:"run_id"`
	Athlete      model.Athlete              `json:"athlete"`
	Record       model.AssessmentRecord     `json:"record"`
	Status       ProcessingStatus           `json:"processing_status"`
	Integrity    Outcome[integrity.Verdict] `json:"integrity"`
	Movement     Outcome[movement.Result]   `json:"movement"`
	Performance  Outcome[benchmark.Verdict] `json:"performance"`
	Verdict      *feedback.CompositeVerdict `json:"verdict,omitempty"`
	ErrorDetails []StageFailure             `json:"error_details,omitempty"`
	Quorum       Quorum                     `json:"quorum"`
	StartedAt    time.Time                  `json:"started_at"`
	CompletedAt  time.Time                  `json:"completed_at"`
}

// ProcessingStatusOf derives the processing status from the analytic stage
// outcomes. Skipped stages count neither way.
func ProcessingStatusOf(statuses ...OutcomeStatus) ProcessingStatus {
	ok, failed := 0, 0
	for _, s := range statuses {
		switch s {
		case OutcomeSucceeded:
			ok++
		case OutcomeFailed:
			failed++
		}
	}
	switch {
	case ok == 0:
		return ProcessingFailed
	case failed > 0:
		return ProcessingPartial
	default:
		return ProcessingComplete
	}
}

// HistoryPoint reduces the result to its place in the athlete's history.
func (r Result) HistoryPoint() model.HistoryPoint {
	return model.HistoryPoint{
		AssessmentID: r.Record.ID,
		TestType:     r.Record.TestType,
		Score:        r.Record.RawScore,
		SubmittedAt:  r.Record.SubmittedAt,
	}
}

// Duration is how long the run took.
func (r Result) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
