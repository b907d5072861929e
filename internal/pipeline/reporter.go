package pipeline

import (
	"sync"
	"time"

	"github.com/okian/talentcheck/internal/adapters/progress"
	"github.com/okian/talentcheck/internal/domain/assessment"
)

// Observer receives every progress update of a run, in order. A nil
// Observer is a no-op. It is called synchronously and must not block.
type Observer func(progress.Progress)

// Progress checkpoints of a run.
const (
	percentReceived  = 5
	percentAccepted  = 15
	percentAnalysis  = 20
	percentPerStage  = 15
	percentFeedback  = 75
	percentStorage   = 85
	percentNotifying = 95
	percentComplete  = 100
)

// reporter serializes progress updates of one run so percent never goes
// down, even when analytic stages finish concurrently.
type reporter struct {
	mu       sync.Mutex
	runID    string
	id       string
	started  time.Time
	now      func() time.Time
	observer Observer
	tracker  *progress.Tracker

	percent  int
	analytic int
}

func newReporter(runID, assessmentID string, now func() time.Time, obs Observer, t *progress.Tracker) *reporter {
	return &reporter{
		runID:    runID,
		id:       assessmentID,
		started:  now(),
		now:      now,
		observer: obs,
		tracker:  t,
	}
}

func (r *reporter) report(stage assessment.Stage, percent int, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit(stage, percent, msg)
}

// analyticDone reports one finished (or skipped) analytic stage.
func (r *reporter) analyticDone(stage assessment.Stage, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analytic++
	r.emit(stage, percentAnalysis+percentPerStage*r.analytic, msg)
}

// must be called with r.mu held
func (r *reporter) emit(stage assessment.Stage, percent int, msg string) {
	if percent < r.percent {
		percent = r.percent
	}
	if percent > percentComplete {
		percent = percentComplete
	}
	r.percent = percent

	now := r.now()
	p := progress.Progress{
		RunID:        r.runID,
		AssessmentID: r.id,
		Stage:        stage,
		Percent:      percent,
		Message:      msg,
		UpdatedAt:    now,
	}
	if !stage.Terminal() && percent > 0 && percent < percentComplete {
		elapsed := now.Sub(r.started)
		eta := now.Add(elapsed * time.Duration(percentComplete-percent) / time.Duration(percent))
		p.ETA = &eta
	}

	if r.tracker != nil {
		r.tracker.Update(p)
	}
	if r.observer != nil {
		r.observer(p)
	}
}
