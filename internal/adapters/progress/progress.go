// Package progress keeps the latest progress of each pipeline run for
// pollers, and drops it a grace window after the run ends.
package progress

import (
	"context"
	"sync"
	"time"

	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/pkg/logger"
	"github.com/okian/talentcheck/pkg/metrics"
)

// Progress is a point-in-time view of a run.
type Progress struct {
	RunID        string           `json:"run_id"`
	AssessmentID string           `json:"assessment_id"`
	Stage        assessment.Stage `json:"stage"`
	Percent      int              `json:"percent"`
	Message      string           `json:"message"`
	ETA          *time.Time       `json:"eta,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Done reports whether the run reached a terminal stage.
func (p Progress) Done() bool { return p.Stage.Terminal() }

type entry struct {
	p        Progress
	expireAt time.Time // zero while the run is active
}

// Tracker stores progress by assessment id. It is safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]entry

	grace         time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        logger.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTracker creates a tracker. Call Start to expire finished entries in the
// background; Get never returns an expired entry either way.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		entries:       make(map[string]entry),
		grace:         30 * time.Second,
		sweepInterval: 5 * time.Second,
		now:           time.Now,
		logger:        logger.Nop(),
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Update records p as the latest progress of its assessment. A terminal
// stage starts the grace window.
func (t *Tracker) Update(p Progress) {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = t.now()
	}
	e := entry{p: p}
	if p.Done() {
		e.expireAt = t.now().Add(t.grace)
	}
	t.mu.Lock()
	t.entries[p.AssessmentID] = e
	n := len(t.entries)
	t.mu.Unlock()
	metrics.UpdateProgressEntries(n)
}

// Get returns the latest progress of an assessment.
func (t *Tracker) Get(assessmentID string) (Progress, bool) {
	t.mu.RLock()
	e, ok := t.entries[assessmentID]
	t.mu.RUnlock()
	if !ok || t.expired(e) {
		return Progress{}, false
	}
	return e.p, true
}

// Len returns the number of retained entries, expired ones included until
// the next sweep.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Tracker) expired(e entry) bool {
	return !e.expireAt.IsZero() && !t.now().Before(e.expireAt)
}

// Sweep removes expired entries and returns how many were dropped.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	dropped := 0
	for id, e := range t.entries {
		if t.expired(e) {
			delete(t.entries, id)
			dropped++
		}
	}
	n := len(t.entries)
	t.mu.Unlock()
	metrics.UpdateProgressEntries(n)
	return dropped
}

// Start launches the background sweeper. It stops with ctx or Close.
func (t *Tracker) Start(ctx context.Context) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.stopChan:
				return
			case <-ticker.C:
				if n := t.Sweep(); n > 0 {
					t.logger.Debug(ctx, "progress entries expired", logger.Int("count", n))
				}
			}
		}
	}()
}

// Close stops the sweeper.
func (t *Tracker) Close() error {
	t.stopOnce.Do(func() { close(t.stopChan) })
	t.wg.Wait()
	return nil
}
