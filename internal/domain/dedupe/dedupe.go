// Package dedupe guards assessment ids while their run is queued or running,
// so a resubmission cannot start a second concurrent run for the same id.
package dedupe

import (
	"context"
	"sync"
	"time"

	"github.com/okian/talentcheck/pkg/logger"
	"github.com/okian/talentcheck/pkg/metrics"
)

const defaultMaxSize = 50000

// Guard tracks in-flight assessment ids.
type Guard interface {
	// Acquire marks id as in flight. It returns ErrInFlight when id is
	// already held and ErrFull when the guard is at capacity.
	Acquire(ctx context.Context, id string) error

	// Release frees id once its run ended, allowing it to be reprocessed.
	// Releasing an id that is not held is a no-op.
	Release(ctx context.Context, id string)

	// Held reports whether id is currently in flight.
	Held(id string) bool

	Size() int
}

type inFlight struct {
	mu      sync.Mutex
	ids     map[string]time.Time
	maxSize int // 0 or negative means unbounded
	logger  logger.Logger
}

// NewGuard creates an in-memory guard.
func NewGuard(opts ...Option) Guard {
	g := &inFlight{
		ids:     make(map[string]time.Time),
		maxSize: defaultMaxSize,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *inFlight) Acquire(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if since, ok := g.ids[id]; ok {
		metrics.RecordDuplicateSubmission()
		g.logger.Debug(ctx, "assessment already in flight",
			logger.String("assessment_id", id),
			logger.Duration("held_for", time.Since(since)),
		)
		return ErrInFlight
	}
	if g.maxSize > 0 && len(g.ids) >= g.maxSize {
		return ErrFull
	}
	g.ids[id] = time.Now()
	return nil
}

func (g *inFlight) Release(_ context.Context, id string) {
	g.mu.Lock()
	delete(g.ids, id)
	g.mu.Unlock()
}

func (g *inFlight) Held(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.ids[id]
	return ok
}

func (g *inFlight) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ids)
}
