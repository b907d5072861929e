package progress

import (
	"time"

	"github.com/okian/talentcheck/pkg/logger"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithGrace sets how long finished runs stay readable.
func WithGrace(d time.Duration) Option {
	return func(t *Tracker) {
		if d >= 0 {
			t.grace = d
		}
	}
}

// WithSweepInterval sets how often expired entries are removed.
func WithSweepInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.sweepInterval = d
		}
	}
}

// WithClock replaces the time source. Tests use it to move time forward.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets a custom logger for the tracker.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}
