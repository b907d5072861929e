package dedupe

import "github.com/okian/talentcheck/pkg/logger"

// Option applies a configuration option to the guard.
type Option func(*inFlight)

// WithMaxSize bounds the number of ids held at once.
// If maxSize <= 0 the guard is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(g *inFlight) {
		g.maxSize = maxSize
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *inFlight) {
		if l != nil {
			g.logger = l
		}
	}
}
