package consent

import "github.com/okian/talentcheck/pkg/logger"

// Option configures a MemoryGate.
type Option func(*MemoryGate)

// WithDefault sets the answer for athletes without a recorded decision.
func WithDefault(granted bool) Option {
	return func(g *MemoryGate) { g.defaultGranted = granted }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *MemoryGate) {
		if l != nil {
			g.logger = l
		}
	}
}
