package movement

import "github.com/okian/talentcheck/pkg/logger"

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithLogger sets a custom logger for the evaluator.
func WithLogger(l logger.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}
