package integrity

import "github.com/okian/talentcheck/pkg/logger"

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithThresholds sets the risk ladder. NewEvaluator rejects ladders that are
// not strictly descending.
func WithThresholds(t Thresholds) Option {
	return func(e *Evaluator) {
		e.thresholds = t
	}
}

// WithWeights sets the signal weights.
func WithWeights(w Weights) Option {
	return func(e *Evaluator) {
		e.weights = w
	}
}

// WithLogger sets a custom logger for the evaluator.
func WithLogger(l logger.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}
