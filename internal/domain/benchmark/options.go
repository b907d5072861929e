package benchmark

import "github.com/okian/talentcheck/pkg/logger"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithCurves adds or replaces curves in the generated table. Invalid curves
// are ignored.
func WithCurves(curves ...Curve) Option {
	return func(e *Engine) {
		for _, c := range curves {
			if _, err := NewCurve(c.Key, c.scores()); err == nil {
				e.overrides = append(e.overrides, c)
			}
		}
	}
}

// WithWeeklyGain overrides the expected weekly score gain for an age group.
func WithWeeklyGain(group AgeGroup, gain float64) Option {
	return func(e *Engine) {
		if gain > 0 {
			e.weeklyGain[group] = gain
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
