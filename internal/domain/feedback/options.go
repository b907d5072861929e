package feedback

import "github.com/okian/talentcheck/pkg/logger"

// Option applies a configuration option to the Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets a custom logger for the synthesizer.
func WithLogger(l logger.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}
