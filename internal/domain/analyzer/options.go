package analyzer

import (
	"time"

	"github.com/okian/talentcheck/pkg/logger"
)

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithLatencyRange sets the simulated model latency range. A zero range
// disables latency.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Simulator) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithSampleRate sets how many frames per second are sampled.
func WithSampleRate(fps float64) Option {
	return func(s *Simulator) {
		if fps > 0 {
			s.sampleRate = fps
		}
	}
}

// WithLogger sets a custom logger for the simulator.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}
