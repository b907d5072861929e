package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/talentcheck/internal/adapters/consent"
	"github.com/okian/talentcheck/internal/adapters/notify"
	"github.com/okian/talentcheck/internal/adapters/progress"
	"github.com/okian/talentcheck/pkg/logger"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConsent gates every run on athlete consent for purpose.
func WithConsent(g consent.Gate, purpose string) Option {
	return func(o *Orchestrator) {
		o.consent = g
		if purpose != "" {
			o.purpose = purpose
		}
	}
}

// WithNotifier sets where recruitment notifications go.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithTracker publishes progress of every run to t.
func WithTracker(t *progress.Tracker) Option {
	return func(o *Orchestrator) { o.tracker = t }
}

// WithSynthesizer replaces the feedback synthesizer.
func WithSynthesizer(s Synthesizer) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.synth = s
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator replaces the run id generator.
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewRunID returns a fresh random run id.
func NewRunID() string { return uuid.NewString() }
