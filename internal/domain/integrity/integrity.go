// Package integrity judges whether a submission is genuine. It combines five
// independent sub-analyses into a weighted composite, a risk tier and a
// recommended action.
package integrity

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/talentcheck/pkg/logger"
)

// Verdict is the integrity outcome of one submission.
type Verdict struct {
	Score             float64  `json:"score"`
	Risk              Risk     `json:"risk"`
	Action            Action   `json:"action"`
	Reasons           []string `json:"reasons,omitempty"`
	Suggestions       []string `json:"suggestions,omitempty"`
	TamperingDetected bool     `json:"tampering_detected"`
	MultiplePersons   bool     `json:"multiple_persons"`
	Signals           []Signal `json:"signals"`
}

// Evaluator runs the sub-analyses and combines their results.
type Evaluator struct {
	source     SignalSource
	thresholds Thresholds
	weights    Weights
	logger     logger.Logger
}

// NewEvaluator creates an evaluator over source.
func NewEvaluator(source SignalSource, opts ...Option) (*Evaluator, error) {
	e := &Evaluator{
		source:     source,
		thresholds: DefaultThresholds,
		weights:    DefaultWeights,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: nil signal source", ErrSignal)
	}
	if err := e.thresholds.Validate(); err != nil {
		return nil, err
	}
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Thresholds returns the risk ladder in use.
func (e *Evaluator) Thresholds() Thresholds { return e.thresholds }

// Evaluate gathers the five signals concurrently and combines them. Any
// sub-analysis error fails the whole evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, s Subject) (Verdict, error) {
	var ev Evidence
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		ev.Tampering, err = e.source.Tampering(gctx, s)
		return wrapSignal(KindTampering, err)
	})
	g.Go(func() (err error) {
		ev.Movement, err = e.source.Movement(gctx, s)
		return wrapSignal(KindMovement, err)
	})
	g.Go(func() (err error) {
		ev.Environment, err = e.source.Environment(gctx, s)
		return wrapSignal(KindEnvironment, err)
	})
	g.Go(func() (err error) {
		ev.Biometric, err = e.source.Biometric(gctx, s)
		return wrapSignal(KindBiometric, err)
	})
	g.Go(func() (err error) {
		ev.Temporal, err = e.source.Temporal(gctx, s)
		return wrapSignal(KindTemporal, err)
	})

	if err := g.Wait(); err != nil {
		return Verdict{}, err
	}

	v := e.Combine(ev)
	e.logger.Debug(ctx, "integrity evaluated",
		logger.String("assessment_id", s.Record.ID),
		logger.Float64("score", v.Score),
		logger.String("risk", string(v.Risk)),
		logger.String("action", string(v.Action)),
		logger.Int("reasons", len(v.Reasons)),
	)
	return v, nil
}

// Combine scores already gathered evidence. It is pure and deterministic.
func (e *Evaluator) Combine(ev Evidence) Verdict {
	signals := ev.signals()
	scores := make(map[Kind]float64, len(signals))

	total, weighted := 0.0, 0.0
	for _, sig := range signals {
		raw := sig.mean()
		scores[sig.Kind] = raw
		w := e.weights.of(sig.Kind)
		total += w
		weighted += w * raw
	}
	composite := 0.0
	if total > 0 {
		composite = settle(weighted / total)
	}

	// The ladder sees the unrounded composite so 84.96 stays below 85.
	risk := e.thresholds.RiskFor(composite)
	reasons, suggestions := flag(ev, scores)
	return Verdict{
		Score:             round1(composite),
		Risk:              risk,
		Action:            ActionFor(risk, ev.Tampering.Detected, ev.Biometric.MultiplePersons),
		Reasons:           reasons,
		Suggestions:       suggestions,
		TamperingDetected: ev.Tampering.Detected,
		MultiplePersons:   ev.Biometric.MultiplePersons,
		Signals:           signals,
	}
}

func wrapSignal(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrSignal, kind, err)
}
