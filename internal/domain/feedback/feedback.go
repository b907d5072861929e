// Package feedback turns the integrity, performance and movement verdicts of
// one assessment into a single composite decision with alerts and
// recommendations.
package feedback

import (
	"context"
	"fmt"

	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/movement"
	"github.com/okian/talentcheck/pkg/logger"
)

// Confidence in the composite verdict.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

const (
	highRecognition   = 0.85
	mediumRecognition = 0.6
)

// ConfidenceOf grades how much the verdict can be trusted. High needs a
// confidently recognized exercise with valid biomechanics and low integrity
// risk.
func ConfidenceOf(iv *integrity.Verdict, mv *movement.Result) Confidence {
	if mv == nil {
		return ConfidenceLow
	}
	rec := mv.Compliance.Confidence
	switch {
	case rec >= highRecognition && mv.Biomechanics.Valid && iv != nil && iv.Risk == integrity.RiskLow:
		return ConfidenceHigh
	case rec >= mediumRecognition:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Input holds whatever verdicts the analytic stages produced. A nil field
// means the stage was skipped or failed.
type Input struct {
	AssessmentID string
	Integrity    *integrity.Verdict
	Performance  *benchmark.Verdict
	Movement     *movement.Result
}

// CompositeVerdict is the final decision on an assessment.
type CompositeVerdict struct {
	Status          Status          `json:"status"`
	Score           float64         `json:"score"`
	Confidence      Confidence      `json:"confidence"`
	Breakdown       Breakdown       `json:"breakdown"`
	Alerts          []Alert         `json:"alerts"`
	Recommendations Recommendations `json:"recommendations"`
	Highlights      []string        `json:"highlights,omitempty"`
}

// Synthesizer builds composite verdicts.
type Synthesizer struct {
	logger logger.Logger
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Combine synthesizes the composite verdict.
func (s *Synthesizer) Combine(ctx context.Context, in Input) CompositeVerdict {
	status := Decide(in.Integrity, in.Performance)
	b := Score(in.Integrity, in.Performance, in.Movement)
	v := CompositeVerdict{
		Status:          status,
		Score:           b.Composite,
		Confidence:      ConfidenceOf(in.Integrity, in.Movement),
		Breakdown:       b,
		Alerts:          Alerts(status, in.Integrity, in.Performance, in.Movement),
		Recommendations: Recommend(status, in.Integrity, in.Performance, in.Movement),
		Highlights:      highlights(in),
	}
	s.logger.Debug(ctx, "composite verdict",
		logger.String("assessment_id", in.AssessmentID),
		logger.String("status", string(v.Status)),
		logger.Float64("score", v.Score),
		logger.String("confidence", string(v.Confidence)),
		logger.Int("alerts", len(v.Alerts)),
	)
	return v
}

func highlights(in Input) []string {
	var out []string
	if pv := in.Performance; pv != nil {
		out = append(out,
			fmt.Sprintf("%.1fth percentile (%s)", pv.Percentile, pv.Tier),
			fmt.Sprintf("trend %s", pv.Trend),
		)
	}
	if iv := in.Integrity; iv != nil {
		out = append(out, fmt.Sprintf("integrity %.1f (%s)", iv.Score, iv.Action))
	}
	if mv := in.Movement; mv != nil {
		out = append(out, fmt.Sprintf("technique %.1f", mv.Technical.Overall))
	}
	return out
}
