// Package benchmark ranks raw scores against cohort reference curves and
// derives tiers, trends and improvement targets.
//
// The curve table is generated once by NewEngine and never modified after,
// so an Engine is safe for concurrent use without locking.
package benchmark

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/pkg/logger"
)

// Engine owns the cohort curve table.
type Engine struct {
	curves     map[CohortKey]Curve
	fallback   Curve
	overrides  []Curve
	weeklyGain map[AgeGroup]float64
	logger     logger.Logger
}

// NewEngine builds the curve table and applies options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weeklyGain: make(map[AgeGroup]float64, len(defaultWeeklyGain)),
		logger:     logger.Nop(),
	}
	for g, v := range defaultWeeklyGain {
		e.weeklyGain[g] = v
	}
	for _, opt := range opts {
		opt(e)
	}

	e.curves = buildTable()
	for _, c := range e.overrides {
		e.curves[c.Key] = c
	}
	e.overrides = nil
	e.fallback, _ = NewCurve(CohortKey{AgeGroup: AgeSenior, Gender: model.GenderOther}, referenceScores)
	return e
}

// Size returns the number of curves in the table.
func (e *Engine) Size() int { return len(e.curves) }

// Curve returns the curve for key. A sport without a dedicated curve falls
// back to the sport-agnostic cohort, and an unknown cohort to the reference
// curve.
func (e *Engine) Curve(key CohortKey) Curve {
	if c, ok := e.curves[key]; ok {
		return c
	}
	if key.Sport != "" {
		generic := key
		generic.Sport = ""
		if c, ok := e.curves[generic]; ok {
			return c
		}
	}
	return e.fallback
}

// Rank returns the percentile and tier of score within the cohort.
func (e *Engine) Rank(score float64, key CohortKey) (float64, Tier) {
	return e.Curve(key).Rank(score)
}

// Input is what Evaluate needs to build a performance verdict.
type Input struct {
	AssessmentID string
	Score        float64
	Athlete      model.Athlete
	TestType     model.TestType
	// History holds the athlete's prior results of any test type.
	History []model.HistoryPoint
}

// Verdict is the performance half of an assessment outcome.
type Verdict struct {
	Cohort      CohortKey `json:"cohort"`
	Score       float64   `json:"score"`
	Percentile  float64   `json:"percentile"`
	Tier        Tier      `json:"tier"`
	Trend       Trend     `json:"trend"`
	Improvement float64   `json:"improvement"`
	HasHistory  bool      `json:"has_history"`
	Targets     Targets   `json:"targets"`
	NextSteps   []string  `json:"next_steps"`
}

// Evaluate ranks the score and derives trend, improvement and targets from
// the athlete's prior results of the same test type.
func (e *Engine) Evaluate(ctx context.Context, in Input) Verdict {
	key := CohortFor(in.Athlete, in.TestType)
	percentile, tier := e.Rank(in.Score, key)

	prior := priorScores(in)
	series := append(slices.Clone(prior), in.Score)

	v := Verdict{
		Cohort:     key,
		Score:      in.Score,
		Percentile: percentile,
		Tier:       tier,
		Trend:      TrendOf(series),
		HasHistory: len(prior) > 0,
		Targets:    e.Targets(in.Score, key),
	}
	if len(prior) > 0 {
		v.Improvement = round1(in.Score - prior[len(prior)-1])
	}
	v.NextSteps = nextSteps(v)

	e.logger.Debug(ctx, "performance ranked",
		logger.String("assessment_id", in.AssessmentID),
		logger.Float64("percentile", percentile),
		logger.String("tier", string(tier)),
		logger.String("trend", string(v.Trend)),
	)
	return v
}

// priorScores returns same-test scores from history in chronological order,
// excluding the assessment being evaluated.
func priorScores(in Input) []float64 {
	points := make([]model.HistoryPoint, 0, len(in.History))
	for _, h := range in.History {
		if h.TestType == in.TestType && h.AssessmentID != in.AssessmentID {
			points = append(points, h)
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].SubmittedAt.Before(points[j].SubmittedAt)
	})
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Score
	}
	return out
}

var tierAdvice = map[Tier]string{
	TierWorldClass:       "Maintain peak form with periodized training and recovery monitoring",
	TierElite:            "Refine technique under competition conditions to push into the top percentile",
	TierExcellent:        "Add sport-specific power work to convert strength into elite results",
	TierAboveAverage:     "Increase training volume gradually while keeping technique consistent",
	TierAverage:          "Build a structured weekly plan focused on the fundamentals of this test",
	TierBelowAverage:     "Prioritize basic conditioning and correct form before adding intensity",
	TierNeedsImprovement: "Work with a coach on movement fundamentals and re-test in a few weeks",
}

func nextSteps(v Verdict) []string {
	steps := []string{tierAdvice[v.Tier]}
	for _, t := range []Target{v.Targets.NextLevel, v.Targets.Elite, v.Targets.WorldClass} {
		if t.Achieved() {
			continue
		}
		steps = append(steps, fmt.Sprintf("Reach %s level (%.1f): %.1f points to gain, %s, about %d weeks",
			t.Label, t.Score, t.Gap, t.Difficulty, t.Weeks))
		break
	}
	switch v.Trend {
	case TrendDeclining:
		steps = append(steps, "Results are declining: review recovery, sleep and training load")
	case TrendImproving:
		steps = append(steps, "Results are improving: keep the current training plan")
	}
	return steps
}
