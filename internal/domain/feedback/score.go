package feedback

import (
	"math"

	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/movement"
)

// Composite weights before redistribution.
const (
	weightIntegrity   = 0.3
	weightPerformance = 0.6
	weightImprovement = 0.1
)

// Breakdown shows how the composite score was assembled. Weights are the
// effective ones after redistributing the share of missing parts.
type Breakdown struct {
	Integrity         *float64 `json:"integrity,omitempty"`
	Performance       *float64 `json:"performance,omitempty"`
	Improvement       *float64 `json:"improvement,omitempty"`
	Technical         *float64 `json:"technical,omitempty"`
	IntegrityWeight   float64  `json:"integrity_weight"`
	PerformanceWeight float64  `json:"performance_weight"`
	ImprovementWeight float64  `json:"improvement_weight"`
	Composite         float64  `json:"composite"`
}

// NormalizedImprovement maps an improvement delta onto [0,100] with 50 as no
// change.
func NormalizedImprovement(delta float64) float64 {
	return math.Max(0, math.Min(100, 50+2*delta))
}

// Score computes the composite 0.3*integrity + 0.6*percentile +
// 0.1*normalized improvement. Missing parts give their weight to the present
// ones in proportion.
func Score(iv *integrity.Verdict, pv *benchmark.Verdict, mv *movement.Result) Breakdown {
	var b Breakdown
	type part struct {
		weight float64
		value  float64
		slot   **float64
		out    *float64
	}
	parts := make([]part, 0, 3)
	if iv != nil {
		parts = append(parts, part{weightIntegrity, iv.Score, &b.Integrity, &b.IntegrityWeight})
	}
	if pv != nil {
		parts = append(parts,
			part{weightPerformance, pv.Percentile, &b.Performance, &b.PerformanceWeight},
			part{weightImprovement, NormalizedImprovement(pv.Improvement), &b.Improvement, &b.ImprovementWeight},
		)
	}
	if mv != nil {
		t := mv.Technical.Overall
		b.Technical = &t
	}

	total := 0.0
	for _, p := range parts {
		total += p.weight
	}
	if total == 0 {
		return b
	}
	sum := 0.0
	for _, p := range parts {
		v := p.value
		*p.slot = &v
		*p.out = round3(p.weight / total)
		sum += p.weight / total * v
	}
	b.Composite = round1(sum)
	return b
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
