package benchmark

import (
	"fmt"
	"math"
)

// AnchorPercentiles are the percentiles every curve defines a score for.
var AnchorPercentiles = [7]float64{5, 25, 50, 75, 90, 95, 99}

const (
	minPercentile = 1
	maxPercentile = 99
)

// Anchor maps a percentile to the score needed to reach it.
type Anchor struct {
	Percentile float64 `json:"percentile"`
	Score      float64 `json:"score"`
}

// Curve is the reference distribution of one cohort. Anchor scores are
// non-decreasing as the percentile increases.
type Curve struct {
	Key     CohortKey `json:"key"`
	Anchors [7]Anchor `json:"anchors"`
}

// NewCurve builds a curve from the seven anchor scores ordered by
// AnchorPercentiles.
func NewCurve(key CohortKey, scores [7]float64) (Curve, error) {
	c := Curve{Key: key}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			return Curve{}, fmt.Errorf("%w: anchor p%.0f has score %v", ErrInvalidCurve, AnchorPercentiles[i], s)
		}
		if i > 0 && s < scores[i-1] {
			return Curve{}, fmt.Errorf("%w: anchor p%.0f (%v) is below p%.0f (%v)",
				ErrInvalidCurve, AnchorPercentiles[i], s, AnchorPercentiles[i-1], scores[i-1])
		}
		c.Anchors[i] = Anchor{Percentile: AnchorPercentiles[i], Score: s}
	}
	return c, nil
}

// ScoreAt returns the anchor score for an anchor percentile.
func (c Curve) ScoreAt(percentile float64) (float64, bool) {
	for _, a := range c.Anchors {
		if a.Percentile == percentile {
			return a.Score, true
		}
	}
	return 0, false
}

// Percentile maps a score onto the curve by piecewise-linear interpolation
// between anchors, rounded to one decimal for reporting. Scores below the 5th
// anchor are extrapolated towards zero and floored at 1; scores at or above
// the 99th anchor clamp to 99.
func (c Curve) Percentile(score float64) float64 {
	return round1(c.exact(score))
}

// Rank returns the reported percentile and the tier of score. The tier is
// taken from the unrounded percentile so a score just short of an anchor
// stays in the lower tier.
func (c Curve) Rank(score float64) (float64, Tier) {
	p := c.exact(score)
	return round1(p), TierFor(p)
}

func (c Curve) exact(score float64) float64 {
	if math.IsNaN(score) {
		return minPercentile
	}
	first := c.Anchors[0]
	if score < first.Score {
		p := first.Percentile * score / first.Score
		return math.Max(minPercentile, p)
	}

	last := c.Anchors[len(c.Anchors)-1]
	if score >= last.Score {
		return maxPercentile
	}

	// v_i <= s < v_{i+1}; equal neighbours are skipped so the division is safe
	// and a score sitting on a flat stretch gets the higher percentile.
	for i := 0; i < len(c.Anchors)-1; i++ {
		lo, hi := c.Anchors[i], c.Anchors[i+1]
		if score < hi.Score {
			return lo.Percentile + (score-lo.Score)/(hi.Score-lo.Score)*(hi.Percentile-lo.Percentile)
		}
	}
	return maxPercentile
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (c Curve) scores() [7]float64 {
	var out [7]float64
	for i, a := range c.Anchors {
		out[i] = a.Score
	}
	return out
}
