package benchmark

// Tier is the performance band derived from a percentile.
type Tier string

// Performance tiers, best first.
const (
	TierWorldClass       Tier = "world_class"
	TierElite            Tier = "elite"
	TierExcellent        Tier = "excellent"
	TierAboveAverage     Tier = "above_average"
	TierAverage          Tier = "average"
	TierBelowAverage     Tier = "below_average"
	TierNeedsImprovement Tier = "needs_improvement"
)

var tierLadder = []struct {
	min  float64
	tier Tier
}{
	{99, TierWorldClass},
	{95, TierElite},
	{90, TierExcellent},
	{75, TierAboveAverage},
	{50, TierAverage},
	{25, TierBelowAverage},
}

// TierFor maps a percentile to its tier. Boundaries belong to the higher tier.
func TierFor(percentile float64) Tier {
	for _, step := range tierLadder {
		if percentile >= step.min {
			return step.tier
		}
	}
	return TierNeedsImprovement
}

// AtLeast reports whether t ranks at or above other.
func (t Tier) AtLeast(other Tier) bool {
	return t.rank() <= other.rank()
}

func (t Tier) rank() int {
	for i, step := range tierLadder {
		if step.tier == t {
			return i
		}
	}
	if t == TierNeedsImprovement {
		return len(tierLadder)
	}
	return len(tierLadder) + 1
}

// Trend is the direction of an athlete's recent results.
type Trend string

// Trend directions.
const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

const (
	trendWindow    = 3
	trendTolerance = 1.0
)

// TrendOf classifies the last three chronologically ordered scores. Deltas
// above +1 count as ups, below -1 as downs; the majority wins and a tie is
// stable. Fewer than three points are stable.
func TrendOf(scores []float64) Trend {
	if len(scores) < trendWindow {
		return TrendStable
	}
	window := scores[len(scores)-trendWindow:]
	ups, downs := 0, 0
	for i := 1; i < len(window); i++ {
		switch d := window[i] - window[i-1]; {
		case d > trendTolerance:
			ups++
		case d < -trendTolerance:
			downs++
		}
	}
	switch {
	case ups > downs:
		return TrendImproving
	case downs > ups:
		return TrendDeclining
	default:
		return TrendStable
	}
}
