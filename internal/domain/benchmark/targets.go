package benchmark

import "math"

// Difficulty rates how hard a target is to reach from the current score.
type Difficulty string

// Difficulty levels.
const (
	DifficultyAchieved    Difficulty = "achieved"
	DifficultyEasy        Difficulty = "easy"
	DifficultyModerate    Difficulty = "moderate"
	DifficultyChallenging Difficulty = "challenging"
)

const (
	easyGapFraction     = 0.10
	moderateGapFraction = 0.25
)

// Target is a forward-looking score goal.
type Target struct {
	Label      string     `json:"label"`
	Percentile float64    `json:"percentile"`
	Score      float64    `json:"score"`
	Gap        float64    `json:"gap"`
	Difficulty Difficulty `json:"difficulty"`
	Weeks      int        `json:"weeks"`
}

// Achieved reports whether the target score is already met.
func (t Target) Achieved() bool { return t.Difficulty == DifficultyAchieved }

// Targets groups the three goals reported to the athlete.
type Targets struct {
	NextLevel  Target `json:"next_level"`
	Elite      Target `json:"elite"`
	WorldClass Target `json:"world_class"`
}

// DifficultyFor rates a gap as a fraction of the current score.
func DifficultyFor(score, gap float64) Difficulty {
	if gap <= 0 {
		return DifficultyAchieved
	}
	if score <= 0 {
		return DifficultyChallenging
	}
	switch frac := gap / score; {
	case frac <= easyGapFraction:
		return DifficultyEasy
	case frac <= moderateGapFraction:
		return DifficultyModerate
	default:
		return DifficultyChallenging
	}
}

// defaultWeeklyGain is the expected score gain per week of focused training
// by age group.
var defaultWeeklyGain = map[AgeGroup]float64{
	AgeU14:     1.5,
	AgeU17:     1.2,
	AgeU20:     1.0,
	AgeSenior:  0.7,
	AgeMasters: 0.4,
}

func (e *Engine) target(label string, percentile, targetScore, score float64, group AgeGroup) Target {
	// Difficulty and weeks use the exact gap; only the reported gap is rounded.
	gap := math.Max(0, targetScore-score)
	t := Target{
		Label:      label,
		Percentile: percentile,
		Score:      targetScore,
		Gap:        math.Round(gap*10) / 10,
		Difficulty: DifficultyFor(score, gap),
	}
	if gap > 0 {
		rate := e.weeklyGain[group]
		if rate <= 0 {
			rate = defaultWeeklyGain[AgeSenior]
		}
		t.Weeks = int(math.Ceil(gap / rate))
	}
	return t
}

// Targets computes the next-level, elite and world-class goals for a score.
// Next level is the first anchor above the current percentile.
func (e *Engine) Targets(score float64, key CohortKey) Targets {
	c := e.Curve(key)
	current := c.exact(score)

	next := c.Anchors[len(c.Anchors)-1]
	for _, a := range c.Anchors {
		if a.Percentile > current {
			next = a
			break
		}
	}
	elite, _ := c.ScoreAt(95)
	world, _ := c.ScoreAt(99)

	return Targets{
		NextLevel:  e.target(string(TierFor(next.Percentile)), next.Percentile, next.Score, score, key.AgeGroup),
		Elite:      e.target(string(TierElite), 95, elite, score, key.AgeGroup),
		WorldClass: e.target(string(TierWorldClass), 99, world, score, key.AgeGroup),
	}
}
