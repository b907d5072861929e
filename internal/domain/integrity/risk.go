package integrity

import "fmt"

// Risk is the integrity risk tier.
type Risk string

// Risk tiers, safest first.
const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Action is the recommended handling of a submission.
type Action string

// Recommended actions.
const (
	ActionApprove             Action = "approve"
	ActionReview              Action = "review"
	ActionReject              Action = "reject"
	ActionRequestResubmission Action = "request_resubmission"
)

// Thresholds are the lower bounds of the low, medium and high tiers. Scores
// below High are critical.
type Thresholds struct {
	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`
}

// DefaultThresholds is the stock risk ladder.
var DefaultThresholds = Thresholds{Low: 85, Medium: 70, High: 55}

// Validate requires strictly descending bounds inside (0,100] so the tiers
// partition the score range.
func (t Thresholds) Validate() error {
	if !(t.Low <= 100 && t.Low > t.Medium && t.Medium > t.High && t.High > 0) {
		return fmt.Errorf("%w: need 100 >= low > medium > high > 0, got %v/%v/%v",
			ErrInvalidThresholds, t.Low, t.Medium, t.High)
	}
	return nil
}

// RiskFor maps a composite score to its tier.
func (t Thresholds) RiskFor(score float64) Risk {
	switch {
	case score >= t.Low:
		return RiskLow
	case score >= t.Medium:
		return RiskMedium
	case score >= t.High:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// ActionFor applies the action table. Rules are checked in order and the
// first match wins.
func ActionFor(risk Risk, tamperingDetected, multiplePersons bool) Action {
	switch {
	case risk == RiskCritical:
		return ActionReject
	case risk == RiskHigh:
		return ActionReview
	case risk == RiskMedium && (tamperingDetected || multiplePersons):
		return ActionReview
	case risk == RiskMedium:
		return ActionRequestResubmission
	default:
		return ActionApprove
	}
}

// Weights weight the five signals in the composite. They are normalized by
// their total, so only the ratios matter.
type Weights struct {
	Tampering   float64 `json:"tampering"`
	Movement    float64 `json:"movement"`
	Environment float64 `json:"environment"`
	Biometric   float64 `json:"biometric"`
	Temporal    float64 `json:"temporal"`
}

// DefaultWeights is the stock weighting.
var DefaultWeights = Weights{Tampering: 0.25, Movement: 0.30, Environment: 0.15, Biometric: 0.20, Temporal: 0.10}

// Validate rejects negative weights and an all-zero set.
func (w Weights) Validate() error {
	total := 0.0
	for _, v := range w.values() {
		if v < 0 {
			return fmt.Errorf("%w: negative weight %v", ErrInvalidWeights, v)
		}
		total += v
	}
	if total <= 0 {
		return fmt.Errorf("%w: weights sum to zero", ErrInvalidWeights)
	}
	return nil
}

func (w Weights) values() []float64 {
	return []float64{w.Tampering, w.Movement, w.Environment, w.Biometric, w.Temporal}
}

func (w Weights) of(k Kind) float64 {
	switch k {
	case KindTampering:
		return w.Tampering
	case KindMovement:
		return w.Movement
	case KindEnvironment:
		return w.Environment
	case KindBiometric:
		return w.Biometric
	case KindTemporal:
		return w.Temporal
	}
	return 0
}
