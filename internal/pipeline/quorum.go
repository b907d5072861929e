package pipeline

import (
	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/feedback"
	"github.com/okian/talentcheck/internal/domain/integrity"
)

// Recruitment quorum. An approved assessment notifies scouts when at least
// quorumNeeded of the four standout conditions hold. The threshold is a
// product rule carried over as is, not derived from the scoring model.
const (
	quorumScore  = 85.0
	quorumNeeded = 3
)

// quorumTier is the tier whose lower bound is the 95th percentile.
const quorumTier = benchmark.TierElite

// Quorum evaluates the recruitment notification rule.
func Quorum(v *feedback.CompositeVerdict, iv *integrity.Verdict, pv *benchmark.Verdict) assessment.Quorum {
	if v == nil {
		return assessment.Quorum{}
	}
	met := 0
	if v.Score >= quorumScore {
		met++
	}
	if pv != nil && pv.Tier.AtLeast(quorumTier) {
		met++
	}
	if iv != nil && iv.Action == integrity.ActionApprove {
		met++
	}
	if v.Confidence == feedback.ConfidenceHigh {
		met++
	}
	return assessment.Quorum{
		Conditions: met,
		Eligible:   v.Status == feedback.StatusApproved && met >= quorumNeeded,
	}
}
