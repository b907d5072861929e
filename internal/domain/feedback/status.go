package feedback

import (
	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/integrity"
)

// Status is the overall decision on a submission.
type Status string

// Overall statuses.
const (
	StatusApproved          Status = "approved"
	StatusUnderReview       Status = "under_review"
	StatusNeedsResubmission Status = "needs_resubmission"
	StatusRejected          Status = "rejected"
)

// Decide applies the status rule. Rules are checked in order and the first
// match wins. Either verdict may be nil when its stage did not produce one;
// an approval without both verdicts is held for review.
func Decide(iv *integrity.Verdict, pv *benchmark.Verdict) Status {
	status := decide(iv, pv)
	if status == StatusApproved && (iv == nil || pv == nil) {
		return StatusUnderReview
	}
	return status
}

func decide(iv *integrity.Verdict, pv *benchmark.Verdict) Status {
	if iv == nil {
		return StatusApproved
	}
	switch {
	case iv.Risk == integrity.RiskCritical:
		return StatusRejected
	case iv.Risk == integrity.RiskHigh:
		return StatusUnderReview
	case iv.Risk == integrity.RiskMedium && pv != nil && pv.Tier == benchmark.TierNeedsImprovement:
		return StatusNeedsResubmission
	case iv.Action == integrity.ActionRequestResubmission:
		return StatusNeedsResubmission
	case iv.Action == integrity.ActionReview:
		return StatusUnderReview
	default:
		return StatusApproved
	}
}
