package feedback

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/movement"
)

// Severity of an alert.
type Severity string

// Alert severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// Priority of an alert.
type Priority string

// Alert priorities.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var (
	priorityRank = map[Priority]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}
	severityRank = map[Severity]int{SeverityError: 0, SeverityWarning: 1, SeverityInfo: 2, SeveritySuccess: 3}
)

// Alert is one message surfaced to the athlete or reviewer.
type Alert struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

// Alerts raises every alert that applies, ranked by priority and then
// severity. Ties keep generation order.
func Alerts(status Status, iv *integrity.Verdict, pv *benchmark.Verdict, mv *movement.Result) []Alert {
	var out []Alert
	add := func(code string, sev Severity, pri Priority, msg string) {
		out = append(out, Alert{Code: code, Severity: sev, Priority: pri, Message: msg})
	}

	switch status {
	case StatusRejected:
		add("status_rejected", SeverityError, PriorityHigh, "Submission rejected: integrity checks failed")
	case StatusNeedsResubmission:
		add("status_resubmit", SeverityWarning, PriorityHigh, "Please record and submit this test again")
	case StatusUnderReview:
		add("status_review", SeverityWarning, PriorityMedium, "Submission is under manual review")
	case StatusApproved:
		add("status_approved", SeveritySuccess, PriorityLow, "Assessment approved")
	}

	if pv != nil {
		switch {
		case pv.Tier.AtLeast(benchmark.TierElite):
			add("top_performance", SeveritySuccess, PriorityMedium,
				fmt.Sprintf("Outstanding result: %.0fth percentile in your cohort", pv.Percentile))
		case pv.Tier.AtLeast(benchmark.TierAboveAverage):
			add("strong_performance", SeveritySuccess, PriorityLow,
				fmt.Sprintf("Strong result: %.0fth percentile in your cohort", pv.Percentile))
		case pv.Tier == benchmark.TierNeedsImprovement:
			add("low_performance", SeverityInfo, PriorityMedium,
				fmt.Sprintf("Result is in the bottom quarter of your cohort (%.0fth percentile)", pv.Percentile))
		}
		switch {
		case pv.HasHistory && pv.Improvement >= 10:
			add("big_improvement", SeveritySuccess, PriorityLow,
				fmt.Sprintf("Improved by %.1f points since your last attempt", pv.Improvement))
		case pv.HasHistory && pv.Improvement <= -10:
			add("big_drop", SeverityWarning, PriorityMedium,
				fmt.Sprintf("Dropped by %.1f points since your last attempt", math.Abs(pv.Improvement)))
		}
	}

	if iv != nil {
		switch {
		case iv.Score < 55:
			add("integrity_critical", SeverityError, PriorityHigh,
				fmt.Sprintf("Integrity score %.1f is critically low", iv.Score))
		case iv.Score < 70:
			add("integrity_low", SeverityWarning, PriorityMedium,
				fmt.Sprintf("Integrity score %.1f needs attention", iv.Score))
		}
		if iv.TamperingDetected {
			add("tampering", SeverityError, PriorityHigh, "Signs of video editing were detected")
		}
		if iv.MultiplePersons {
			add("multiple_persons", SeverityWarning, PriorityHigh, "More than one person appears in the video")
		}
	}

	if mv != nil {
		for _, is := range mv.FormIssues {
			if is.Severity == movement.SeverityCritical {
				add("form_"+is.Code, SeverityWarning, PriorityMedium, "Technique: "+is.Description)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := priorityRank[out[i].Priority], priorityRank[out[j].Priority]
		if pi != pj {
			return pi < pj
		}
		return severityRank[out[i].Severity] < severityRank[out[j].Severity]
	})
	return out
}
