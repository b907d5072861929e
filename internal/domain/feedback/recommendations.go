package feedback

import (
	"fmt"

	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/movement"
)

// Recommendations are grouped by horizon.
type Recommendations struct {
	Immediate []string `json:"immediate"`
	FollowUp  []string `json:"follow_up"`
	LongTerm  []string `json:"long_term"`
}

const keepTraining = "Keep training consistently and re-test regularly"

// Recommend fills the three horizons from status templates. Approved results
// forward the benchmark's own next steps.
func Recommend(status Status, iv *integrity.Verdict, pv *benchmark.Verdict, mv *movement.Result) Recommendations {
	var r Recommendations
	switch status {
	case StatusRejected:
		r.Immediate = []string{"Contact support to discuss the integrity findings"}
		r.FollowUp = suggestions(iv)
		r.LongTerm = []string{"Follow the recording guidelines for future assessments"}
	case StatusNeedsResubmission:
		r.Immediate = []string{"Record and submit this test again"}
		r.FollowUp = append(suggestions(iv), corrections(mv)...)
		r.LongTerm = []string{"Review the test protocol before recording"}
	case StatusUnderReview:
		r.Immediate = []string{"No action needed while the submission is reviewed"}
		r.FollowUp = []string{"You will be notified when the review is complete"}
		r.LongTerm = nextSteps(pv)
	default:
		r.Immediate = nextSteps(pv)
		r.FollowUp = corrections(mv)
		if len(r.FollowUp) == 0 && pv != nil && !pv.Targets.NextLevel.Achieved() {
			t := pv.Targets.NextLevel
			r.FollowUp = []string{fmt.Sprintf("Re-test in about %d weeks aiming for %.1f", t.Weeks, t.Score)}
		}
		r.LongTerm = longTerm(pv)
	}
	if len(r.FollowUp) == 0 {
		r.FollowUp = []string{keepTraining}
	}
	return r
}

func nextSteps(pv *benchmark.Verdict) []string {
	if pv == nil || len(pv.NextSteps) == 0 {
		return []string{keepTraining}
	}
	return append([]string(nil), pv.NextSteps...)
}

func suggestions(iv *integrity.Verdict) []string {
	if iv == nil {
		return nil
	}
	return append([]string(nil), iv.Suggestions...)
}

func corrections(mv *movement.Result) []string {
	if mv == nil {
		return nil
	}
	var out []string
	for _, is := range mv.FormIssues {
		out = append(out, is.Correction)
	}
	return out
}

func longTerm(pv *benchmark.Verdict) []string {
	if pv == nil {
		return []string{keepTraining}
	}
	for _, t := range []benchmark.Target{pv.Targets.Elite, pv.Targets.WorldClass} {
		if !t.Achieved() {
			return []string{fmt.Sprintf("Work toward the %s standard of %.1f over about %d weeks", t.Label, t.Score, t.Weeks)}
		}
	}
	return []string{"Maintain world-class form and consider competition-level testing"}
}
