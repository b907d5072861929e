package feedback

import (
	"context"
	"testing"

	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/movement"
	. "github.com/smartystreets/goconvey/convey"
)

var allTiers = []benchmark.Tier{
	benchmark.TierWorldClass, benchmark.TierElite, benchmark.TierExcellent, benchmark.TierAboveAverage,
	benchmark.TierAverage, benchmark.TierBelowAverage, benchmark.TierNeedsImprovement,
}

func iv(score float64, risk integrity.Risk, action integrity.Action) *integrity.Verdict {
	return &integrity.Verdict{Score: score, Risk: risk, Action: action}
}

func pv(percentile float64, tier benchmark.Tier) *benchmark.Verdict {
	return &benchmark.Verdict{
		Percentile: percentile,
		Tier:       tier,
		Trend:      benchmark.TrendStable,
		NextSteps:  []string{"step one", "step two"},
		Targets: benchmark.Targets{
			NextLevel:  benchmark.Target{Label: "elite", Score: 95, Gap: 3, Difficulty: benchmark.DifficultyEasy, Weeks: 5},
			Elite:      benchmark.Target{Label: "elite", Score: 95, Gap: 3, Difficulty: benchmark.DifficultyEasy, Weeks: 5},
			WorldClass: benchmark.Target{Label: "world_class", Score: 98, Gap: 6, Difficulty: benchmark.DifficultyEasy, Weeks: 9},
		},
	}
}

func TestDecide(t *testing.T) {
	Convey("Given the status rule", t, func() {
		Convey("When integrity risk is critical", func() {
			Convey("Then the status is rejected for every performance tier", func() {
				for _, tier := range allTiers {
					So(Decide(iv(40, integrity.RiskCritical, integrity.ActionReject), pv(99, tier)), ShouldEqual, StatusRejected)
				}
				So(Decide(iv(40, integrity.RiskCritical, integrity.ActionReject), nil), ShouldEqual, StatusRejected)
			})
		})

		Convey("When integrity risk is high", func() {
			So(Decide(iv(60, integrity.RiskHigh, integrity.ActionReview), pv(20, benchmark.TierNeedsImprovement)), ShouldEqual, StatusUnderReview)
		})

		Convey("When risk is medium and performance needs improvement", func() {
			Convey("Then resubmission wins over the review action", func() {
				So(Decide(iv(75, integrity.RiskMedium, integrity.ActionReview), pv(10, benchmark.TierNeedsImprovement)), ShouldEqual, StatusNeedsResubmission)
			})
		})

		Convey("When the action requests resubmission", func() {
			So(Decide(iv(75, integrity.RiskMedium, integrity.ActionRequestResubmission), pv(60, benchmark.TierAverage)), ShouldEqual, StatusNeedsResubmission)
		})

		Convey("When the action is review", func() {
			So(Decide(iv(75, integrity.RiskMedium, integrity.ActionReview), pv(60, benchmark.TierAverage)), ShouldEqual, StatusUnderReview)
		})

		Convey("When integrity is clean", func() {
			So(Decide(iv(90, integrity.RiskLow, integrity.ActionApprove), pv(60, benchmark.TierAverage)), ShouldEqual, StatusApproved)
		})

		Convey("When a verdict is missing", func() {
			Convey("Then an approval is held for review", func() {
				So(Decide(nil, pv(60, benchmark.TierAverage)), ShouldEqual, StatusUnderReview)
				So(Decide(iv(90, integrity.RiskLow, integrity.ActionApprove), nil), ShouldEqual, StatusUnderReview)
				So(Decide(nil, nil), ShouldEqual, StatusUnderReview)
			})
		})
	})
}

func TestScore(t *testing.T) {
	Convey("Given verdicts for the composite score", t, func() {
		Convey("When every part is present", func() {
			b := Score(iv(88, integrity.RiskLow, integrity.ActionApprove), pv(91.3, benchmark.TierExcellent), nil)

			Convey("Then the stock weights apply", func() {
				So(b.Composite, ShouldEqual, 86.2)
				So(b.IntegrityWeight, ShouldEqual, 0.3)
				So(b.PerformanceWeight, ShouldEqual, 0.6)
				So(b.ImprovementWeight, ShouldEqual, 0.1)
				So(*b.Improvement, ShouldEqual, 50)
				So(b.Technical, ShouldBeNil)
			})
		})

		Convey("When integrity is missing", func() {
			b := Score(nil, pv(91.3, benchmark.TierExcellent), nil)

			Convey("Then its weight is redistributed", func() {
				So(b.Integrity, ShouldBeNil)
				So(b.Composite, ShouldEqual, 85.4)
				So(b.PerformanceWeight, ShouldEqual, 0.857)
				So(b.ImprovementWeight, ShouldEqual, 0.143)
			})
		})

		Convey("When only integrity is present", func() {
			b := Score(iv(88, integrity.RiskLow, integrity.ActionApprove), nil, &movement.Result{Technical: movement.TechnicalScore{Overall: 70}})
			So(b.Composite, ShouldEqual, 88)
			So(b.IntegrityWeight, ShouldEqual, 1)
			So(*b.Technical, ShouldEqual, 70)
		})

		Convey("When nothing is present", func() {
			So(Score(nil, nil, nil).Composite, ShouldEqual, 0)
		})

		Convey("Then improvement is normalized and clamped", func() {
			So(NormalizedImprovement(0), ShouldEqual, 50)
			So(NormalizedImprovement(15), ShouldEqual, 80)
			So(NormalizedImprovement(40), ShouldEqual, 100)
			So(NormalizedImprovement(-30), ShouldEqual, 0)
		})
	})
}

func TestAlerts(t *testing.T) {
	Convey("Given a rejected submission with many problems", t, func() {
		i := iv(40, integrity.RiskCritical, integrity.ActionReject)
		i.TamperingDetected = true
		i.MultiplePersons = true
		p := pv(10, benchmark.TierNeedsImprovement)
		p.HasHistory = true
		p.Improvement = -12
		m := &movement.Result{FormIssues: []movement.FormIssue{{Code: "body_not_visible", Severity: movement.SeverityCritical, Description: "body is not fully visible"}}}

		alerts := Alerts(StatusRejected, i, p, m)

		Convey("Then every triggered alert is surfaced", func() {
			codes := map[string]bool{}
			for _, a := range alerts {
				codes[a.Code] = true
			}
			for _, c := range []string{"status_rejected", "low_performance", "big_drop", "integrity_critical", "tampering", "multiple_persons", "form_body_not_visible"} {
				So(codes[c], ShouldBeTrue)
			}
			So(alerts, ShouldHaveLength, 7)
		})

		Convey("Then they are ranked by priority then severity", func() {
			for k := 1; k < len(alerts); k++ {
				prev, cur := alerts[k-1], alerts[k]
				So(priorityRank[prev.Priority], ShouldBeLessThanOrEqualTo, priorityRank[cur.Priority])
				if prev.Priority == cur.Priority {
					So(severityRank[prev.Severity], ShouldBeLessThanOrEqualTo, severityRank[cur.Severity])
				}
			}
			So(alerts[0].Code, ShouldEqual, "status_rejected")
			So(alerts[3].Code, ShouldEqual, "multiple_persons")
		})
	})

	Convey("Given an approved top result", t, func() {
		alerts := Alerts(StatusApproved, iv(92, integrity.RiskLow, integrity.ActionApprove), pv(96, benchmark.TierElite), nil)
		So(alerts, ShouldHaveLength, 2)
		So(alerts[0].Code, ShouldEqual, "top_performance")
		So(alerts[1].Code, ShouldEqual, "status_approved")
	})
}

func TestRecommend(t *testing.T) {
	Convey("Given status templates", t, func() {
		Convey("When rejected", func() {
			i := iv(40, integrity.RiskCritical, integrity.ActionReject)
			i.Suggestions = []string{"Upload the original, unedited recording"}
			r := Recommend(StatusRejected, i, nil, nil)
			So(r.Immediate[0], ShouldContainSubstring, "Contact support")
			So(r.FollowUp, ShouldResemble, i.Suggestions)
		})

		Convey("When approved", func() {
			p := pv(91.3, benchmark.TierExcellent)
			r := Recommend(StatusApproved, iv(88, integrity.RiskLow, integrity.ActionApprove), p, nil)

			Convey("Then the benchmark next steps are forwarded", func() {
				So(r.Immediate, ShouldResemble, p.NextSteps)
				So(r.FollowUp[0], ShouldContainSubstring, "5 weeks")
				So(r.LongTerm[0], ShouldContainSubstring, "elite")
			})
		})

		Convey("When resubmission is needed", func() {
			m := &movement.Result{FormIssues: []movement.FormIssue{{Correction: "Keep the whole body inside the frame"}}}
			r := Recommend(StatusNeedsResubmission, nil, nil, m)
			So(r.Immediate[0], ShouldContainSubstring, "submit this test again")
			So(r.FollowUp, ShouldResemble, []string{"Keep the whole body inside the frame"})
		})

		Convey("When under review without performance", func() {
			r := Recommend(StatusUnderReview, nil, nil, nil)
			So(r.LongTerm, ShouldResemble, []string{keepTraining})
		})
	})
}

func TestConfidence(t *testing.T) {
	Convey("Given movement and integrity results", t, func() {
		valid := &movement.Result{Compliance: movement.Compliance{Confidence: 0.9}, Biomechanics: movement.Biomechanics{Valid: true}}
		low := iv(90, integrity.RiskLow, integrity.ActionApprove)

		So(ConfidenceOf(low, valid), ShouldEqual, ConfidenceHigh)
		So(ConfidenceOf(iv(75, integrity.RiskMedium, integrity.ActionReview), valid), ShouldEqual, ConfidenceMedium)
		So(ConfidenceOf(nil, valid), ShouldEqual, ConfidenceMedium)
		So(ConfidenceOf(low, &movement.Result{Compliance: movement.Compliance{Confidence: 0.7}}), ShouldEqual, ConfidenceMedium)
		So(ConfidenceOf(low, &movement.Result{Compliance: movement.Compliance{Confidence: 0.4}}), ShouldEqual, ConfidenceLow)
		So(ConfidenceOf(low, nil), ShouldEqual, ConfidenceLow)
	})
}

func TestCombine(t *testing.T) {
	Convey("Given a strong score with clean integrity", t, func() {
		s := NewSynthesizer()
		v := s.Combine(context.Background(), Input{
			AssessmentID: "a1",
			Integrity:    iv(88, integrity.RiskLow, integrity.ActionApprove),
			Performance:  pv(91.3, benchmark.TierExcellent),
		})

		Convey("Then the assessment is approved", func() {
			So(v.Status, ShouldEqual, StatusApproved)
			So(v.Score, ShouldEqual, 86.2)
			So(v.Confidence, ShouldEqual, ConfidenceLow)
			So(v.Highlights, ShouldHaveLength, 3)
			So(v.Recommendations.Immediate, ShouldResemble, []string{"step one", "step two"})
		})
	})
}
