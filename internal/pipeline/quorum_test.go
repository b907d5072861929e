package pipeline

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/feedback"
	"github.com/okian/talentcheck/internal/domain/integrity"
)

func TestQuorum(t *testing.T) {
	Convey("Given the recruitment quorum", t, func() {
		approve := &integrity.Verdict{Action: integrity.ActionApprove}
		top := &benchmark.Verdict{Percentile: 97, Tier: benchmark.TierElite}

		Convey("When all four conditions hold", func() {
			v := &feedback.CompositeVerdict{Status: feedback.StatusApproved, Score: 92, Confidence: feedback.ConfidenceHigh}
			q := Quorum(v, approve, top)
			So(q.Conditions, ShouldEqual, 4)
			So(q.Eligible, ShouldBeTrue)
		})

		Convey("When only two hold", func() {
			v := &feedback.CompositeVerdict{Status: feedback.StatusApproved, Score: 80, Confidence: feedback.ConfidenceMedium}
			q := Quorum(v, approve, top)
			So(q.Conditions, ShouldEqual, 2)
			So(q.Eligible, ShouldBeFalse)
		})

		Convey("When the thresholds are met exactly", func() {
			v := &feedback.CompositeVerdict{Status: feedback.StatusApproved, Score: 85, Confidence: feedback.ConfidenceLow}
			q := Quorum(v, approve, &benchmark.Verdict{Percentile: 95, Tier: benchmark.TierElite})
			So(q.Conditions, ShouldEqual, 3)
			So(q.Eligible, ShouldBeTrue)
		})

		Convey("When the percentile only rounds up to 95", func() {
			v := &feedback.CompositeVerdict{Status: feedback.StatusApproved, Score: 85, Confidence: feedback.ConfidenceLow}
			q := Quorum(v, approve, &benchmark.Verdict{Percentile: 95, Tier: benchmark.TierExcellent})
			So(q.Conditions, ShouldEqual, 2)
			So(q.Eligible, ShouldBeFalse)
		})

		Convey("When the verdict is not approved", func() {
			v := &feedback.CompositeVerdict{Status: feedback.StatusUnderReview, Score: 99, Confidence: feedback.ConfidenceHigh}
			q := Quorum(v, approve, top)
			So(q.Conditions, ShouldEqual, 4)
			So(q.Eligible, ShouldBeFalse)
		})

		Convey("When verdicts are missing", func() {
			v := &feedback.CompositeVerdict{Status: feedback.StatusApproved, Score: 90, Confidence: feedback.ConfidenceHigh}
			So(Quorum(v, nil, nil).Conditions, ShouldEqual, 2)
			So(Quorum(nil, approve, top), ShouldResemble, Quorum(nil, nil, nil))
		})
	})
}
