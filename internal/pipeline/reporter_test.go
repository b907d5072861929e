package pipeline

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentcheck/internal/adapters/progress"
	"github.com/okian/talentcheck/internal/domain/assessment"
)

func TestReporter(t *testing.T) {
	Convey("Given a reporter on a fixed clock", t, func() {
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		now := start
		clock := func() time.Time { return now }
		var got []progress.Progress
		r := newReporter("run-1", "a-1", clock, func(p progress.Progress) { got = append(got, p) }, nil)

		Convey("When a lower percent is reported after a higher one", func() {
			r.report(assessment.StageFeedback, 75, "combining")
			r.report(assessment.StageError, 0, "boom")

			Convey("Then percent holds", func() {
				So(got[1].Percent, ShouldEqual, 75)
				So(got[1].Stage, ShouldEqual, assessment.StageError)
				So(got[1].ETA, ShouldBeNil)
			})
		})

		Convey("When time has passed", func() {
			now = start.Add(10 * time.Second)
			r.report(assessment.StageIntegrity, 20, "analyzing")

			Convey("Then the ETA extrapolates the elapsed time", func() {
				So(got[0].ETA, ShouldNotBeNil)
				So(got[0].ETA.Sub(now), ShouldEqual, 40*time.Second)
			})
		})

		Convey("When analytic stages finish concurrently", func() {
			var wg sync.WaitGroup
			for _, s := range []assessment.Stage{assessment.StageIntegrity, assessment.StageMovement, assessment.StagePerformance} {
				wg.Add(1)
				go func() {
					defer wg.Done()
					r.analyticDone(s, "done")
				}()
			}
			wg.Wait()

			Convey("Then percents step by fifteen in order", func() {
				So(len(got), ShouldEqual, 3)
				So(got[0].Percent, ShouldEqual, 35)
				So(got[1].Percent, ShouldEqual, 50)
				So(got[2].Percent, ShouldEqual, 65)
			})
		})
	})
}
