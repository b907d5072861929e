package assessment

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestOutcome(t *testing.T) {
	Convey("Given stage outcomes", t, func() {
		Convey("When a stage succeeded", func() {
			o := Succeeded(42)
			v, ok := o.Get()
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 42)
			So(*o.Ptr(), ShouldEqual, 42)
		})

		Convey("When a stage failed", func() {
			o := Failed[int](errors.New("boom"))
			_, ok := o.Get()
			So(ok, ShouldBeFalse)
			So(o.Ptr(), ShouldBeNil)
			So(o.Error, ShouldEqual, "boom")
		})

		Convey("When a stage was skipped", func() {
			o := Skipped[string]()
			So(o.Status, ShouldEqual, OutcomeSkipped)
			So(o.Ptr(), ShouldBeNil)
		})
	})
}

func TestProcessingStatusOf(t *testing.T) {
	Convey("Given analytic stage statuses", t, func() {
		So(ProcessingStatusOf(OutcomeSucceeded, OutcomeSucceeded, OutcomeSucceeded), ShouldEqual, ProcessingComplete)
		So(ProcessingStatusOf(OutcomeSucceeded, OutcomeSkipped, OutcomeSucceeded), ShouldEqual, ProcessingComplete)
		So(ProcessingStatusOf(OutcomeFailed, OutcomeSucceeded, OutcomeSucceeded), ShouldEqual, ProcessingPartial)
		So(ProcessingStatusOf(OutcomeFailed, OutcomeFailed, OutcomeFailed), ShouldEqual, ProcessingFailed)
		So(ProcessingStatusOf(OutcomeSkipped, OutcomeSkipped), ShouldEqual, ProcessingFailed)
	})
}

func TestResult(t *testing.T) {
	Convey("Given a finished result", t, func() {
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		r := Result{StartedAt: start, CompletedAt: start.Add(1500 * time.Millisecond)}
		So(r.Duration(), ShouldEqual, 1500*time.Millisecond)
		So(Result{StartedAt: start}.Duration(), ShouldEqual, 0)
		So(StageComplete.Terminal(), ShouldBeTrue)
		So(StageFeedback.Terminal(), ShouldBeFalse)
		So(StageError.Terminal(), ShouldBeTrue)
	})

	Convey("Given a result with a recorded stage failure", t, func() {
		r := Result{ErrorDetails: []StageFailure{{Stage: StageIntegrity, Message: "face model unavailable"}}}

		Convey("Then the failure names its stage, not the error stage", func() {
			So(r.ErrorDetails, ShouldHaveLength, 1)
			So(r.ErrorDetails[0].Stage, ShouldEqual, StageIntegrity)
			So(r.ErrorDetails[0].Stage, ShouldNotEqual, StageError)
		})
	})
}
