package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func testVideo(id string) model.Video {
	return model.Video{ID: id, DurationSec: 10, FrameRate: 30, Width: 1280, Height: 720}
}

func TestSimulatorPose(t *testing.T) {
	Convey("Given a simulator without latency", t, func() {
		ctx := context.Background()
		s := NewSimulator(WithLatencyRange(0, 0))

		Convey("When frames are extracted", func() {
			frames, err := s.Extract(ctx, testVideo("vid-1"))

			Convey("Then they are sampled at the sample rate", func() {
				So(err, ShouldBeNil)
				So(frames, ShouldHaveLength, 150)
				So(frames[1].Timestamp, ShouldAlmostEqual, 1.0/15, 1e-9)
				So(frames[0].VideoID, ShouldEqual, "vid-1")
			})
		})

		Convey("When the video has no content", func() {
			_, err := s.Extract(ctx, model.Video{ID: "empty"})
			So(errors.Is(err, ErrNoFrames), ShouldBeTrue)
		})

		Convey("When poses are detected", func() {
			frames, _ := s.Extract(ctx, testVideo("vid-2"))
			poses, err := s.DetectPose(ctx, frames)

			Convey("Then every frame has a full skeleton", func() {
				So(err, ShouldBeNil)
				So(poses, ShouldHaveLength, len(frames))
				So(poses[0].Keypoints, ShouldHaveLength, 13)
				So(poses[0].Keypoints, ShouldContainKey, LeftKnee)
			})

			Convey("Then detection is deterministic", func() {
				again, _ := s.DetectPose(ctx, frames)
				So(again, ShouldResemble, poses)
			})

			Convey("Then recognition confidence is a probability", func() {
				rec, err := s.Recognize(ctx, poses, model.TestPushUps)
				So(err, ShouldBeNil)
				So(rec.TestType, ShouldEqual, model.TestPushUps)
				So(rec.Confidence, ShouldBeBetweenOrEqual, 0, 1)
			})
		})

		Convey("When nothing was detected", func() {
			_, err := s.DetectPose(ctx, nil)
			So(errors.Is(err, ErrNoFrames), ShouldBeTrue)
			_, err = s.Recognize(ctx, nil, model.TestSitUps)
			So(errors.Is(err, ErrNoPoses), ShouldBeTrue)
		})
	})

	Convey("Given a simulator with latency", t, func() {
		s := NewSimulator(WithLatencyRange(50*time.Millisecond, 100*time.Millisecond))

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := s.Extract(ctx, testVideo("vid-3"))

			Convey("Then the call fails with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestSimulatorSignals(t *testing.T) {
	Convey("Given a simulator used as a signal source", t, func() {
		ctx := context.Background()
		s := NewSimulator(WithLatencyRange(0, 0))
		submitted := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		sub := integrity.Subject{
			Video:  testVideo("vid-9"),
			Record: model.AssessmentRecord{ID: "a9", AthleteID: "ath", TestType: model.TestPushUps, SubmittedAt: submitted},
		}

		Convey("Then the same subject yields the same evidence", func() {
			a, err := s.Tampering(ctx, sub)
			So(err, ShouldBeNil)
			b, _ := s.Tampering(ctx, sub)
			So(a, ShouldResemble, b)
		})

		Convey("Then every metric is within range", func() {
			m, _ := s.Movement(ctx, sub)
			for _, v := range []float64{m.ExerciseMatch, m.RangeOfMotion, m.RepetitionValidity, m.PostureStability} {
				So(v, ShouldBeBetweenOrEqual, 0, 100)
			}
		})

		Convey("When the video was recorded after submission", func() {
			sub.Video.RecordedAt = submitted.Add(time.Hour)
			ev, _ := s.Temporal(ctx, sub)
			So(ev.TimestampConsistency, ShouldEqual, 20)
		})

		Convey("When the duration does not fit the test", func() {
			sub.Video.DurationSec = 2
			ev, _ := s.Temporal(ctx, sub)
			So(ev.DurationPlausibility, ShouldEqual, 40)
		})

		Convey("When the frame rate is implausible", func() {
			sub.Video.FrameRate = 5
			ev, _ := s.Temporal(ctx, sub)
			So(ev.FrameRateStability, ShouldEqual, 40)
		})

		Convey("When the same test was submitted seconds earlier", func() {
			base, _ := s.Temporal(ctx, sub)
			sub.History = []model.HistoryPoint{{AssessmentID: "a8", TestType: model.TestPushUps, SubmittedAt: submitted.Add(-10 * time.Second)}}
			ev, _ := s.Temporal(ctx, sub)
			So(ev.TimestampConsistency, ShouldBeLessThan, base.TimestampConsistency)
		})

		Convey("When the resolution is low", func() {
			hi, _ := s.Environment(ctx, sub)
			sub.Video.Width, sub.Video.Height = 320, 240
			lo, _ := s.Environment(ctx, sub)
			So(lo.BackgroundClarity, ShouldBeLessThanOrEqualTo, hi.BackgroundClarity)
		})

		Convey("When combined by the integrity evaluator", func() {
			e, err := integrity.NewEvaluator(s)
			So(err, ShouldBeNil)
			v, err := e.Evaluate(ctx, sub)
			So(err, ShouldBeNil)
			So(v.Score, ShouldBeBetweenOrEqual, 0, 100)
			So(v.Signals, ShouldHaveLength, 5)
		})
	})
}
