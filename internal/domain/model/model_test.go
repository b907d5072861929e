package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/talentcheck/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func validSubmission() model.Submission {
	return model.Submission{
		Athlete: model.Athlete{ID: "ath-1", Age: 17, Gender: model.GenderFemale, Sport: "athletics"},
		Record: model.AssessmentRecord{
			ID:          "asm-1",
			AthleteID:   "ath-1",
			TestType:    model.TestVerticalJump,
			RawScore:    72,
			SubmittedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		Video: model.Video{ID: "vid-1", DurationSec: 30, FrameRate: 30},
	}
}

func TestSubmission_Validate(t *testing.T) {
	Convey("Given a valid submission", t, func() {
		sub := validSubmission()

		Convey("Then it validates", func() {
			So(sub.Validate(), ShouldBeNil)
		})

		Convey("When the athlete id is missing", func() {
			sub.Athlete.ID = ""
			So(errors.Is(sub.Validate(), model.ErrInvalidAthlete), ShouldBeTrue)
		})

		Convey("When the age is out of range", func() {
			sub.Athlete.Age = 2
			So(errors.Is(sub.Validate(), model.ErrInvalidAthlete), ShouldBeTrue)
		})

		Convey("When the test type is unknown", func() {
			sub.Record.TestType = "juggling"
			So(errors.Is(sub.Validate(), model.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When the raw score is above 100", func() {
			sub.Record.RawScore = 100.5
			So(errors.Is(sub.Validate(), model.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When the record belongs to another athlete", func() {
			sub.Record.AthleteID = "ath-2"
			So(errors.Is(sub.Validate(), model.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When the submission time is missing", func() {
			sub.Record.SubmittedAt = time.Time{}
			So(errors.Is(sub.Validate(), model.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When the video has no frame rate", func() {
			sub.Video.FrameRate = 0
			So(errors.Is(sub.Validate(), model.ErrInvalidVideo), ShouldBeTrue)
		})
	})
}

func TestAssessmentRecord_WithNote(t *testing.T) {
	Convey("Given a record with one note", t, func() {
		rec := validSubmission().Record
		rec.Notes = []string{"uploaded from mobile"}

		Convey("When a note is attached", func() {
			out := rec.WithNote("integrity analysis failed")

			Convey("Then the copy carries both notes", func() {
				So(out.Notes, ShouldResemble, []string{"uploaded from mobile", "integrity analysis failed"})
			})

			Convey("And the original is untouched", func() {
				So(rec.Notes, ShouldResemble, []string{"uploaded from mobile"})
			})
		})
	})
}

func TestTestType_Valid(t *testing.T) {
	Convey("Given the supported test types", t, func() {
		for _, tt := range model.TestTypes {
			So(tt.Valid(), ShouldBeTrue)
		}
		So(model.TestType("").Valid(), ShouldBeFalse)
	})
}
