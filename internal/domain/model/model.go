// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// TestType identifies a standardized fitness test.
type TestType string

// Supported test types.
const (
	TestVerticalJump TestType = "vertical_jump"
	TestSitUps       TestType = "sit_ups"
	TestShuttleRun   TestType = "shuttle_run"
	TestEnduranceRun TestType = "endurance_run"
	TestPushUps      TestType = "push_ups"
	TestSprint30m    TestType = "sprint_30m"
	TestBroadJump    TestType = "broad_jump"
	TestFlexibility  TestType = "flexibility"
)

// TestTypes lists every supported test type in a stable order.
var TestTypes = []TestType{
	TestVerticalJump, TestSitUps, TestShuttleRun, TestEnduranceRun,
	TestPushUps, TestSprint30m, TestBroadJump, TestFlexibility,
}

// Valid reports whether t is a supported test type.
func (t TestType) Valid() bool { return slices.Contains(TestTypes, t) }

// Gender of the athlete as used for cohort lookup.
type Gender string

// Genders.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Athlete is the profile the pipeline needs for cohort lookup.
type Athlete struct {
	ID     string `json:"id"`
	Age    int    `json:"age"`
	Gender Gender `json:"gender"`
	Sport  string `json:"sport,omitempty"`
}

// Validate checks required athlete fields.
func (a Athlete) Validate() error {
	switch {
	case strings.TrimSpace(a.ID) == "":
		return fmt.Errorf("%w: missing athlete id", ErrInvalidAthlete)
	case a.Age < 5 || a.Age > 100:
		return fmt.Errorf("%w: age %d out of range", ErrInvalidAthlete, a.Age)
	}
	return nil
}

// Video references a submitted recording. The bytes live elsewhere; the
// pipeline only passes this descriptor to the analyzer.
type Video struct {
	ID          string    `json:"id"`
	URI         string    `json:"uri,omitempty"`
	DurationSec float64   `json:"duration_sec"`
	FrameRate   float64   `json:"frame_rate"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Validate checks the descriptor is usable.
func (v Video) Validate() error {
	switch {
	case strings.TrimSpace(v.ID) == "":
		return fmt.Errorf("%w: missing video id", ErrInvalidVideo)
	case v.DurationSec <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidVideo)
	case v.FrameRate <= 0:
		return fmt.Errorf("%w: frame rate must be positive", ErrInvalidVideo)
	}
	return nil
}

// AssessmentRecord is created by the upload step and is immutable apart from
// notes, which are attached on copies.
type AssessmentRecord struct {
	ID          string    `json:"id"`
	AthleteID   string    `json:"athlete_id"`
	TestType    TestType  `json:"test_type"`
	RawScore    float64   `json:"raw_score"`
	SubmittedAt time.Time `json:"submitted_at"`
	Notes       []string  `json:"notes,omitempty"`
}

// Validate checks required record fields.
func (r AssessmentRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return fmt.Errorf("%w: missing assessment id", ErrInvalidRecord)
	case strings.TrimSpace(r.AthleteID) == "":
		return fmt.Errorf("%w: missing athlete id", ErrInvalidRecord)
	case !r.TestType.Valid():
		return fmt.Errorf("%w: unknown test type %q", ErrInvalidRecord, r.TestType)
	case math.IsNaN(r.RawScore) || r.RawScore < 0 || r.RawScore > 100:
		return fmt.Errorf("%w: raw score must be within [0,100]", ErrInvalidRecord)
	case r.SubmittedAt.IsZero():
		return fmt.Errorf("%w: missing submission time", ErrInvalidRecord)
	}
	return nil
}

// WithNote returns a copy of r with note appended.
func (r AssessmentRecord) WithNote(note string) AssessmentRecord {
	out := r
	out.Notes = append(slices.Clone(r.Notes), note)
	return out
}

// Options tune a single pipeline run.
type Options struct {
	SkipIntegrity       bool `json:"skip_integrity,omitempty"`
	SkipMovement        bool `json:"skip_movement,omitempty"`
	DisableNotification bool `json:"disable_notification,omitempty"`
}

// Submission is everything the pipeline needs to evaluate one assessment.
type Submission struct {
	Athlete Athlete          `json:"athlete"`
	Record  AssessmentRecord `json:"record"`
	Video   Video            `json:"video"`
	Options Options          `json:"options"`
}

// Validate checks the submission and its parts.
func (s Submission) Validate() error {
	if err := s.Athlete.Validate(); err != nil {
		return err
	}
	if err := s.Record.Validate(); err != nil {
		return err
	}
	if s.Record.AthleteID != s.Athlete.ID {
		return fmt.Errorf("%w: record belongs to %q, athlete is %q", ErrInvalidRecord, s.Record.AthleteID, s.Athlete.ID)
	}
	return s.Video.Validate()
}

// Job is the queue payload for an asynchronous run.
type Job struct {
	RunID      string
	Submission Submission
	EnqueuedAt time.Time
}

// HistoryPoint is one prior score of an athlete.
type HistoryPoint struct {
	AssessmentID string    `json:"assessment_id"`
	TestType     TestType  `json:"test_type"`
	Score        float64   `json:"score"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
