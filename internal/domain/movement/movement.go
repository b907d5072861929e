// Package movement scores exercise compliance and technique from pose
// frames.
package movement

import (
	"context"
	"fmt"

	"github.com/okian/talentcheck/internal/domain/analyzer"
	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/pkg/logger"
)

// Severity of a form issue.
type Severity string

// Severities and the score each costs.
const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

var penalty = map[Severity]float64{
	SeverityCritical: 20,
	SeverityMajor:    10,
	SeverityMinor:    5,
}

const (
	minVisibility      = 0.7
	minRecognition     = 0.5
	validRangeScore    = 50
	technicalFormW     = 0.5
	technicalConsistW  = 0.3
	technicalEfficient = 0.2
)

// FormIssue is one detected technique fault.
type FormIssue struct {
	Code        string   `json:"code"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Correction  string   `json:"correction"`
}

// Compliance reports whether the recorded exercise is the requested one.
type Compliance struct {
	Detected   model.TestType `json:"detected"`
	Confidence float64        `json:"confidence"`
	Matches    bool           `json:"matches"`
	Score      float64        `json:"score"`
}

// Biomechanics summarizes the pose measurements.
type Biomechanics struct {
	Valid         bool    `json:"valid"`
	Visibility    float64 `json:"visibility"`
	Quality       float64 `json:"quality"`
	Joint         string  `json:"joint"`
	RangeDegrees  float64 `json:"range_degrees"`
	ExpectedRange float64 `json:"expected_range"`
}

// Quality holds the movement sub-scores, each in [0,100].
type Quality struct {
	RangeOfMotion      float64 `json:"range_of_motion"`
	Symmetry           float64 `json:"symmetry"`
	Pacing             float64 `json:"pacing"`
	Smoothness         float64 `json:"smoothness"`
	RepetitionAccuracy float64 `json:"repetition_accuracy"`
	Repetitions        int     `json:"repetitions"`
}

// TechnicalScore is the weighted technique score.
type TechnicalScore struct {
	Overall     float64 `json:"overall"`
	Form        float64 `json:"form"`
	Consistency float64 `json:"consistency"`
	Efficiency  float64 `json:"efficiency"`
}

// Result is the movement verdict for one video.
type Result struct {
	TestType     model.TestType `json:"test_type"`
	Compliance   Compliance     `json:"compliance"`
	Biomechanics Biomechanics   `json:"biomechanics"`
	Quality      Quality        `json:"quality"`
	FormIssues   []FormIssue    `json:"form_issues,omitempty"`
	Technical    TechnicalScore `json:"technical"`
}

// protocol is how a test is measured.
type protocol struct {
	joint         Joint
	expectedRange float64
}

var protocols = map[model.TestType]protocol{
	model.TestVerticalJump: {JointKnee, 60},
	model.TestBroadJump:    {JointKnee, 60},
	model.TestSitUps:       {JointHip, 50},
	model.TestPushUps:      {JointElbow, 70},
	model.TestShuttleRun:   {JointKnee, 50},
	model.TestSprint30m:    {JointKnee, 50},
	model.TestEnduranceRun: {JointKnee, 50},
	model.TestFlexibility:  {JointHip, 40},
}

// Evaluator runs the pose analyzer and scores the result.
type Evaluator struct {
	analyzer analyzer.PoseAnalyzer
	logger   logger.Logger
}

// NewEvaluator creates a movement evaluator.
func NewEvaluator(a analyzer.PoseAnalyzer, opts ...Option) *Evaluator {
	e := &Evaluator{analyzer: a, logger: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate extracts poses from the video and scores them for testType.
func (e *Evaluator) Evaluate(ctx context.Context, v model.Video, testType model.TestType) (Result, error) {
	frames, err := e.analyzer.Extract(ctx, v)
	if err != nil {
		return Result{}, fmt.Errorf("%w: extract: %w", ErrAnalyzer, err)
	}
	poses, err := e.analyzer.DetectPose(ctx, frames)
	if err != nil {
		return Result{}, fmt.Errorf("%w: detect pose: %w", ErrAnalyzer, err)
	}
	rec, err := e.analyzer.Recognize(ctx, poses, testType)
	if err != nil {
		return Result{}, fmt.Errorf("%w: recognize: %w", ErrAnalyzer, err)
	}

	res := Assess(testType, poses, rec)
	e.logger.Debug(ctx, "movement evaluated",
		logger.String("video_id", v.ID),
		logger.String("test_type", string(testType)),
		logger.Int("repetitions", res.Quality.Repetitions),
		logger.Int("form_issues", len(res.FormIssues)),
		logger.Float64("technical", res.Technical.Overall),
	)
	return res, nil
}

// Assess scores poses already extracted. It is pure.
func Assess(testType model.TestType, poses []analyzer.PoseFrame, rec analyzer.Recognition) Result {
	proto, ok := protocols[testType]
	if !ok {
		proto = protocol{JointKnee, 50}
	}

	j := proto.joint
	left := angleSeries(poses, j.LeftA, j.LeftB, j.LeftC)
	right := angleSeries(poses, j.RightA, j.RightB, j.RightC)
	primary := left
	if len(right) > len(left) {
		primary = right
	}

	rom := RangeOfMotion(primary)
	starts := Repetitions(primary)
	q := Quality{
		RangeOfMotion:      round1(clamp(100 * rom / proto.expectedRange)),
		Symmetry:           round1(Symmetry(left, right)),
		Pacing:             round1(Pacing(starts)),
		Smoothness:         round1(Smoothness(primary)),
		RepetitionAccuracy: round1(RepetitionAccuracy(primary, starts)),
		Repetitions:        len(starts),
	}

	visibility := Visibility(poses)
	bio := Biomechanics{
		Visibility:    round1(visibility*100) / 100,
		Quality:       round1((q.RangeOfMotion + q.Symmetry + clamp(visibility*100)) / 3),
		Joint:         j.Name,
		RangeDegrees:  round1(rom),
		ExpectedRange: proto.expectedRange,
	}
	bio.Valid = visibility >= minVisibility && q.Repetitions > 0 && q.RangeOfMotion >= validRangeScore

	comp := Compliance{
		Detected:   rec.TestType,
		Confidence: rec.Confidence,
		Matches:    rec.TestType == testType && rec.Confidence >= minRecognition,
	}
	if comp.Matches {
		comp.Score = clamp(rec.Confidence * 100)
		if q.Repetitions == 0 {
			comp.Score /= 2
		}
		comp.Score = round1(comp.Score)
	}

	issues := formIssues(visibility, comp, q, len(starts))
	return Result{
		TestType:     testType,
		Compliance:   comp,
		Biomechanics: bio,
		Quality:      q,
		FormIssues:   issues,
		Technical:    Technical(issues, bio.Quality, q),
	}
}

// Technical combines form, consistency and efficiency:
// overall = 0.5*form + 0.3*consistency + 0.2*efficiency.
func Technical(issues []FormIssue, bioQuality float64, q Quality) TechnicalScore {
	form := 100.0
	for _, is := range issues {
		form -= penalty[is.Severity]
	}
	form = clamp((clamp(form) + clamp(bioQuality)) / 2)
	consistency := clamp((q.Pacing + q.Symmetry) / 2)
	efficiency := clamp((q.Smoothness + q.RepetitionAccuracy) / 2)
	overall := clamp(technicalFormW*form + technicalConsistW*consistency + technicalEfficient*efficiency)
	return TechnicalScore{
		Overall:     round1(overall),
		Form:        round1(form),
		Consistency: round1(consistency),
		Efficiency:  round1(efficiency),
	}
}

func formIssues(visibility float64, comp Compliance, q Quality, reps int) []FormIssue {
	var out []FormIssue
	add := func(code string, sev Severity, desc, fix string) {
		out = append(out, FormIssue{Code: code, Severity: sev, Description: desc, Correction: fix})
	}

	if visibility < minVisibility {
		add("body_not_visible", SeverityCritical,
			"body is not fully visible", "Keep the whole body inside the frame")
	}
	if !comp.Matches {
		add("exercise_mismatch", SeverityCritical,
			"movement does not match the selected test", "Perform the exercise described in the test protocol")
	}
	if reps == 0 {
		add("no_repetitions", SeverityCritical,
			"no complete repetition detected", "Perform complete repetitions at a steady rhythm")
	}
	switch {
	case q.RangeOfMotion < 70:
		add("limited_range", SeverityMajor,
			"incomplete range of motion", "Move through the full range on every repetition")
	case q.RangeOfMotion < 85:
		add("short_range", SeverityMinor,
			"range of motion slightly limited", "Extend a little further at the end of each repetition")
	}
	switch {
	case q.Symmetry < 70:
		add("asymmetry", SeverityMajor,
			"significant left/right imbalance", "Work both sides evenly and check alignment in a mirror")
	case q.Symmetry < 85:
		add("slight_asymmetry", SeverityMinor,
			"slight left/right imbalance", "Focus on even weight distribution")
	}
	if reps >= 3 && q.Pacing < 60 {
		add("irregular_pacing", SeverityMinor,
			"repetition pace is irregular", "Keep a steady tempo throughout the set")
	}
	if q.Smoothness < 60 {
		add("jerky_movement", SeverityMinor,
			"movement is jerky", "Slow down and control each phase of the movement")
	}
	return out
}
