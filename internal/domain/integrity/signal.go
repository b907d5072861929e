package integrity

import (
	"context"
	"math"

	"github.com/okian/talentcheck/internal/domain/model"
)

// Kind names one of the five integrity sub-analyses.
type Kind string

// Signal kinds in evaluation order.
const (
	KindTampering   Kind = "tampering"
	KindMovement    Kind = "movement"
	KindEnvironment Kind = "environment"
	KindBiometric   Kind = "biometric"
	KindTemporal    Kind = "temporal"
)

// Kinds lists the signal kinds in evaluation order.
var Kinds = []Kind{KindTampering, KindMovement, KindEnvironment, KindBiometric, KindTemporal}

// Subject is the submission under review.
type Subject struct {
	Video   model.Video
	Record  model.AssessmentRecord
	Athlete model.Athlete
	// History holds the athlete's prior submissions, if any.
	History []model.HistoryPoint
}

// TamperingEvidence reports signs of editing. Metrics are in [0,100], higher
// is more trustworthy.
type TamperingEvidence struct {
	FrameConsistency      float64 `json:"frame_consistency"`
	CompressionUniformity float64 `json:"compression_uniformity"`
	MetadataIntegrity     float64 `json:"metadata_integrity"`
	SpliceFree            float64 `json:"splice_free"`
	Detected              bool    `json:"detected"`
}

// MovementEvidence reports whether the recorded movement matches the test.
type MovementEvidence struct {
	ExerciseMatch      float64 `json:"exercise_match"`
	RangeOfMotion      float64 `json:"range_of_motion"`
	RepetitionValidity float64 `json:"repetition_validity"`
	PostureStability   float64 `json:"posture_stability"`
}

// EnvironmentEvidence reports recording conditions.
type EnvironmentEvidence struct {
	Lighting          float64 `json:"lighting"`
	CameraStability   float64 `json:"camera_stability"`
	BackgroundClarity float64 `json:"background_clarity"`
}

// BiometricEvidence reports whether the person in the video is the athlete.
type BiometricEvidence struct {
	FaceConsistency float64 `json:"face_consistency"`
	BodyProportion  float64 `json:"body_proportion"`
	IdentityMatch   float64 `json:"identity_match"`
	MultiplePersons bool    `json:"multiple_persons"`
}

// TemporalEvidence reports timing plausibility.
type TemporalEvidence struct {
	TimestampConsistency float64 `json:"timestamp_consistency"`
	FrameRateStability   float64 `json:"frame_rate_stability"`
	DurationPlausibility float64 `json:"duration_plausibility"`
}

// Evidence bundles the output of all five sub-analyses.
type Evidence struct {
	Tampering   TamperingEvidence   `json:"tampering"`
	Movement    MovementEvidence    `json:"movement"`
	Environment EnvironmentEvidence `json:"environment"`
	Biometric   BiometricEvidence   `json:"biometric"`
	Temporal    TemporalEvidence    `json:"temporal"`
}

// SignalSource produces the raw evidence of each sub-analysis. Implementations
// must be deterministic for identical subjects and safe for concurrent use.
type SignalSource interface {
	Tampering(ctx context.Context, s Subject) (TamperingEvidence, error)
	Movement(ctx context.Context, s Subject) (MovementEvidence, error)
	Environment(ctx context.Context, s Subject) (EnvironmentEvidence, error)
	Biometric(ctx context.Context, s Subject) (BiometricEvidence, error)
	Temporal(ctx context.Context, s Subject) (TemporalEvidence, error)
}

// Signal is one scored sub-analysis.
type Signal struct {
	Kind    Kind               `json:"kind"`
	Score   float64            `json:"score"`
	Metrics map[string]float64 `json:"metrics"`
}

func (ev Evidence) signals() []Signal {
	return []Signal{
		newSignal(KindTampering, map[string]float64{
			"frame_consistency":      ev.Tampering.FrameConsistency,
			"compression_uniformity": ev.Tampering.CompressionUniformity,
			"metadata_integrity":     ev.Tampering.MetadataIntegrity,
			"splice_free":            ev.Tampering.SpliceFree,
		}),
		newSignal(KindMovement, map[string]float64{
			"exercise_match":      ev.Movement.ExerciseMatch,
			"range_of_motion":     ev.Movement.RangeOfMotion,
			"repetition_validity": ev.Movement.RepetitionValidity,
			"posture_stability":   ev.Movement.PostureStability,
		}),
		newSignal(KindEnvironment, map[string]float64{
			"lighting":           ev.Environment.Lighting,
			"camera_stability":   ev.Environment.CameraStability,
			"background_clarity": ev.Environment.BackgroundClarity,
		}),
		newSignal(KindBiometric, map[string]float64{
			"face_consistency": ev.Biometric.FaceConsistency,
			"body_proportion":  ev.Biometric.BodyProportion,
			"identity_match":   ev.Biometric.IdentityMatch,
		}),
		newSignal(KindTemporal, map[string]float64{
			"timestamp_consistency": ev.Temporal.TimestampConsistency,
			"frame_rate_stability":  ev.Temporal.FrameRateStability,
			"duration_plausibility": ev.Temporal.DurationPlausibility,
		}),
	}
}

// newSignal scores a sub-analysis as the mean of its clamped metrics. Score
// is rounded for display; thresholds are applied to mean.
func newSignal(kind Kind, metrics map[string]float64) Signal {
	for k, v := range metrics {
		metrics[k] = clamp(v)
	}
	sig := Signal{Kind: kind, Metrics: metrics}
	sig.Score = round1(sig.mean())
	return sig
}

// mean is the unrounded sub-score.
func (s Signal) mean() float64 {
	if len(s.Metrics) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Metrics {
		sum += v
	}
	return settle(sum / float64(len(s.Metrics)))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

// settle drops float noise below 1e-9 so exact boundaries compare as written.
func settle(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
