package analyzer

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/model"
)

var _ integrity.SignalSource = (*Simulator)(nil)

// Salts keep each sub-analysis on its own random stream.
const (
	saltTampering uint64 = 11 + iota
	saltMovement
	saltEnvironment
	saltBiometric
	saltTemporal
)

// plausibleDuration is the recording length range, in seconds, a test is
// expected to take.
var plausibleDuration = map[model.TestType][2]float64{
	model.TestVerticalJump: {3, 120},
	model.TestSitUps:       {20, 180},
	model.TestShuttleRun:   {10, 180},
	model.TestEnduranceRun: {120, 1800},
	model.TestPushUps:      {15, 180},
	model.TestSprint30m:    {3, 60},
	model.TestBroadJump:    {3, 120},
	model.TestFlexibility:  {5, 120},
}

const minResubmitGap = time.Minute

func (s *Simulator) metric(r *rand.Rand, p profile) float64 {
	return clamp100(55 + 45*p.skill + 6*r.NormFloat64())
}

func (s *Simulator) Tampering(ctx context.Context, sub integrity.Subject) (integrity.TamperingEvidence, error) {
	p := profileFor(sub.Video.ID)
	if err := s.wait(ctx, p.seed^saltTampering); err != nil {
		return integrity.TamperingEvidence{}, err
	}
	r := p.rng(saltTampering)
	ev := integrity.TamperingEvidence{
		FrameConsistency:      s.metric(r, p),
		CompressionUniformity: s.metric(r, p),
		MetadataIntegrity:     s.metric(r, p),
		SpliceFree:            s.metric(r, p),
		Detected:              p.seed%25 == 7,
	}
	if ev.Detected {
		ev.SpliceFree = 30
		ev.FrameConsistency = clamp100(ev.FrameConsistency - 25)
	}
	return ev, nil
}

func (s *Simulator) Movement(ctx context.Context, sub integrity.Subject) (integrity.MovementEvidence, error) {
	p := profileFor(sub.Video.ID)
	if err := s.wait(ctx, p.seed^saltMovement); err != nil {
		return integrity.MovementEvidence{}, err
	}
	r := p.rng(saltMovement)
	return integrity.MovementEvidence{
		ExerciseMatch:      s.metric(r, p),
		RangeOfMotion:      s.metric(r, p),
		RepetitionValidity: s.metric(r, p),
		PostureStability:   s.metric(r, p),
	}, nil
}

func (s *Simulator) Environment(ctx context.Context, sub integrity.Subject) (integrity.EnvironmentEvidence, error) {
	p := profileFor(sub.Video.ID)
	if err := s.wait(ctx, p.seed^saltEnvironment); err != nil {
		return integrity.EnvironmentEvidence{}, err
	}
	r := p.rng(saltEnvironment)
	ev := integrity.EnvironmentEvidence{
		Lighting:          s.metric(r, p),
		CameraStability:   s.metric(r, p),
		BackgroundClarity: s.metric(r, p),
	}
	if sub.Video.Width*sub.Video.Height < 640*480 {
		ev.BackgroundClarity = clamp100(ev.BackgroundClarity - 20)
	}
	return ev, nil
}

func (s *Simulator) Biometric(ctx context.Context, sub integrity.Subject) (integrity.BiometricEvidence, error) {
	p := profileFor(sub.Video.ID)
	if err := s.wait(ctx, p.seed^saltBiometric); err != nil {
		return integrity.BiometricEvidence{}, err
	}
	r := p.rng(saltBiometric)
	ev := integrity.BiometricEvidence{
		FaceConsistency: s.metric(r, p),
		BodyProportion:  s.metric(r, p),
		IdentityMatch:   s.metric(r, p),
		MultiplePersons: p.seed%30 == 11,
	}
	if ev.MultiplePersons {
		ev.FaceConsistency = clamp100(ev.FaceConsistency - 20)
	}
	return ev, nil
}

// Temporal checks the recording against the submission: recorded after it
// was submitted, resubmitted too quickly, or a length the test cannot take.
func (s *Simulator) Temporal(ctx context.Context, sub integrity.Subject) (integrity.TemporalEvidence, error) {
	p := profileFor(sub.Video.ID)
	if err := s.wait(ctx, p.seed^saltTemporal); err != nil {
		return integrity.TemporalEvidence{}, err
	}
	r := p.rng(saltTemporal)
	ev := integrity.TemporalEvidence{
		TimestampConsistency: s.metric(r, p),
		FrameRateStability:   s.metric(r, p),
		DurationPlausibility: 95,
	}

	rec := sub.Record
	if !sub.Video.RecordedAt.IsZero() && sub.Video.RecordedAt.After(rec.SubmittedAt) {
		ev.TimestampConsistency = 20
	}
	for _, h := range sub.History {
		if h.AssessmentID == rec.ID || h.TestType != rec.TestType {
			continue
		}
		if gap := rec.SubmittedAt.Sub(h.SubmittedAt); gap >= 0 && gap < minResubmitGap {
			ev.TimestampConsistency = clamp100(ev.TimestampConsistency - 30)
			break
		}
	}

	if fr := sub.Video.FrameRate; fr < 24 || fr > 240 {
		ev.FrameRateStability = 40
	}
	if bounds, ok := plausibleDuration[rec.TestType]; ok {
		if d := sub.Video.DurationSec; d < bounds[0] || d > bounds[1] {
			ev.DurationPlausibility = 40
		}
	}
	return ev, nil
}

func clamp100(v float64) float64 {
	return math.Round(math.Max(0, math.Min(100, v))*10) / 10
}
