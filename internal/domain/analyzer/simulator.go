package analyzer

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/pkg/logger"
)

const (
	defaultMinLatency = 20 * time.Millisecond
	defaultMaxLatency = 60 * time.Millisecond
	defaultSampleRate = 15.0
	defaultMaxFrames  = 600

	segmentLength = 0.12
)

// Simulator is a deterministic PoseAnalyzer and integrity signal source.
// Every output is derived from an FNV hash of the video id, so the same video
// always yields the same frames, poses and evidence.
type Simulator struct {
	minLatency time.Duration
	maxLatency time.Duration
	sampleRate float64
	maxFrames  int
	logger     logger.Logger
}

// NewSimulator creates a simulator with configuration options.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		sampleRate: defaultSampleRate,
		maxFrames:  defaultMaxFrames,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// profile is the athlete "character" a video id hashes to.
type profile struct {
	seed    uint64
	skill   float64 // [0.4,1]
	freq    float64 // repetitions per second
	asym    float64 // degrees of left/right difference
	noise   float64 // degrees of jitter
	dropout float64 // chance a keypoint is hidden
}

func profileFor(videoID string) profile {
	h := fnv.New64a()
	_, _ = h.Write([]byte(videoID))
	seed := h.Sum64()
	r := rand.New(rand.NewPCG(seed, 0)) //nolint:gosec // simulation, not security
	skill := 0.4 + 0.6*r.Float64()
	return profile{
		seed:    seed,
		skill:   skill,
		freq:    0.4 + 0.5*r.Float64(),
		asym:    (1 - skill) * 25 * r.Float64(),
		noise:   0.5 + (1-skill)*5,
		dropout: (1 - skill) * 0.15,
	}
}

func (p profile) rng(salt uint64) *rand.Rand {
	return rand.New(rand.NewPCG(p.seed, salt)) //nolint:gosec // simulation, not security
}

// wait simulates model latency, honoring ctx.
func (s *Simulator) wait(ctx context.Context, seed uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if s.maxLatency <= 0 {
		return nil
	}
	d := s.minLatency
	if span := s.maxLatency - s.minLatency; span > 0 {
		d += time.Duration(seed % uint64(span))
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

// Extract samples frames at the configured rate, capped at maxFrames.
func (s *Simulator) Extract(ctx context.Context, v model.Video) ([]Frame, error) {
	if v.DurationSec <= 0 || v.FrameRate <= 0 {
		return nil, fmt.Errorf("%w: video %q has no playable content", ErrNoFrames, v.ID)
	}
	p := profileFor(v.ID)
	if err := s.wait(ctx, p.seed); err != nil {
		return nil, err
	}

	rate := math.Min(v.FrameRate, s.sampleRate)
	n := min(int(v.DurationSec*rate), s.maxFrames)
	if n == 0 {
		return nil, fmt.Errorf("%w: video %q is too short", ErrNoFrames, v.ID)
	}

	r := p.rng(1)
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{
			VideoID:    v.ID,
			Index:      i,
			Timestamp:  float64(i) / rate,
			Brightness: clamp01(0.5 + 0.4*p.skill + 0.05*r.NormFloat64()),
			Sharpness:  clamp01(0.4 + 0.5*p.skill + 0.05*r.NormFloat64()),
		}
	}
	s.logger.Debug(ctx, "frames extracted",
		logger.String("video_id", v.ID),
		logger.Int("frames", n),
	)
	return frames, nil
}

// Joint motion shared by every exercise: each joint oscillates around its
// centre with the profile's repetition frequency.
var jointMotion = struct{ kneeC, kneeA, elbowC, elbowA, hipC, hipA float64 }{
	kneeC: 130, kneeA: 40,
	elbowC: 125, elbowA: 45,
	hipC: 130, hipA: 35,
}

// DetectPose builds a skeleton per frame from the simulated joint angles.
func (s *Simulator) DetectPose(ctx context.Context, frames []Frame) ([]PoseFrame, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	p := profileFor(frames[0].VideoID)
	if err := s.wait(ctx, p.seed>>8); err != nil {
		return nil, err
	}

	r := p.rng(2)
	poses := make([]PoseFrame, len(frames))
	for i, f := range frames {
		wave := math.Sin(2 * math.Pi * p.freq * f.Timestamp)
		kps := map[string]Keypoint{
			Nose: p.keypoint(r, f, 0.5, 0.2),
		}
		for _, side := range []struct {
			x                      float64
			shoulder, elbow, wrist string
			hip, knee, ankle       string
			shift, scale           float64
		}{
			{0.45, LeftShoulder, LeftElbow, LeftWrist, LeftHip, LeftKnee, LeftAnkle, 0, 1},
			{0.55, RightShoulder, RightElbow, RightWrist, RightHip, RightKnee, RightAnkle, p.asym / 2, 1 - p.asym/100},
		} {
			angle := func(centre, amp float64) float64 {
				return centre + side.shift + amp*side.scale*wave + p.noise*r.NormFloat64()
			}
			shoulder := point{side.x, 0.3}
			hip := point{side.x, 0.5}
			knee := hip.add(rotate(point{0, -1}, angle(jointMotion.hipC, jointMotion.hipA)).scale(segmentLength))
			ankle := knee.add(rotate(hip.sub(knee).unit(), angle(jointMotion.kneeC, jointMotion.kneeA)).scale(segmentLength))
			elbow := shoulder.add(point{0, segmentLength})
			wrist := elbow.add(rotate(shoulder.sub(elbow).unit(), angle(jointMotion.elbowC, jointMotion.elbowA)).scale(segmentLength))

			kps[side.shoulder] = p.keypoint(r, f, shoulder.x, shoulder.y)
			kps[side.elbow] = p.keypoint(r, f, elbow.x, elbow.y)
			kps[side.wrist] = p.keypoint(r, f, wrist.x, wrist.y)
			kps[side.hip] = p.keypoint(r, f, hip.x, hip.y)
			kps[side.knee] = p.keypoint(r, f, knee.x, knee.y)
			kps[side.ankle] = p.keypoint(r, f, ankle.x, ankle.y)
		}
		poses[i] = PoseFrame{Index: f.Index, Timestamp: f.Timestamp, Keypoints: kps}
	}
	return poses, nil
}

func (p profile) keypoint(r *rand.Rand, f Frame, x, y float64) Keypoint {
	visible := r.Float64() >= p.dropout
	conf := clamp01(0.55 + 0.4*p.skill*f.Sharpness/0.9 + 0.03*r.NormFloat64())
	if !visible {
		conf *= 0.3
	}
	return Keypoint{X: x, Y: y, Confidence: conf, Visible: visible}
}

// Recognize scores how confidently the poses show the expected exercise. The
// simulator never confuses exercises; confidence follows keypoint quality.
func (s *Simulator) Recognize(_ context.Context, poses []PoseFrame, expected model.TestType) (Recognition, error) {
	if len(poses) == 0 {
		return Recognition{}, ErrNoPoses
	}
	if !expected.Valid() {
		return Recognition{}, nil
	}
	// hidden keypoints contribute nothing, so poor visibility lowers confidence
	total, conf := 0, 0.0
	for _, pf := range poses {
		for _, kp := range pf.Keypoints {
			total++
			if kp.Visible {
				conf += kp.Confidence
			}
		}
	}
	if conf == 0 {
		return Recognition{TestType: expected}, nil
	}
	c := conf/float64(total) + 0.05
	return Recognition{TestType: expected, Confidence: math.Round(clamp01(c)*100) / 100}, nil
}

type point struct{ x, y float64 }

func (a point) add(b point) point     { return point{a.x + b.x, a.y + b.y} }
func (a point) sub(b point) point     { return point{a.x - b.x, a.y - b.y} }
func (a point) scale(k float64) point { return point{a.x * k, a.y * k} }
func (a point) unit() point {
	n := math.Hypot(a.x, a.y)
	if n == 0 {
		return point{}
	}
	return point{a.x / n, a.y / n}
}

// rotate turns v by deg degrees.
func rotate(v point, deg float64) point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return point{v.x*cos - v.y*sin, v.x*sin + v.y*cos}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
