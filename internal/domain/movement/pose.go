package movement

import (
	"math"
	"sort"

	"github.com/okian/talentcheck/internal/domain/analyzer"
)

const minKeypointConfidence = 0.5

// Joint is a three-point angle measured at the middle keypoint.
type Joint struct {
	Name   string
	LeftA  string
	LeftB  string
	LeftC  string
	RightA string
	RightB string
	RightC string
}

// Joints measured by the evaluator.
var (
	JointKnee = Joint{"knee",
		analyzer.LeftHip, analyzer.LeftKnee, analyzer.LeftAnkle,
		analyzer.RightHip, analyzer.RightKnee, analyzer.RightAnkle}
	JointElbow = Joint{"elbow",
		analyzer.LeftShoulder, analyzer.LeftElbow, analyzer.LeftWrist,
		analyzer.RightShoulder, analyzer.RightElbow, analyzer.RightWrist}
	JointHip = Joint{"hip",
		analyzer.LeftShoulder, analyzer.LeftHip, analyzer.LeftKnee,
		analyzer.RightShoulder, analyzer.RightHip, analyzer.RightKnee}
)

// JointAngle returns the angle ABC in degrees, in [0,180].
func JointAngle(a, b, c analyzer.Keypoint) float64 {
	ab := math.Atan2(a.Y-b.Y, a.X-b.X)
	cb := math.Atan2(c.Y-b.Y, c.X-b.X)
	deg := math.Abs(ab-cb) * 180 / math.Pi
	if deg > 180 {
		deg = 360 - deg
	}
	return deg
}

func usable(kp analyzer.Keypoint, ok bool) bool {
	return ok && kp.Visible && kp.Confidence >= minKeypointConfidence
}

// angleSeries measures a joint on one side across frames. Frames where any of
// the three keypoints is unusable are skipped.
func angleSeries(poses []analyzer.PoseFrame, a, b, c string) []sample {
	out := make([]sample, 0, len(poses))
	for _, pf := range poses {
		ka, okA := pf.Keypoints[a]
		kb, okB := pf.Keypoints[b]
		kc, okC := pf.Keypoints[c]
		if usable(ka, okA) && usable(kb, okB) && usable(kc, okC) {
			out = append(out, sample{t: pf.Timestamp, v: JointAngle(ka, kb, kc)})
		}
	}
	return out
}

type sample struct{ t, v float64 }

// Visibility is the mean share of usable keypoints per frame, in [0,1].
func Visibility(poses []analyzer.PoseFrame) float64 {
	if len(poses) == 0 {
		return 0
	}
	sum := 0.0
	for _, pf := range poses {
		if len(pf.Keypoints) == 0 {
			continue
		}
		n := 0
		for _, kp := range pf.Keypoints {
			if usable(kp, true) {
				n++
			}
		}
		sum += float64(n) / float64(len(pf.Keypoints))
	}
	return sum / float64(len(poses))
}

// Symmetry scores how closely the left and right series agree: 100 for
// identical sides, minus two points per degree of mean difference. Frames are
// paired by timestamp.
func Symmetry(left, right []sample) float64 {
	rightAt := make(map[float64]float64, len(right))
	for _, s := range right {
		rightAt[s.t] = s.v
	}
	diff, n := 0.0, 0
	for _, s := range left {
		if r, ok := rightAt[s.t]; ok {
			diff += math.Abs(s.v - r)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return clamp(100 - 2*diff/float64(n))
}

// Repetitions counts upward crossings of the mid-range of a series and
// returns their timestamps. A crossing only counts after the series dropped
// below a band around the mid-range, so jitter near it is not double counted.
func Repetitions(series []sample) []float64 {
	if len(series) < 2 {
		return nil
	}
	lo, hi := bounds(series)
	mid := (lo + hi) / 2
	band := (hi - lo) * 0.1
	var starts []float64
	armed := false
	for _, s := range series {
		switch {
		case s.v < mid-band:
			armed = true
		case armed && s.v >= mid+band:
			starts = append(starts, s.t)
			armed = false
		}
	}
	return starts
}

// RangeOfMotion is the spread between the 5th and 95th percentile of a
// series, in degrees.
func RangeOfMotion(series []sample) float64 {
	if len(series) < 2 {
		return 0
	}
	vs := make([]float64, len(series))
	for i, s := range series {
		vs[i] = s.v
	}
	sort.Float64s(vs)
	at := func(q float64) float64 { return vs[int(math.Round(q*float64(len(vs)-1)))] }
	return at(0.95) - at(0.05)
}

// Pacing scores the regularity of repetition intervals as 100 minus the
// coefficient of variation in percent. Fewer than two intervals give 50.
func Pacing(starts []float64) float64 {
	if len(starts) < 3 {
		if len(starts) == 0 {
			return 0
		}
		return 50
	}
	intervals := make([]float64, len(starts)-1)
	for i := 1; i < len(starts); i++ {
		intervals[i-1] = starts[i] - starts[i-1]
	}
	mean, sd := meanStd(intervals)
	if mean <= 0 {
		return 0
	}
	return clamp(100 - 100*sd/mean)
}

// Smoothness compares angular jerk with angular velocity. A clean oscillation
// has jerk far below velocity; jitter drives the ratio up.
func Smoothness(series []sample) float64 {
	if len(series) < 4 {
		return 0
	}
	vel, jerk := 0.0, 0.0
	for i := 3; i < len(series); i++ {
		v0, v1, v2, v3 := series[i-3].v, series[i-2].v, series[i-1].v, series[i].v
		vel += math.Abs(v3 - v2)
		jerk += math.Abs(v3 - 3*v2 + 3*v1 - v0)
	}
	if vel == 0 {
		return 0
	}
	return clamp(100 * (1 - jerk/(4*vel)))
}

// RepetitionAccuracy is the share, in percent, of repetitions whose own
// amplitude reaches 70% of the full range.
func RepetitionAccuracy(series []sample, starts []float64) float64 {
	if len(starts) < 2 {
		if len(starts) == 1 {
			return 50
		}
		return 0
	}
	lo, hi := bounds(series)
	full := hi - lo
	if full <= 0 {
		return 0
	}
	good := 0
	for i := 1; i < len(starts); i++ {
		segLo, segHi := math.Inf(1), math.Inf(-1)
		for _, s := range series {
			if s.t >= starts[i-1] && s.t < starts[i] {
				segLo = math.Min(segLo, s.v)
				segHi = math.Max(segHi, s.v)
			}
		}
		if segHi-segLo >= 0.7*full {
			good++
		}
	}
	return 100 * float64(good) / float64(len(starts)-1)
}

func bounds(series []sample) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		lo = math.Min(lo, s.v)
		hi = math.Max(hi, s.v)
	}
	return lo, hi
}

func meanStd(xs []float64) (mean, sd float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		sd += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sd / float64(len(xs)))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
