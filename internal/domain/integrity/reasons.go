package integrity

// flagRule turns a condition on the evidence into a reviewer-facing reason and
// an athlete-facing suggestion.
type flagRule struct {
	kind       Kind
	when       func(Evidence, map[Kind]float64) bool
	reason     string
	suggestion string
}

// flagRules are evaluated in order; every matching rule contributes.
var flagRules = []flagRule{
	{
		kind:       KindTampering,
		when:       func(ev Evidence, _ map[Kind]float64) bool { return ev.Tampering.Detected },
		reason:     "video tampering indicators detected",
		suggestion: "Upload the original, unedited recording",
	},
	{
		kind:       KindTampering,
		when:       func(_ Evidence, s map[Kind]float64) bool { return s[KindTampering] < 70 },
		reason:     "video file integrity is questionable",
		suggestion: "Upload the original, unedited recording",
	},
	{
		kind:       KindMovement,
		when:       func(_ Evidence, s map[Kind]float64) bool { return s[KindMovement] < 70 },
		reason:     "exercise not performed correctly",
		suggestion: "Follow the test protocol and complete every repetition",
	},
	{
		kind:       KindMovement,
		when:       func(ev Evidence, _ map[Kind]float64) bool { return ev.Movement.RangeOfMotion < 60 },
		reason:     "incomplete range of motion",
		suggestion: "Use the full range of motion on each repetition",
	},
	{
		kind:       KindEnvironment,
		when:       func(ev Evidence, _ map[Kind]float64) bool { return ev.Environment.Lighting < 60 },
		reason:     "poor lighting",
		suggestion: "Record in a well-lit area",
	},
	{
		kind:       KindEnvironment,
		when:       func(ev Evidence, _ map[Kind]float64) bool { return ev.Environment.CameraStability < 60 },
		reason:     "camera is unstable",
		suggestion: "Place the camera on a stable surface",
	},
	{
		kind:       KindEnvironment,
		when:       func(_ Evidence, s map[Kind]float64) bool { return s[KindEnvironment] < 60 },
		reason:     "recording environment is unsuitable",
		suggestion: "Record against a plain background with the whole body in frame",
	},
	{
		kind:       KindBiometric,
		when:       func(ev Evidence, _ map[Kind]float64) bool { return ev.Biometric.MultiplePersons },
		reason:     "multiple persons detected in frame",
		suggestion: "Make sure only the athlete is visible while recording",
	},
	{
		kind:       KindBiometric,
		when:       func(ev Evidence, _ map[Kind]float64) bool { return ev.Biometric.IdentityMatch < 70 },
		reason:     "athlete identity could not be confirmed",
		suggestion: "Keep the face visible at the start of the recording",
	},
	{
		kind:       KindTemporal,
		when:       func(_ Evidence, s map[Kind]float64) bool { return s[KindTemporal] < 70 },
		reason:     "timestamps or frame timing are inconsistent",
		suggestion: "Upload the complete recording without trimming",
	},
	{
		kind:       KindTemporal,
		when:       func(ev Evidence, _ map[Kind]float64) bool { return ev.Temporal.DurationPlausibility < 60 },
		reason:     "video duration is implausible for this test",
		suggestion: "Record the whole test from start to finish",
	},
}

// flag collects reasons and de-duplicated suggestions in rule order.
func flag(ev Evidence, scores map[Kind]float64) (reasons, suggestions []string) {
	seen := make(map[string]bool)
	for _, r := range flagRules {
		if !r.when(ev, scores) {
			continue
		}
		reasons = append(reasons, r.reason)
		if !seen[r.suggestion] {
			seen[r.suggestion] = true
			suggestions = append(suggestions, r.suggestion)
		}
	}
	return reasons, suggestions
}
