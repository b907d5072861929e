// Package loadgen drives a running service over HTTP: it generates
// assessments, submits them concurrently, follows their progress and
// summarizes the verdicts.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Assessments  int           // Number of assessments to generate
	Athletes     int           // Distinct athletes the assessments are spread over
	Workers      int           // Concurrent submitters and pollers
	RatePerSec   float64       // Submission rate limit; 0 disables it
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between progress polls of one assessment
	PollTimeout  time.Duration // Give up on an assessment after this long
	Seed         uint64        // Seed for scores and test types; 0 picks one
	OutputFile   string        // Optional JSON dump of the generated submissions
	Verbose      bool
}

func (c *Config) withDefaults() {
	if c.Assessments < 1 {
		c.Assessments = 1
	}
	if c.Athletes < 1 {
		c.Athletes = max(1, c.Assessments/4)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 2 * time.Minute
	}
}

// Outcome of one submission attempt.
type Outcome string

// Outcomes.
const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeThrottled Outcome = "throttled"
	OutcomeFailed    Outcome = "failed"
)

// Stats holds load run statistics.
type Stats struct {
	Generated int
	Submitted map[Outcome]int

	// Finished counts assessments whose progress reached a terminal stage;
	// TimedOut the ones that did not within PollTimeout.
	Finished int
	TimedOut int

	// Verdicts counts composite statuses of the fetched results, keyed by
	// status; "none" marks results without a verdict.
	Verdicts map[string]int
	Eligible int

	StartTime time.Time
	Duration  time.Duration
}

func newStats() *Stats {
	return &Stats{
		Submitted: map[Outcome]int{},
		Verdicts:  map[string]int{},
		StartTime: time.Now(),
	}
}

// SubmitResponse mirrors the body of POST /assessments.
type SubmitResponse struct {
	Status       string `json:"status"`
	RunID        string `json:"run_id"`
	AssessmentID string `json:"assessment_id"`
	Duplicate    bool   `json:"duplicate"`
}

// ProgressResponse mirrors the body of GET /assessments/{id}/progress.
type ProgressResponse struct {
	RunID   string `json:"run_id"`
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Done reports whether the run reached a terminal stage.
func (p ProgressResponse) Done() bool { return p.Stage == "complete" || p.Stage == "error" }

// VerdictResponse is the subset of a stored result the summary needs.
type VerdictResponse struct {
	RunID   string `json:"run_id"`
	Verdict *struct {
		Status string  `json:"status"`
		Score  float64 `json:"score"`
	} `json:"verdict"`
	Quorum struct {
		Conditions int  `json:"conditions_met"`
		Eligible   bool `json:"eligible"`
	} `json:"quorum"`
}
