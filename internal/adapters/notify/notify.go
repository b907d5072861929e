// Package notify delivers recruitment notifications for standout assessments.
package notify

import (
	"context"
	"time"

	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/feedback"
	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/pkg/logger"
)

// Notification is the payload sent when an assessment clears the
// recruitment quorum.
type Notification struct {
	AssessmentID string              `json:"assessment_id"`
	AthleteID    string              `json:"athlete_id"`
	TestType     model.TestType      `json:"test_type"`
	Status       feedback.Status     `json:"status"`
	Score        float64             `json:"composite_score"`
	Percentile   float64             `json:"percentile"`
	Tier         benchmark.Tier      `json:"tier"`
	Confidence   feedback.Confidence `json:"confidence"`
	Conditions   int                 `json:"conditions_met"`
	SentAt       time.Time           `json:"sent_at"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. It is used when no endpoint
// is configured.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Nop()
	}
	return &LogNotifier{logger: l}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, note Notification) error {
	n.logger.Info(ctx, "recruitment notification",
		logger.String("assessment_id", note.AssessmentID),
		logger.String("athlete_id", note.AthleteID),
		logger.String("test_type", string(note.TestType)),
		logger.Float64("score", note.Score),
		logger.Float64("percentile", note.Percentile),
		logger.Int("conditions_met", note.Conditions),
	)
	return nil
}
