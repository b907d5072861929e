// Package pipeline runs one assessment through integrity, movement and
// performance analysis, synthesizes the composite verdict, persists it and
// notifies scouts about standout results.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/talentcheck/internal/adapters/consent"
	"github.com/okian/talentcheck/internal/adapters/notify"
	"github.com/okian/talentcheck/internal/adapters/progress"
	"github.com/okian/talentcheck/internal/adapters/repository"
	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/feedback"
	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/internal/domain/movement"
	"github.com/okian/talentcheck/pkg/logger"
	"github.com/okian/talentcheck/pkg/metrics"
)

const (
	defaultPurpose = "performance_assessment"
	// notifyBudget bounds one detached notification, retries included.
	notifyBudget = 30 * time.Second
)

// IntegrityEvaluator judges whether a submission is genuine.
type IntegrityEvaluator interface {
	Evaluate(ctx context.Context, s integrity.Subject) (integrity.Verdict, error)
}

// MovementEvaluator scores how the exercise was performed.
type MovementEvaluator interface {
	Evaluate(ctx context.Context, v model.Video, t model.TestType) (movement.Result, error)
}

// PerformanceEvaluator ranks the score against the athlete's cohort.
type PerformanceEvaluator interface {
	Evaluate(ctx context.Context, in benchmark.Input) benchmark.Verdict
}

// Synthesizer combines the analytic verdicts.
type Synthesizer interface {
	Combine(ctx context.Context, in feedback.Input) feedback.CompositeVerdict
}

// Orchestrator runs assessments. It is safe for concurrent use; every run
// keeps its own state.
type Orchestrator struct {
	integrity   IntegrityEvaluator
	movement    MovementEvaluator
	performance PerformanceEvaluator
	synth       Synthesizer
	store       repository.Store

	consent  consent.Gate
	purpose  string
	notifier notify.Notifier
	tracker  *progress.Tracker

	now    func() time.Time
	newID  func() string
	logger logger.Logger

	pending sync.WaitGroup // detached notifications
}

// NewOrchestrator wires the analytic stages and the verdict store. Without
// WithConsent every athlete is assumed to have consented; without
// WithNotifier notifications are logged.
func NewOrchestrator(
	iv IntegrityEvaluator,
	mv MovementEvaluator,
	pv PerformanceEvaluator,
	store repository.Store,
	opts ...Option,
) (*Orchestrator, error) {
	if iv == nil || mv == nil || pv == nil || store == nil {
		return nil, ErrMissingDependency
	}
	o := &Orchestrator{
		integrity:   iv,
		movement:    mv,
		performance: pv,
		synth:       feedback.NewSynthesizer(),
		store:       store,
		purpose:     defaultPurpose,
		now:         time.Now,
		newID:       NewRunID,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.notifier == nil {
		o.notifier = notify.NewLogNotifier(o.logger.Named("notify"))
	}
	return o, nil
}

// Run evaluates one submission under a fresh run id.
func (o *Orchestrator) Run(ctx context.Context, sub model.Submission, obs Observer) (assessment.Result, error) { //nolint:gocritic // hugeParam
	return o.RunJob(ctx, model.Job{RunID: o.newID(), Submission: sub, EnqueuedAt: o.now()}, obs)
}

// RunJob evaluates a queued job.
//
// The returned result is always populated as far as the run got. Errors:
// ErrInvalidSubmission and ErrConsentDenied stop the run before analysis;
// ErrNoAnalysis when no analytic stage succeeded; ErrPersistence when the
// store rejected the result, which is still returned; ErrCancelled when ctx
// ended between stages. Analytic stage failures are not errors, they are
// listed in ErrorDetails.
func (o *Orchestrator) RunJob(ctx context.Context, j model.Job, obs Observer) (assessment.Result, error) { //nolint:gocritic // hugeParam
	sub := j.Submission
	if j.RunID == "" {
		j.RunID = o.newID()
	}
	log := o.logger.With(
		logger.String("run_id", j.RunID),
		logger.String("assessment_id", sub.Record.ID),
	)

	metrics.IncRunsInFlight()
	defer metrics.DecRunsInFlight()

	res := assessment.Result{
		RunID:     j.RunID,
		Athlete:   sub.Athlete,
		Record:    sub.Record,
		Status:    assessment.ProcessingFailed,
		StartedAt: o.now(),
	}
	rep := newReporter(j.RunID, sub.Record.ID, o.now, obs, o.tracker)
	rep.report(assessment.StageUpload, percentReceived, "submission received")

	fail := func(stage assessment.Stage, err error) (assessment.Result, error) {
		res.ErrorDetails = append(res.ErrorDetails, assessment.StageFailure{Stage: stage, Message: err.Error()})
		res.CompletedAt = o.now()
		rep.report(assessment.StageError, 0, err.Error())
		metrics.RecordRun(string(res.Status), float64(res.Duration().Milliseconds()))
		log.Warn(ctx, "run ended early", logger.String("stage", string(stage)), logger.Error(err))
		return res, err
	}
	cancelled := func(stage assessment.Stage) (assessment.Result, error) {
		metrics.RecordCancelled()
		return fail(stage, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()))
	}

	// upload
	if err := sub.Validate(); err != nil {
		return fail(assessment.StageUpload, fmt.Errorf("%w: %w", ErrInvalidSubmission, err))
	}
	if err := o.checkConsent(ctx, sub.Athlete.ID); err != nil {
		return fail(assessment.StageUpload, err)
	}
	history := o.history(ctx, log, sub.Record)
	if history == nil {
		res.Record = res.Record.WithNote("athlete history unavailable")
	}
	rep.report(assessment.StageUpload, percentAccepted, "submission accepted")
	if ctx.Err() != nil {
		return cancelled(assessment.StageUpload)
	}

	// integrity, movement and performance
	rep.report(assessment.StageIntegrity, percentAnalysis, "analyzing recording")
	o.analyze(ctx, log, rep, sub, history, &res)
	res.Status = assessment.ProcessingStatusOf(res.Integrity.Status, res.Movement.Status, res.Performance.Status)
	if ctx.Err() != nil {
		return cancelled(assessment.StagePerformance)
	}
	if res.Status == assessment.ProcessingFailed {
		return fail(assessment.StagePerformance, ErrNoAnalysis)
	}

	// feedback
	rep.report(assessment.StageFeedback, percentFeedback, "combining verdicts")
	iv, mv, pv := res.Integrity.Ptr(), res.Movement.Ptr(), res.Performance.Ptr()
	verdict := o.synth.Combine(ctx, feedback.Input{
		AssessmentID: sub.Record.ID,
		Integrity:    iv,
		Performance:  pv,
		Movement:     mv,
	})
	res.Verdict = &verdict
	res.Quorum = Quorum(&verdict, iv, pv)
	metrics.RecordCompositeVerdict(string(verdict.Status), verdict.Score)
	if ctx.Err() != nil {
		return cancelled(assessment.StageFeedback)
	}

	// storage
	rep.report(assessment.StageStorage, percentStorage, "saving verdict")
	res.CompletedAt = o.now()
	if err := o.store.Put(ctx, sub.Record.ID, res); err != nil {
		log.Error(ctx, "persisting result failed", logger.Error(err))
		return fail(assessment.StageStorage, fmt.Errorf("%w: %w", ErrPersistence, err))
	}

	// notification; delivery continues after the run completes
	rep.report(assessment.StageNotification, percentNotifying, "checking recruitment quorum")
	o.notify(ctx, log, sub, &res)

	rep.report(assessment.StageComplete, percentComplete, "assessment complete")
	metrics.RecordRun(string(res.Status), float64(res.Duration().Milliseconds()))
	log.Info(ctx, "run complete",
		logger.String("status", string(res.Status)),
		logger.String("verdict", string(verdict.Status)),
		logger.Float64("score", verdict.Score),
		logger.Duration("elapsed", res.Duration()),
	)
	return res, nil
}

func (o *Orchestrator) checkConsent(ctx context.Context, athleteID string) error {
	if o.consent == nil {
		return nil
	}
	ok, err := o.consent.HasConsent(ctx, athleteID, o.purpose)
	if err != nil {
		return fmt.Errorf("pipeline: consent check: %w", err)
	}
	if !ok {
		metrics.RecordConsentDenied()
		return ErrConsentDenied
	}
	return nil
}

// history loads the athlete's results submitted before rec. It returns nil
// when the store cannot be read; the run goes on without history.
func (o *Orchestrator) history(ctx context.Context, log logger.Logger, rec model.AssessmentRecord) []model.HistoryPoint {
	prior, err := o.store.ListByAthlete(ctx, rec.AthleteID)
	if err != nil {
		log.Warn(ctx, "loading athlete history failed", logger.Error(err))
		return nil
	}
	points := make([]model.HistoryPoint, 0, len(prior))
	for _, r := range prior {
		if r.Record.ID == rec.ID || !r.Record.SubmittedAt.Before(rec.SubmittedAt) {
			continue
		}
		points = append(points, r.HistoryPoint())
	}
	return points
}

func (o *Orchestrator) notify(ctx context.Context, log logger.Logger, sub model.Submission, res *assessment.Result) { //nolint:gocritic // hugeParam
	switch {
	case sub.Options.DisableNotification:
		metrics.RecordNotification("disabled")
		return
	case !res.Quorum.Eligible:
		metrics.RecordNotification("skipped")
		return
	}

	pv, _ := res.Performance.Get()
	note := notify.Notification{
		AssessmentID: sub.Record.ID,
		AthleteID:    sub.Athlete.ID,
		TestType:     sub.Record.TestType,
		Status:       res.Verdict.Status,
		Score:        res.Verdict.Score,
		Percentile:   pv.Percentile,
		Tier:         pv.Tier,
		Confidence:   res.Verdict.Confidence,
		Conditions:   res.Quorum.Conditions,
		SentAt:       o.now(),
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyBudget)
	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		defer cancel()
		if err := o.notifier.Notify(nctx, note); err != nil {
			metrics.RecordNotification("failed")
			log.Warn(nctx, "recruitment notification failed", logger.Error(err))
			return
		}
		metrics.RecordNotification("sent")
	}()
}

// Wait blocks until every detached notification finished or ctx ends.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pipeline: waiting for notifications: %w", ctx.Err())
	}
}
