// Package service wires the assessment pipeline together and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/talentcheck/internal/adapters/consent"
	eventqueue "github.com/okian/talentcheck/internal/adapters/mq/queue"
	workerpool "github.com/okian/talentcheck/internal/adapters/mq/worker"
	"github.com/okian/talentcheck/internal/adapters/notify"
	"github.com/okian/talentcheck/internal/adapters/progress"
	"github.com/okian/talentcheck/internal/adapters/repository"
	"github.com/okian/talentcheck/internal/config"
	"github.com/okian/talentcheck/internal/domain/analyzer"
	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/dedupe"
	"github.com/okian/talentcheck/internal/domain/feedback"
	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/internal/domain/movement"
	"github.com/okian/talentcheck/internal/pipeline"
	"github.com/okian/talentcheck/pkg/logger"
	"github.com/okian/talentcheck/pkg/metrics"
)

// Service owns the pipeline components and their lifecycle.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	store    repository.Store
	ownStore bool // opened by Start, closed by Stop
	notifier notify.Notifier
	gate     *consent.MemoryGate
	tracker  *progress.Tracker
	orch     *pipeline.Orchestrator
	guard    dedupe.Guard
	queue    *eventqueue.InMemoryQueue
	pool     *workerpool.Pool

	started bool
	logger  logger.Logger
}

// New constructs a Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:    config.New(context.Background()),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds every component from the configuration and starts the
// background workers. Calling Start on a running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting assessment service...")

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store, s.ownStore = store, true
	}

	sim := analyzer.NewSimulator(
		analyzer.WithLatencyRange(ms(s.cfg.Analyzer.LatencyMinMS), ms(s.cfg.Analyzer.LatencyMaxMS)),
		analyzer.WithLogger(s.logger.Named("analyzer")),
	)
	t, w := s.cfg.Integrity.Thresholds, s.cfg.Integrity.Weights
	iv, err := integrity.NewEvaluator(sim,
		integrity.WithThresholds(integrity.Thresholds{Low: t.Low, Medium: t.Medium, High: t.High}),
		integrity.WithWeights(integrity.Weights{
			Tampering:   w.Tampering,
			Movement:    w.Movement,
			Environment: w.Environment,
			Biometric:   w.Biometric,
			Temporal:    w.Temporal,
		}),
		integrity.WithLogger(s.logger.Named("integrity")),
	)
	if err != nil {
		return fmt.Errorf("integrity evaluator: %w", err)
	}
	mv := movement.NewEvaluator(sim, movement.WithLogger(s.logger.Named("movement")))
	pv := benchmark.NewEngine(benchmark.WithLogger(s.logger.Named("benchmark")))

	if s.notifier == nil {
		n, err := s.newNotifier()
		if err != nil {
			return err
		}
		s.notifier = n
	}

	// Grants outlive a restart.
	if s.gate == nil {
		s.gate = consent.NewMemoryGate(
			consent.WithDefault(s.cfg.Consent.DefaultGranted),
			consent.WithLogger(s.logger.Named("consent")),
		)
	}
	s.tracker = progress.NewTracker(
		progress.WithGrace(ms(s.cfg.ProgressGraceMS)),
		progress.WithLogger(s.logger.Named("progress")),
	)
	s.tracker.Start(ctx)

	s.orch, err = pipeline.NewOrchestrator(iv, mv, pv, s.store,
		pipeline.WithConsent(s.gate, s.cfg.Consent.Purpose),
		pipeline.WithNotifier(s.notifier),
		pipeline.WithTracker(s.tracker),
		pipeline.WithSynthesizer(feedback.NewSynthesizer(feedback.WithLogger(s.logger.Named("feedback")))),
		pipeline.WithLogger(s.logger.Named("pipeline")),
	)
	if err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}

	s.guard = dedupe.NewGuard(
		dedupe.WithMaxSize(s.cfg.DedupeSize),
		dedupe.WithLogger(s.logger.Named("dedupe")),
	)
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.cfg.QueueSize),
		eventqueue.WithDropHandler(dropJob(s.guard, s.tracker, s.logger)),
	)
	s.pool = workerpool.NewPool(s.cfg.WorkerCount, s.queue, workerpool.RunnerFunc(s.runJob),
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queue.Capacity()),
		logger.Int("dedupeSize", s.cfg.DedupeSize),
		logger.String("store", s.cfg.Store.Driver),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	if s.cfg.Store.Driver == config.StoreSQLite {
		st, err := repository.NewSQLiteStore(ctx, s.cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		s.logger.Info(ctx, "using sqlite store", logger.String("dsn", s.cfg.Store.DSN))
		return st, nil
	}
	s.logger.Info(ctx, "using memory store")
	return repository.NewMemoryStore(ctx), nil
}

func (s *Service) newNotifier() (notify.Notifier, error) {
	n := s.cfg.Notification
	if n.URL == "" {
		return notify.NewLogNotifier(s.logger.Named("notify")), nil
	}
	h, err := notify.NewHTTPNotifier(n.URL,
		notify.WithTimeout(ms(n.TimeoutMS)),
		notify.WithRate(n.RatePerSec, n.Burst),
		notify.WithMaxAttempts(n.MaxAttempts),
		notify.WithLogger(s.logger.Named("notify")),
	)
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}
	return h, nil
}

// Stop drains the queue and waits for pending notifications, then releases
// the tracker and, when Start opened it, the store. ctx bounds the drain.
// Jobs still queued when ctx ends are dropped and their ids released.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping assessment service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if n := s.queue.Drain(); n > 0 {
		s.logger.Warn(ctx, "dropped queued assessments", logger.Int("count", n))
	}
	if err := s.orch.Wait(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.tracker.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.ownStore {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
		s.store, s.ownStore = nil, false
	}

	s.started = false
	s.logger.Info(ctx, "assessment service stopped")
	return errors.Join(errs...)
}

// runJob executes one queued job and frees its assessment id afterwards.
func (s *Service) runJob(ctx context.Context, j model.Job) error { //nolint:gocritic // hugeParam
	defer s.guard.Release(ctx, j.Submission.Record.ID)

	if d := ms(s.cfg.RunTimeoutMS); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	_, err := s.orch.RunJob(ctx, j, nil)
	return err
}

// dropJob frees the assessment id of a job that never reached a worker and
// marks its progress as failed.
func dropJob(guard dedupe.Guard, tracker *progress.Tracker, l logger.Logger) func(model.Job) {
	return func(j model.Job) { //nolint:gocritic // hugeParam
		ctx := context.Background()
		id := j.Submission.Record.ID
		guard.Release(ctx, id)
		tracker.Update(progress.Progress{
			RunID:        j.RunID,
			AssessmentID: id,
			Stage:        assessment.StageError,
			Message:      "dropped: service stopping",
		})
		l.Warn(ctx, "assessment dropped before processing",
			logger.String("assessmentID", id),
			logger.String("runID", j.RunID),
		)
	}
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Submit validates sub and queues it for asynchronous processing. It returns
// the run id under which progress is published. An assessment that is
// already queued or running is rejected with ErrDuplicate.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (string, error) { //nolint:gocritic // hugeParam
	if !s.running() {
		return "", ErrNotStarted
	}
	if err := sub.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", pipeline.ErrInvalidSubmission, err)
	}

	id := sub.Record.ID
	switch err := s.guard.Acquire(ctx, id); {
	case errors.Is(err, dedupe.ErrInFlight):
		return "", ErrDuplicate
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrBackpressure, err)
	}

	j := model.Job{RunID: pipeline.NewRunID(), Submission: sub, EnqueuedAt: time.Now()}
	queued := progress.Progress{
		RunID:        j.RunID,
		AssessmentID: id,
		Stage:        assessment.StageUpload,
		Message:      "queued",
		UpdatedAt:    j.EnqueuedAt,
	}
	// Published before Enqueue so a fast worker cannot be overwritten.
	s.tracker.Update(queued)

	if err := s.queue.Enqueue(ctx, j); err != nil {
		s.guard.Release(ctx, id)
		queued.Stage, queued.Message, queued.UpdatedAt = assessment.StageError, "rejected: "+err.Error(), time.Now()
		s.tracker.Update(queued)
		if errors.Is(err, eventqueue.ErrFull) {
			return "", ErrBackpressure
		}
		return "", err
	}

	s.logger.Debug(ctx, "assessment queued",
		logger.String("assessmentID", id),
		logger.String("runID", j.RunID),
	)
	return j.RunID, nil
}

// Process runs sub synchronously and returns its result.
func (s *Service) Process(ctx context.Context, sub model.Submission, obs pipeline.Observer) (assessment.Result, error) { //nolint:gocritic // hugeParam
	if !s.running() {
		return assessment.Result{}, ErrNotStarted
	}
	if err := sub.Validate(); err != nil {
		return assessment.Result{}, fmt.Errorf("%w: %w", pipeline.ErrInvalidSubmission, err)
	}
	id := sub.Record.ID
	if err := s.guard.Acquire(ctx, id); err != nil {
		if errors.Is(err, dedupe.ErrInFlight) {
			return assessment.Result{}, ErrDuplicate
		}
		return assessment.Result{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
	}
	defer s.guard.Release(ctx, id)
	return s.orch.Run(ctx, sub, obs)
}

// ProcessBatch runs subs in configured groups and returns one item per
// submission in input order.
func (s *Service) ProcessBatch(ctx context.Context, subs []model.Submission) ([]pipeline.BatchItem, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	items := s.orch.RunBatch(ctx, subs, pipeline.BatchOptions{
		Size:  s.cfg.BatchConcurrency,
		Delay: ms(s.cfg.BatchDelayMS),
	})
	return items, nil
}

// Verdict returns the stored result of an assessment.
func (s *Service) Verdict(ctx context.Context, assessmentID string) (assessment.Result, error) {
	if !s.running() {
		return assessment.Result{}, ErrNotStarted
	}
	return s.store.Get(ctx, assessmentID)
}

// History returns every stored result of an athlete, oldest first.
func (s *Service) History(ctx context.Context, athleteID string) ([]assessment.Result, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.store.ListByAthlete(ctx, athleteID)
}

// Progress returns the latest progress of an assessment.
func (s *Service) Progress(_ context.Context, assessmentID string) (progress.Progress, bool) {
	if !s.running() {
		return progress.Progress{}, false
	}
	return s.tracker.Get(assessmentID)
}

// SetConsent records an athlete's consent for the configured purpose.
func (s *Service) SetConsent(ctx context.Context, athleteID string, granted bool) (consent.Grant, error) {
	if !s.running() {
		return consent.Grant{}, ErrNotStarted
	}
	return s.gate.SetConsent(ctx, athleteID, s.cfg.Consent.Purpose, granted)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.cfg.WorkerCount,
		"queueSize":   s.cfg.QueueSize,
		"dedupeSize":  s.cfg.DedupeSize,
		"store":       s.cfg.Store.Driver,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	queueLen := s.queue.Len()
	records := s.store.Count(ctx)
	processed, failed := s.pool.Processed()

	stats["workerCount"] = s.pool.Size()
	stats["queueLength"] = queueLen
	stats["inFlight"] = s.guard.Size()
	stats["storedResults"] = records
	stats["trackedRuns"] = s.tracker.Len()
	stats["processed"] = processed
	stats["failed"] = failed

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateStoreRecords(records)
	metrics.UpdateWorkerCount(s.pool.Size())
	return stats
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
