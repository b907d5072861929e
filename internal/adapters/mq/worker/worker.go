// Package worker runs queued assessment jobs on a fixed pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/pkg/logger"
	"github.com/okian/talentcheck/pkg/metrics"
)

const defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()

// Runner executes one job. Errors are logged by the worker; the runner owns
// any recording of the outcome.
type Runner interface {
	Run(ctx context.Context, j model.Job) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, j model.Job) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, j model.Job) error { return f(ctx, j) } //nolint:gocritic // hugeParam

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Job
}

// Worker pulls jobs off the queue until it is closed or ctx ends.
type Worker struct {
	name   string
	queue  Queue
	runner Runner
	logger logger.Logger

	processed atomic.Int64
	failed    atomic.Int64
	done      chan struct{}
}

func newWorker(name string, q Queue, r Runner, l logger.Logger) *Worker {
	return &Worker{
		name:   name,
		queue:  q,
		runner: r,
		logger: l.Named(name),
		done:   make(chan struct{}),
	}
}

// Run is the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	for j := range w.queue.Dequeue(ctx) {
		w.process(ctx, j)
	}
}

func (w *Worker) process(ctx context.Context, j model.Job) { //nolint:gocritic // hugeParam
	metrics.IncWorkerBusy()
	defer metrics.DecWorkerBusy()

	start := time.Now()
	err := w.runner.Run(ctx, j)
	w.processed.Add(1)
	if err != nil {
		w.failed.Add(1)
		w.logger.Error(ctx, "run failed",
			logger.String("run_id", j.RunID),
			logger.String("assessment_id", j.Submission.Record.ID),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err),
		)
		return
	}
	w.logger.Debug(ctx, "run finished",
		logger.String("run_id", j.RunID),
		logger.Duration("elapsed", time.Since(start)),
	)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*Worker
	queue   Queue
	logger  logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

// NewPool creates a pool of workerCount workers. A count below one defaults
// to a multiple of the CPU count.
func NewPool(workerCount int, q Queue, r Runner, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		queue:   q,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := range p.workers {
		p.workers[i] = newWorker("worker-"+strconv.Itoa(i), q, r, p.logger)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many jobs finished, and how many of those failed.
func (p *Pool) Processed() (total, failed int64) {
	for _, w := range p.workers {
		total += w.processed.Load()
		failed += w.failed.Load()
	}
	return total, failed
}

// Start launches every worker. Calling Start twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	for _, w := range p.workers {
		go w.Run(runCtx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue, lets workers drain what is queued and waits for
// them. When ctx ends first the remaining runs are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	p.mu.Lock()
	started, cancel := p.started, p.cancel
	p.mu.Unlock()
	if !started {
		return nil
	}
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
