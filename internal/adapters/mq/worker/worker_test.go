package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	queue "github.com/okian/talentcheck/internal/adapters/mq/queue"
	worker "github.com/okian/talentcheck/internal/adapters/mq/worker"
	model "github.com/okian/talentcheck/internal/domain/model"
)

type recordingRunner struct {
	mu    sync.Mutex
	seen  map[string]int
	fail  map[string]error
	delay time.Duration
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{seen: make(map[string]int), fail: make(map[string]error)}
}

func (r *recordingRunner) Run(ctx context.Context, j model.Job) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[j.RunID]++
	return r.fail[j.RunID]
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func job(id string) model.Job {
	return model.Job{RunID: id, EnqueuedAt: time.Now()}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a started pool of three workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		runner := newRecordingRunner()
		runner.fail["run-3"] = errors.New("analyzer unavailable")
		pool := worker.NewPool(3, q, runner)
		pool.Start(ctx)
		pool.Start(ctx)
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		convey.Convey("When jobs are queued", func() {
			for i := 0; i < 10; i++ {
				convey.So(q.Enqueue(ctx, job(fmt.Sprintf("run-%d", i))), convey.ShouldBeNil)
			}

			convey.Convey("Then every job runs exactly once and failures are counted", func() {
				convey.So(waitFor(func() bool { total, _ := pool.Processed(); return total == 10 }), convey.ShouldBeTrue)
				total, failed := pool.Processed()
				convey.So(total, convey.ShouldEqual, 10)
				convey.So(failed, convey.ShouldEqual, 1)
				convey.So(runner.count(), convey.ShouldEqual, 10)
				for _, n := range runner.seen {
					convey.So(n, convey.ShouldEqual, 1)
				}
			})
		})

		convey.Convey("When shutting down with queued work", func() {
			for i := 0; i < 5; i++ {
				convey.So(q.Enqueue(ctx, job(fmt.Sprintf("late-%d", i))), convey.ShouldBeNil)
			}
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then queued jobs drain before workers stop", func() {
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(runner.count(), convey.ShouldEqual, 5)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool whose runs outlast the shutdown deadline", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		runner := newRecordingRunner()
		runner.delay = time.Second
		pool := worker.NewPool(1, q, runner)
		pool.Start(context.Background())
		convey.So(q.Enqueue(context.Background(), job("slow")), convey.ShouldBeNil)
		time.Sleep(20 * time.Millisecond)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		convey.Convey("Then Shutdown reports the timeout", func() {
			convey.So(errors.Is(pool.Shutdown(shutdownCtx), context.DeadlineExceeded), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a pool that was never started", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), worker.RunnerFunc(func(context.Context, model.Job) error { return nil }))

		convey.Convey("Then it defaults its size and shuts down cleanly", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}
