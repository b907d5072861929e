// Package queue holds pending assessment jobs between the HTTP layer and the
// worker pool.
package queue

import (
	"context"
	"sync"

	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/pkg/metrics"
)

const defaultQueueCapacity = 1000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job without blocking.
	// Returns ErrFull when at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, j model.Job) error

	// Dequeue returns a channel receiving jobs as they become available.
	// The channel is closed when the queue is closed and drained, or ctx ends.
	Dequeue(ctx context.Context) <-chan model.Job

	// Len returns the current number of queued jobs.
	Len() int

	// Close stops accepting jobs. Jobs already queued are still delivered.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan model.Job
	capacity int
	onDrop   func(model.Job)

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan model.Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j model.Job) error { //nolint:gocritic // hugeParam: jobs travel by value over the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return err
	}

	select {
	case q.jobs <- j:
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// Dequeue implements Queue.Dequeue. Each call starts a forwarding goroutine;
// consumers share the underlying buffer.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Job {
	out := make(chan model.Job)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				metrics.UpdateQueueSize(len(q.jobs))
				select {
				case out <- j:
				case <-ctx.Done():
					q.drop(j)
					return
				}
			}
		}
	}()
	return out
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Capacity returns the maximum number of queued jobs.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close implements Queue.Close.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// Drain closes the queue and hands every job still buffered to the drop
// handler. It returns how many jobs were dropped.
func (q *InMemoryQueue) Drain() int {
	_ = q.Close()
	n := 0
	for j := range q.jobs {
		q.drop(j)
		n++
	}
	metrics.UpdateQueueSize(0)
	return n
}

func (q *InMemoryQueue) drop(j model.Job) { //nolint:gocritic // hugeParam
	metrics.RecordQueueRejected("dropped")
	if q.onDrop != nil {
		q.onDrop(j)
	}
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
