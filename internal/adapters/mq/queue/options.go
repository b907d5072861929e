package queue

import "github.com/okian/talentcheck/internal/domain/model"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum capacity of the queue.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithDropHandler registers fn for jobs taken off the queue but never
// delivered, either because the consumer went away or Drain discarded them.
func WithDropHandler(fn func(model.Job)) Option {
	return func(q *InMemoryQueue) {
		q.onDrop = fn
	}
}
