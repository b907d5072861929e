// Package repository persists assessment results keyed by assessment id.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/pkg/metrics"
)

// Store provides read/write access to assessment results. Put is an
// idempotent upsert: the last write for an id wins.
type Store interface {
	// Put stores r under id, replacing any previous result.
	Put(ctx context.Context, id string, r assessment.Result) error

	// Get returns the result stored under id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (assessment.Result, error)

	// ListByAthlete returns an athlete's results ordered by submission time,
	// oldest first.
	ListByAthlete(ctx context.Context, athleteID string) ([]assessment.Result, error)

	// Count returns the number of stored results.
	Count(ctx context.Context) int

	// Close releases resources held by the store.
	Close() error
}

// observe records latency, and the error if any, of one store operation.
func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordStoreError(op)
	}
}
