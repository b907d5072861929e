package pipeline

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/pkg/logger"
	"github.com/okian/talentcheck/pkg/metrics"
)

const (
	defaultBatchSize  = 5
	defaultBatchDelay = time.Second
)

// BatchItem is the outcome of one submission of a batch, at its input index.
type BatchItem struct {
	Index  int
	Result assessment.Result
	Err    error
}

// BatchOptions tune RunBatch.
type BatchOptions struct {
	// Size is how many submissions run concurrently.
	Size int
	// Delay is the pause between consecutive groups.
	Delay time.Duration
}

// RunBatch processes submissions in groups of opts.Size, pausing opts.Delay
// between groups. An item's failure never aborts the batch; once ctx ends
// the remaining items fail with ErrCancelled. Items come back in input order.
func (o *Orchestrator) RunBatch(ctx context.Context, subs []model.Submission, opts BatchOptions) []BatchItem {
	if opts.Size < 1 {
		opts.Size = defaultBatchSize
	}
	if opts.Delay < 0 {
		opts.Delay = defaultBatchDelay
	}

	items := make([]BatchItem, len(subs))
	for start := 0; start < len(subs); start += opts.Size {
		end := min(start+opts.Size, len(subs))

		if start > 0 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				cancelRest(items, subs, start, err)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			cancelRest(items, subs, start, err)
			break
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := o.Run(ctx, subs[i], nil)
				items[i] = BatchItem{Index: i, Result: res, Err: err}
				return nil
			})
		}
		_ = g.Wait()
		o.logger.Debug(ctx, "batch group done", logger.Int("from", start), logger.Int("to", end))
	}

	for _, it := range items {
		if it.Err != nil {
			metrics.RecordBatchItem("error")
			continue
		}
		metrics.RecordBatchItem("ok")
	}
	return items
}

func cancelRest(items []BatchItem, subs []model.Submission, from int, cause error) {
	for i := from; i < len(subs); i++ {
		items[i] = BatchItem{
			Index: i,
			Result: assessment.Result{
				Athlete: subs[i].Athlete,
				Record:  subs[i].Record,
				Status:  assessment.ProcessingFailed,
			},
			Err: errors.Join(ErrCancelled, cause),
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
