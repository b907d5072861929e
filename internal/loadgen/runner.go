package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600

	verdictNone      = "none"
	verdictNotStored = "not_stored"
)

// Run executes a complete load run and returns its statistics.
func Run(ctx context.Context, cfg Config, log logger.Logger) (*Stats, error) {
	cfg.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Seed == 0 {
		cfg.Seed = rand.Uint64()
	}
	stats := newStats()
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting assessment load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("assessments", cfg.Assessments),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("workers", cfg.Workers),
		logger.Float64("ratePerSec", cfg.RatePerSec),
		logger.Any("seed", cfg.Seed),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	subs := Generate(cfg.Assessments, cfg.Athletes, cfg.Seed, time.Now())
	stats.Generated = len(subs)

	if cfg.OutputFile != "" {
		if err := save(cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	accepted, err := submitAll(ctx, cfg, client, subs, stats, log)
	if err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	finished, err := awaitAll(ctx, cfg, client, accepted, stats, log)
	if err != nil {
		return stats, fmt.Errorf("progress polling failed: %w", err)
	}

	if err := collectVerdicts(ctx, cfg, client, finished, stats); err != nil {
		return stats, fmt.Errorf("verdict retrieval failed: %w", err)
	}

	stats.Duration = time.Since(stats.StartTime)
	report(ctx, log, stats)
	return stats, nil
}

func submitAll(ctx context.Context, cfg Config, c *Client, subs []model.Submission, stats *Stats, log logger.Logger) ([]string, error) {
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(1, cfg.Workers))
	}

	var (
		mu       sync.Mutex
		accepted = make([]string, 0, len(subs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, sub := range subs {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}
			outcome, _, err := c.Submit(gctx, sub)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if cfg.Verbose {
					log.Warn(gctx, "submission failed", logger.String("assessmentID", sub.Record.ID), logger.Error(err))
				}
			}
			mu.Lock()
			defer mu.Unlock()
			stats.Submitted[outcome]++
			if outcome == OutcomeAccepted || outcome == OutcomeDuplicate {
				accepted = append(accepted, sub.Record.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Submitted[OutcomeAccepted]),
		logger.Int("duplicate", stats.Submitted[OutcomeDuplicate]),
		logger.Int("rejected", stats.Submitted[OutcomeRejected]),
		logger.Int("throttled", stats.Submitted[OutcomeThrottled]),
		logger.Int("failed", stats.Submitted[OutcomeFailed]),
	)
	return accepted, nil
}

// awaitAll polls every id until its run is terminal or PollTimeout passes.
// Ids whose progress expired from the service count as finished.
func awaitAll(ctx context.Context, cfg Config, c *Client, ids []string, stats *Stats, log logger.Logger) ([]string, error) {
	var (
		mu       sync.Mutex
		finished = make([]string, 0, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, id := range ids {
		g.Go(func() error {
			done, err := await(gctx, cfg, c, id)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if done {
				stats.Finished++
				finished = append(finished, id)
			} else {
				stats.TimedOut++
				if cfg.Verbose {
					log.Warn(gctx, "assessment did not finish in time", logger.String("assessmentID", id))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return finished, nil
}

func await(ctx context.Context, cfg Config, c *Client, id string) (bool, error) {
	deadline := time.Now().Add(cfg.PollTimeout)
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	for {
		p, err := c.Progress(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			return true, nil
		case err == nil && p.Done():
			return true, nil
		case ctx.Err() != nil:
			return false, ctx.Err()
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

func collectVerdicts(ctx context.Context, cfg Config, c *Client, ids []string, stats *Stats) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, id := range ids {
		g.Go(func() error {
			v, err := c.Verdict(gctx, id)
			key := verdictNone
			switch {
			case errors.Is(err, ErrNotFound):
				key = verdictNotStored
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				key = verdictNotStored
			case v.Verdict != nil:
				key = v.Verdict.Status
			}
			mu.Lock()
			defer mu.Unlock()
			stats.Verdicts[key]++
			if err == nil && v.Quorum.Eligible {
				stats.Eligible++
			}
			return nil
		})
	}
	return g.Wait()
}

func save(filename string, subs []model.Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal submissions: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

func report(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Finished) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Any("submitted", stats.Submitted),
		logger.Int("finished", stats.Finished),
		logger.Int("timedOut", stats.TimedOut),
		logger.Any("verdicts", stats.Verdicts),
		logger.Int("eligible", stats.Eligible),
		logger.Duration("duration", stats.Duration),
		logger.Float64("assessmentsPerSecond", perSecond),
	)
}
