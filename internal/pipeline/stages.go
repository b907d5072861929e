package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/internal/domain/benchmark"
	"github.com/okian/talentcheck/internal/domain/integrity"
	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/internal/domain/movement"
	"github.com/okian/talentcheck/pkg/logger"
	"github.com/okian/talentcheck/pkg/metrics"
)

// analyze runs the three analytic stages concurrently and stores their
// outcomes on res. A stage failure is recorded, never propagated.
func (o *Orchestrator) analyze(
	ctx context.Context,
	log logger.Logger,
	rep *reporter,
	sub model.Submission, //nolint:gocritic // hugeParam
	history []model.HistoryPoint,
	res *assessment.Result,
) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	record := func(stage assessment.Stage, err error) {
		failure := &AnalyzerFailure{Stage: stage, Err: err}
		mu.Lock()
		res.ErrorDetails = append(res.ErrorDetails, assessment.StageFailure{Stage: stage, Message: failure.Error()})
		mu.Unlock()
		metrics.RecordStageFailure(string(stage))
		log.Warn(ctx, "analytic stage failed", logger.String("stage", string(stage)), logger.Error(err))
	}

	g.Go(func() error {
		if sub.Options.SkipIntegrity {
			res.Integrity = assessment.Skipped[integrity.Verdict]()
			rep.analyticDone(assessment.StageIntegrity, "integrity check skipped")
			return nil
		}
		v, err := timed(assessment.StageIntegrity, func() (integrity.Verdict, error) {
			return o.integrity.Evaluate(ctx, integrity.Subject{
				Video:   sub.Video,
				Record:  sub.Record,
				Athlete: sub.Athlete,
				History: history,
			})
		})
		if err != nil {
			res.Integrity = assessment.Failed[integrity.Verdict](err)
			record(assessment.StageIntegrity, err)
			rep.analyticDone(assessment.StageIntegrity, "integrity check failed")
			return nil
		}
		res.Integrity = assessment.Succeeded(v)
		metrics.RecordIntegrity(string(v.Risk), v.Score)
		rep.analyticDone(assessment.StageIntegrity, "integrity checked")
		return nil
	})

	g.Go(func() error {
		if sub.Options.SkipMovement {
			res.Movement = assessment.Skipped[movement.Result]()
			rep.analyticDone(assessment.StageMovement, "movement analysis skipped")
			return nil
		}
		v, err := timed(assessment.StageMovement, func() (movement.Result, error) {
			return o.movement.Evaluate(ctx, sub.Video, sub.Record.TestType)
		})
		if err != nil {
			res.Movement = assessment.Failed[movement.Result](err)
			record(assessment.StageMovement, err)
			rep.analyticDone(assessment.StageMovement, "movement analysis failed")
			return nil
		}
		res.Movement = assessment.Succeeded(v)
		metrics.RecordTechnicalScore(v.Technical.Overall)
		rep.analyticDone(assessment.StageMovement, "movement analyzed")
		return nil
	})

	g.Go(func() error {
		v, err := timed(assessment.StagePerformance, func() (benchmark.Verdict, error) {
			return o.performance.Evaluate(ctx, benchmark.Input{
				AssessmentID: sub.Record.ID,
				Score:        sub.Record.RawScore,
				Athlete:      sub.Athlete,
				TestType:     sub.Record.TestType,
				History:      history,
			}), nil
		})
		if err != nil {
			res.Performance = assessment.Failed[benchmark.Verdict](err)
			record(assessment.StagePerformance, err)
			rep.analyticDone(assessment.StagePerformance, "benchmarking failed")
			return nil
		}
		res.Performance = assessment.Succeeded(v)
		metrics.RecordPerformanceTier(string(v.Tier))
		rep.analyticDone(assessment.StagePerformance, "performance benchmarked")
		return nil
	})

	_ = g.Wait()
	slices.SortStableFunc(res.ErrorDetails, func(a, b assessment.StageFailure) int {
		return stageOrder[a.Stage] - stageOrder[b.Stage]
	})
}

var stageOrder = map[assessment.Stage]int{
	assessment.StageIntegrity:   0,
	assessment.StageMovement:    1,
	assessment.StagePerformance: 2,
}

// timed runs one stage, recording its latency and turning a panic into an
// error so one broken analyzer cannot take the run down.
func timed[T any](stage assessment.Stage, fn func() (T, error)) (v T, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		metrics.RecordStageLatency(string(stage), float64(time.Since(start).Microseconds())/1000)
	}()
	return fn()
}
