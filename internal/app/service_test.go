package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentcheck/internal/adapters/progress"
	"github.com/okian/talentcheck/internal/adapters/repository"
	"github.com/okian/talentcheck/internal/config"
	"github.com/okian/talentcheck/internal/domain/assessment"
	"github.com/okian/talentcheck/internal/domain/dedupe"
	"github.com/okian/talentcheck/internal/domain/model"
	"github.com/okian/talentcheck/internal/pipeline"
	"github.com/okian/talentcheck/pkg/logger"
)

func testConfig() *config.Config {
	cfg := config.New(context.Background())
	cfg.WorkerCount = 2
	cfg.QueueSize = 16
	cfg.BatchDelayMS = 0
	cfg.Analyzer = config.AnalyzerConfig{}
	return cfg
}

func submission(id, athleteID string, at time.Time) model.Submission {
	return model.Submission{
		Athlete: model.Athlete{ID: athleteID, Age: 17, Gender: model.GenderFemale},
		Record: model.AssessmentRecord{
			ID:          id,
			AthleteID:   athleteID,
			TestType:    model.TestShuttleRun,
			RawScore:    74,
			SubmittedAt: at,
		},
		Video:   model.Video{ID: "vid-" + id, DurationSec: 8, FrameRate: 30, Width: 1920, Height: 1080, RecordedAt: at},
		Options: model.Options{DisableNotification: true},
	}
}

func waitDone(s *Service, id string) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p, ok := s.Progress(context.Background(), id); ok && p.Done() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		ctx := context.Background()
		s := New(WithConfig(testConfig()))

		Convey("Then every operation reports ErrNotStarted", func() {
			_, err := s.Submit(ctx, submission("a-1", "ath-1", time.Now()))
			So(errors.Is(err, ErrNotStarted), ShouldBeTrue)
			_, err = s.Verdict(ctx, "a-1")
			So(errors.Is(err, ErrNotStarted), ShouldBeTrue)
			_, ok := s.Progress(ctx, "a-1")
			So(ok, ShouldBeFalse)
			So(s.GetStats()["started"], ShouldBeFalse)
			So(s.Stop(ctx), ShouldBeNil)
		})
	})

	Convey("Given an invalid configuration", t, func() {
		cfg := testConfig()
		cfg.Store.Driver = "redis"
		s := New(WithConfig(cfg))

		Convey("Then Start fails with ErrInvalidConfig", func() {
			So(errors.Is(s.Start(context.Background()), config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestServiceProcessing(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		s := New(WithConfig(testConfig()))
		So(s.Start(ctx), ShouldBeNil)
		So(s.Start(ctx), ShouldBeNil)
		Reset(func() { _ = s.Stop(context.Background()) })

		Convey("When an assessment is submitted", func() {
			runID, err := s.Submit(ctx, submission("a-1", "ath-1", time.Now()))
			So(err, ShouldBeNil)
			So(runID, ShouldNotBeEmpty)

			Convey("Then it runs to a terminal stage and the verdict is stored", func() {
				So(waitDone(s, "a-1"), ShouldBeTrue)
				p, _ := s.Progress(ctx, "a-1")
				So(p.Stage, ShouldEqual, assessment.StageComplete)
				So(p.Percent, ShouldEqual, 100)

				res, err := s.Verdict(ctx, "a-1")
				So(err, ShouldBeNil)
				So(res.Record.ID, ShouldEqual, "a-1")
				So(res.Verdict, ShouldNotBeNil)
			})
		})

		Convey("When the assessment id is already in flight", func() {
			So(s.guard.Acquire(ctx, "a-2"), ShouldBeNil)
			_, err := s.Submit(ctx, submission("a-2", "ath-1", time.Now()))

			Convey("Then the submission is rejected as a duplicate", func() {
				So(errors.Is(err, ErrDuplicate), ShouldBeTrue)
				_, err = s.Process(ctx, submission("a-2", "ath-1", time.Now()), nil)
				So(errors.Is(err, ErrDuplicate), ShouldBeTrue)
			})
		})

		Convey("When the submission is invalid", func() {
			sub := submission("a-3", "ath-1", time.Now())
			sub.Record.RawScore = 140
			_, err := s.Submit(ctx, sub)

			Convey("Then nothing is queued", func() {
				So(errors.Is(err, pipeline.ErrInvalidSubmission), ShouldBeTrue)
				So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
				So(s.guard.Held("a-3"), ShouldBeFalse)
			})
		})

		Convey("When an assessment is processed synchronously", func() {
			base := time.Now().Add(-time.Hour)
			_, err := s.Process(ctx, submission("a-4", "ath-2", base), nil)
			So(err, ShouldBeNil)
			_, err = s.Process(ctx, submission("a-5", "ath-2", base.Add(time.Minute)), nil)
			So(err, ShouldBeNil)

			Convey("Then the guard is released and history is ordered by time", func() {
				So(s.guard.Held("a-4"), ShouldBeFalse)
				hist, err := s.History(ctx, "ath-2")
				So(err, ShouldBeNil)
				So(len(hist), ShouldEqual, 2)
				So(hist[0].Record.ID, ShouldEqual, "a-4")
				So(hist[1].Record.ID, ShouldEqual, "a-5")
			})
		})

		Convey("When consent is withdrawn", func() {
			grant, err := s.SetConsent(ctx, "ath-3", false)
			So(err, ShouldBeNil)
			So(grant.Granted, ShouldBeFalse)
			_, err = s.Process(ctx, submission("a-6", "ath-3", time.Now()), nil)

			Convey("Then the run is refused and nothing is stored", func() {
				So(errors.Is(err, pipeline.ErrConsentDenied), ShouldBeTrue)
				_, err = s.Verdict(ctx, "a-6")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a batch is processed", func() {
			subs := make([]model.Submission, 0, 7)
			for i := range 7 {
				subs = append(subs, submission(fmt.Sprintf("b-%d", i), "ath-4", time.Now().Add(time.Duration(i)*time.Second)))
			}
			subs[3].Record.TestType = "juggling"
			items, err := s.ProcessBatch(ctx, subs)

			Convey("Then every item reports its own outcome in input order", func() {
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 7)
				for i, it := range items {
					So(it.Index, ShouldEqual, i)
				}
				So(errors.Is(items[3].Err, pipeline.ErrInvalidSubmission), ShouldBeTrue)
				So(items[6].Err, ShouldBeNil)

				stats := s.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["storedResults"], ShouldEqual, 6)
			})
		})
	})
}

func TestServiceRestart(t *testing.T) {
	Convey("Given a sqlite-backed service that was stopped once", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		cfg.Store = config.StoreConfig{Driver: config.StoreSQLite, DSN: filepath.Join(t.TempDir(), "restart.db")}
		s := New(WithConfig(cfg))
		So(s.Start(ctx), ShouldBeNil)
		_, err := s.SetConsent(ctx, "ath-r", false)
		So(err, ShouldBeNil)
		_, err = s.Process(ctx, submission("r-1", "ath-q", time.Now().Add(-time.Minute)), nil)
		So(err, ShouldBeNil)
		So(s.Stop(ctx), ShouldBeNil)

		Convey("When it is started again", func() {
			So(s.Start(ctx), ShouldBeNil)
			Reset(func() { _ = s.Stop(context.Background()) })

			Convey("Then the store is reopened and earlier results are visible", func() {
				_, err := s.Process(ctx, submission("r-2", "ath-q", time.Now()), nil)
				So(err, ShouldBeNil)
				hist, err := s.History(ctx, "ath-q")
				So(err, ShouldBeNil)
				So(len(hist), ShouldEqual, 2)
			})

			Convey("Then consent grants are kept", func() {
				_, err := s.Process(ctx, submission("r-3", "ath-r", time.Now()), nil)
				So(errors.Is(err, pipeline.ErrConsentDenied), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service with an injected store", t, func() {
		ctx := context.Background()
		st := repository.NewMemoryStore(ctx)
		s := New(WithConfig(testConfig()), WithStore(st))
		So(s.Start(ctx), ShouldBeNil)
		So(s.Stop(ctx), ShouldBeNil)

		Convey("Then Stop leaves it usable across a restart", func() {
			So(s.Start(ctx), ShouldBeNil)
			defer func() { _ = s.Stop(context.Background()) }()
			_, err := s.Process(ctx, submission("i-1", "ath-i", time.Now()), nil)
			So(err, ShouldBeNil)
			So(st.Count(ctx), ShouldEqual, 1)
		})
	})
}

func TestDropJob(t *testing.T) {
	Convey("Given a job that never reached a worker", t, func() {
		ctx := context.Background()
		guard := dedupe.NewGuard()
		tracker := progress.NewTracker()
		So(guard.Acquire(ctx, "d-1"), ShouldBeNil)
		j := model.Job{RunID: "run-d", Submission: submission("d-1", "ath-d", time.Now())}

		Convey("When it is dropped", func() {
			dropJob(guard, tracker, logger.Nop())(j)

			Convey("Then its id can be submitted again and progress reports the failure", func() {
				So(guard.Held("d-1"), ShouldBeFalse)
				p, ok := tracker.Get("d-1")
				So(ok, ShouldBeTrue)
				So(p.Stage, ShouldEqual, assessment.StageError)
				So(p.RunID, ShouldEqual, "run-d")
			})
		})
	})
}

func TestServiceSQLiteStore(t *testing.T) {
	Convey("Given a service configured with the sqlite driver", t, func() {
		ctx := context.Background()
		cfg := testConfig()
		cfg.Store = config.StoreConfig{Driver: config.StoreSQLite, DSN: filepath.Join(t.TempDir(), "results.db")}
		s := New(WithConfig(cfg))
		So(s.Start(ctx), ShouldBeNil)

		Convey("When an assessment is processed and the service stops", func() {
			_, err := s.Process(ctx, submission("s-1", "ath-9", time.Now()), nil)
			So(err, ShouldBeNil)
			So(s.Stop(ctx), ShouldBeNil)

			Convey("Then the result survives in the database", func() {
				st, err := repository.NewSQLiteStore(ctx, cfg.Store.DSN)
				So(err, ShouldBeNil)
				defer st.Close()
				res, err := st.Get(ctx, "s-1")
				So(err, ShouldBeNil)
				So(res.Athlete.ID, ShouldEqual, "ath-9")
			})
		})
	})
}
