package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentcheck/internal/adapters/http/api"
	service "github.com/okian/talentcheck/internal/app"
	"github.com/okian/talentcheck/internal/config"
)

func TestClientClassification(t *testing.T) {
	Convey("Given a service answering with fixed statuses", t, func() {
		status := http.StatusAccepted
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"status":"x","run_id":"r-1"}`))
		}))
		Reset(ts.Close)
		c := NewClient(ts.URL, time.Second)
		sub := Generate(1, 1, 1, time.Now())[0]

		cases := map[int]Outcome{
			http.StatusAccepted:            OutcomeAccepted,
			http.StatusOK:                  OutcomeDuplicate,
			http.StatusBadRequest:          OutcomeRejected,
			http.StatusTooManyRequests:     OutcomeThrottled,
			http.StatusInternalServerError: OutcomeFailed,
		}
		for code, want := range cases {
			status = code
			got, _, _ := c.Submit(context.Background(), sub)
			So(got, ShouldEqual, want)
		}

		Convey("And lookups of unknown ids report ErrNotFound", func() {
			status = http.StatusNotFound
			_, err := c.Progress(context.Background(), "missing")
			So(err, ShouldEqual, ErrNotFound)
		})
	})
}

func TestRunAgainstService(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		cfg := config.New(ctx)
		cfg.WorkerCount = 4
		cfg.Analyzer = config.AnalyzerConfig{}
		svc := service.New(service.WithConfig(cfg))
		So(svc.Start(ctx), ShouldBeNil)

		mux := http.NewServeMux()
		api.NewServer(svc, svc, nil).Register(ctx, mux)
		ts := httptest.NewServer(mux)
		Reset(func() {
			ts.Close()
			_ = svc.Stop(context.Background())
		})

		Convey("When a load run submits 30 assessments", func() {
			out := filepath.Join(t.TempDir(), "subs", "submissions.json")
			stats, err := Run(ctx, Config{
				BaseURL:      ts.URL,
				Assessments:  30,
				Athletes:     6,
				Workers:      4,
				RatePerSec:   500,
				PollInterval: 5 * time.Millisecond,
				PollTimeout:  10 * time.Second,
				Seed:         99,
				OutputFile:   out,
			}, nil)

			Convey("Then every assessment is accepted, finishes and has a stored verdict", func() {
				So(err, ShouldBeNil)
				So(stats.Generated, ShouldEqual, 30)
				So(stats.Submitted[OutcomeAccepted], ShouldEqual, 30)
				So(stats.Finished, ShouldEqual, 30)
				So(stats.TimedOut, ShouldEqual, 0)

				total := 0
				for _, n := range stats.Verdicts {
					total += n
				}
				So(total, ShouldEqual, 30)
				So(stats.Verdicts[verdictNotStored], ShouldEqual, 0)
				So(stats.Verdicts[verdictNone], ShouldEqual, 0)
				_, statErr := os.Stat(out)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When the service is unreachable", func() {
			_, err := Run(ctx, Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, nil)
			So(err, ShouldNotBeNil)
		})
	})
}
