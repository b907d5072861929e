package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized for stdout", func() {
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})

		Convey("When it is initialized with a nil writer", func() {
			So(InitWithWriter(nil), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "stage finished",
				String("stage", "integrity"),
				Int("attempt", 1),
				Float64("score", 88.5),
				Bool("partial", false),
				Duration("took", 2*time.Second),
				Error(errors.New("boom")),
			)

			Convey("Then every field is rendered", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "stage finished")
				So(out, ShouldContainSubstring, "stage=integrity")
				So(out, ShouldContainSubstring, "score=88.5")
				So(out, ShouldContainSubstring, "partial=false")
				So(out, ShouldContainSubstring, "error=boom")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When using nested named loggers", func() {
			Named("pipeline").Named("integrity").Warn(ctx, "slow analyzer")

			Convey("Then the component path is joined with dots", func() {
				So(buf.String(), ShouldContainSubstring, "component=pipeline.integrity")
			})
		})

		Convey("When using a logger with bound fields", func() {
			Get().With(String("run_id", "r-1")).Info(ctx, "bound")

			Convey("Then the bound field is present", func() {
				So(buf.String(), ShouldContainSubstring, "run_id=r-1")
			})
		})

		Convey("When the level is raised to error", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(ctx, "hidden message")
			So(buf.String(), ShouldNotContainSubstring, "hidden message")
			So(SetLevelString("info"), ShouldBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)
		for _, lvl := range []string{"debug", "INFO", "", "warn", "warning", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Given a no-op logger", t, func() {
		l := Nop()
		So(func() { l.Error(context.Background(), "dropped") }, ShouldNotPanic)
		So(l.Named("x"), ShouldNotBeNil)
	})
}
