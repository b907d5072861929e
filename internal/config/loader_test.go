package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/okian/talentcheck/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.BatchConcurrency, convey.ShouldEqual, 5)
				convey.So(cfg.Integrity.Thresholds.Low, convey.ShouldEqual, 85)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TALENTCHECK_ADDR", ":8080")
			_ = os.Setenv("TALENTCHECK_QUEUE_SIZE", "500")
			_ = os.Setenv("TALENTCHECK_WORKER_COUNT", "3")
			_ = os.Setenv("TALENTCHECK_BATCH_DELAY_MS", "250")
			_ = os.Setenv("TALENTCHECK_INTEGRITY__THRESHOLDS__LOW", "90")
			_ = os.Setenv("TALENTCHECK_STORE__DRIVER", "sqlite")
			_ = os.Setenv("TALENTCHECK_STORE__DSN", "file:test.db")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.BatchDelayMS, convey.ShouldEqual, 250)
				convey.So(cfg.Integrity.Thresholds.Low, convey.ShouldEqual, 90)
				convey.So(cfg.Integrity.Thresholds.Medium, convey.ShouldEqual, 70)
				convey.So(cfg.Store.Driver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.Store.DSN, convey.ShouldEqual, "file:test.db")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300
batch_concurrency: 2
integrity:
  thresholds:
    low: 80
    medium: 65
    high: 50
notification:
  url: "http://recruit.local/notify"
  max_attempts: 5
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TALENTCHECK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.BatchConcurrency, convey.ShouldEqual, 2)
				convey.So(cfg.Integrity.Thresholds, convey.ShouldResemble, config.RiskThresholds{Low: 80, Medium: 65, High: 50})
				convey.So(cfg.Notification.URL, convey.ShouldEqual, "http://recruit.local/notify")
				convey.So(cfg.Notification.MaxAttempts, convey.ShouldEqual, 5)
			})

			convey.Convey("And missing keys keep their defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Integrity.Weights.Tampering, convey.ShouldEqual, 0.25)
				convey.So(cfg.Notification.RatePerSec, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nworker_count: 24\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TALENTCHECK_CONFIG", tmpFile)
			_ = os.Setenv("TALENTCHECK_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TALENTCHECK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TALENTCHECK_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TALENTCHECK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When env sets overlapping risk thresholds", func() {
			_ = os.Setenv("TALENTCHECK_INTEGRITY__THRESHOLDS__HIGH", "75")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "talentcheck-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
