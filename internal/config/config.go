// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) returns a Config populated with defaults.
// - Load(ctx) layers defaults, an optional YAML file and environment variables.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory assessment job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of pipeline workers draining the queue.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the number of assessment ids tracked as in flight.
	DedupeSize int `koanf:"dedupe_size"`

	// BatchConcurrency is the number of runs executed together in batch mode.
	BatchConcurrency int `koanf:"batch_concurrency"`

	// BatchDelayMS is the pause between consecutive batches.
	BatchDelayMS int `koanf:"batch_delay_ms"`

	// ProgressGraceMS keeps finished progress entries readable for late pollers.
	ProgressGraceMS int `koanf:"progress_grace_ms"`

	// RunTimeoutMS caps a single asynchronous pipeline run; 0 disables it.
	RunTimeoutMS int `koanf:"run_timeout_ms"`

	Integrity    IntegrityConfig    `koanf:"integrity"`
	Analyzer     AnalyzerConfig     `koanf:"analyzer"`
	Store        StoreConfig        `koanf:"store"`
	Notification NotificationConfig `koanf:"notification"`
	Consent      ConsentConfig      `koanf:"consent"`
}

// IntegrityConfig holds the tunable integrity parameters.
type IntegrityConfig struct {
	Thresholds RiskThresholds `koanf:"thresholds"`
	Weights    SignalWeights  `koanf:"weights"`
}

// RiskThresholds are the lower bounds of the low, medium and high risk tiers.
// Anything below High is critical.
type RiskThresholds struct {
	Low    float64 `koanf:"low"`
	Medium float64 `koanf:"medium"`
	High   float64 `koanf:"high"`
}

// SignalWeights weight the five integrity sub-signals.
type SignalWeights struct {
	Tampering   float64 `koanf:"tampering"`
	Movement    float64 `koanf:"movement"`
	Environment float64 `koanf:"environment"`
	Biometric   float64 `koanf:"biometric"`
	Temporal    float64 `koanf:"temporal"`
}

// AnalyzerConfig configures the simulated video analyzer.
type AnalyzerConfig struct {
	LatencyMinMS int `koanf:"latency_min_ms"`
	LatencyMaxMS int `koanf:"latency_max_ms"`
}

// StoreConfig selects the verdict store.
type StoreConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// NotificationConfig configures the recruitment notification transport. An
// empty URL logs notifications instead of sending them.
type NotificationConfig struct {
	URL         string  `koanf:"url"`
	TimeoutMS   int     `koanf:"timeout_ms"`
	RatePerSec  float64 `koanf:"rate_per_sec"`
	Burst       int     `koanf:"burst"`
	MaxAttempts int     `koanf:"max_attempts"`
}

// ConsentConfig configures the in-memory consent gate.
type ConsentConfig struct {
	DefaultGranted bool   `koanf:"default_granted"`
	Purpose        string `koanf:"purpose"`
}

// New creates a Config populated with defaults. The context is reserved for
// future remote sources.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU() * 2,
		DedupeSize:       50_000,
		BatchConcurrency: 5,
		BatchDelayMS:     1000,
		ProgressGraceMS:  30_000,
		RunTimeoutMS:     60_000,
		Integrity: IntegrityConfig{
			Thresholds: RiskThresholds{Low: 85, Medium: 70, High: 55},
			Weights: SignalWeights{
				Tampering:   0.25,
				Movement:    0.30,
				Environment: 0.15,
				Biometric:   0.20,
				Temporal:    0.10,
			},
		},
		Analyzer: AnalyzerConfig{LatencyMinMS: 20, LatencyMaxMS: 60},
		Store:    StoreConfig{Driver: StoreMemory},
		Notification: NotificationConfig{
			TimeoutMS:   5000,
			RatePerSec:  5,
			Burst:       10,
			MaxAttempts: 3,
		},
		Consent: ConsentConfig{DefaultGranted: true, Purpose: "performance_assessment"},
	}
}

// Validate checks cross-field invariants.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.BatchConcurrency < 1:
		return fmt.Errorf("%w: batch_concurrency must be positive", ErrInvalidConfig)
	case c.BatchDelayMS < 0 || c.ProgressGraceMS < 0 || c.RunTimeoutMS < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	case c.Analyzer.LatencyMinMS < 0 || c.Analyzer.LatencyMaxMS < c.Analyzer.LatencyMinMS:
		return fmt.Errorf("%w: analyzer latency range is invalid", ErrInvalidConfig)
	}

	t := c.Integrity.Thresholds
	if !(t.Low <= 100 && t.Low > t.Medium && t.Medium > t.High && t.High > 0) {
		return fmt.Errorf("%w: integrity thresholds must satisfy 100 >= low > medium > high > 0", ErrInvalidConfig)
	}

	w := c.Integrity.Weights
	for _, v := range []float64{w.Tampering, w.Movement, w.Environment, w.Biometric, w.Temporal} {
		if v < 0 {
			return fmt.Errorf("%w: integrity weights must not be negative", ErrInvalidConfig)
		}
	}
	if w.Tampering+w.Movement+w.Environment+w.Biometric+w.Temporal <= 0 {
		return fmt.Errorf("%w: integrity weights must not all be zero", ErrInvalidConfig)
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("%w: store.dsn is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	}

	if c.Notification.RatePerSec < 0 || c.Notification.MaxAttempts < 0 || c.Notification.TimeoutMS < 0 {
		return fmt.Errorf("%w: notification settings must not be negative", ErrInvalidConfig)
	}
	return nil
}
