package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/talentcheck/internal/loadgen"
	"github.com/okian/talentcheck/pkg/logger"
)

const (
	defaultAssessments = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		assessments  = flag.Int("assessments", defaultAssessments, "Number of assessments to generate and submit")
		athletes     = flag.Int("athletes", 0, "Distinct athletes (default: assessments/4)")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		ratePerSec   = flag.Float64("rate", 0, "Submission rate limit per second (0 disables)")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollInterval = flag.Duration("poll", 200*time.Millisecond, "Progress poll interval")
		pollTimeout  = flag.Duration("poll-timeout", 2*time.Minute, "Give up waiting for an assessment after this long")
		seed         = flag.Uint64("seed", 0, "Seed for generated scores (0 picks one)")
		output       = flag.String("output", "", "Write generated submissions to this JSON file")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Named("loadgen")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	_, err := loadgen.Run(ctx, loadgen.Config{
		BaseURL:      *baseURL,
		Assessments:  *assessments,
		Athletes:     *athletes,
		Workers:      *workers,
		RatePerSec:   *ratePerSec,
		Timeout:      *timeout,
		PollInterval: *pollInterval,
		PollTimeout:  *pollTimeout,
		Seed:         *seed,
		OutputFile:   *output,
		Verbose:      *verbose,
	}, log)
	if err != nil {
		log.Error(ctx, "load run failed", logger.Error(err))
		stop()
		cancel()
		os.Exit(1)
	}
}
