package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ScoeScoe/POSTANOS/config"
	"github.com/ScoeScoe/POSTANOS/internal/core"
	obserrors "github.com/ScoeScoe/POSTANOS/internal/observability/errors"
	"github.com/ScoeScoe/POSTANOS/internal/observability/metrics"
	"github.com/ScoeScoe/POSTANOS/internal/observability/statsd"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Sweeper core.StaleJobSweeper // Required: stale-job sweeper
	Config  config.ReaperConfig  // Required: reaper configuration
	Logger  *slog.Logger         // Optional: structured logger
	Metrics statsd.Sink          // Optional: metrics sink (StatsD-compatible)
}

// ReaperService reconciles jobs stuck in the processing status after their
// worker died mid-flight. Stale rows are failed rather than requeued: the
// postcard order may already have reached the mail provider, and retrying
// would risk sending the same card twice.
type ReaperService struct {
	sweeper core.StaleJobSweeper
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Sweeper == nil {
		return nil, errors.New("StaleJobSweeper is required")
	}
	opts.Config.Sanitize()

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"processing_max_age", opts.Config.ProcessingMaxAge,
			"batch_size", opts.Config.BatchSize,
		)
	}

	return &ReaperService{
		sweeper: opts.Sweeper,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// It performs a sweep at the configured interval.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run a sweep immediately after jitter
	if _, err := s.Sweep(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	return s.runLoop(ctx, ticker)
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	// Use modulo on uint64 before converting to avoid overflow
	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}

// runLoop runs the sweep loop until context is cancelled.
func (s *ReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			// Return nil on graceful shutdown to avoid treating it as a failure
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logSweepError(err, "sweep")
				// Continue running despite errors
			}
		}
	}
}

// Sweep fails stale processing jobs in batches until a batch comes back
// empty, so large backlogs drain without a single huge update. Returns the
// total number of jobs failed.
func (s *ReaperService) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()

	var totalCount int64
	var sweepErr error
	for {
		count, err := s.sweeper.FailStaleProcessingJobs(ctx, s.config.ProcessingMaxAge, s.config.BatchSize)
		totalCount += count
		if err != nil {
			sweepErr = fmt.Errorf("fail stale processing jobs: %w", err)
			break
		}
		if count == 0 {
			break
		}
		// Check context between batches
		if ctx.Err() != nil {
			sweepErr = ctx.Err()
			break
		}
	}

	s.emitSweepMetrics(totalCount, time.Since(start), sweepErr)

	if totalCount > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "failed stale processing jobs",
			"count", totalCount,
			"max_age", s.config.ProcessingMaxAge,
		)
	}

	if sweepErr != nil && isContextCancellation(sweepErr) {
		return totalCount, context.Canceled
	}
	return totalCount, sweepErr
}

func (s *ReaperService) emitSweepMetrics(count int64, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	if err != nil && !isContextCancellation(err) {
		result = metrics.ResultError
	} else if count == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		"result": result,
	}
	if result == metrics.ResultError {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reaper.sweep", 1, tags)

	if elapsed > 0 {
		s.metrics.Timing("reaper.sweep_duration", elapsed, metrics.CloneTags(tags))
	}

	if count > 0 {
		s.metrics.Count("reaper.jobs_failed", count, metrics.CloneTags(tags))
	}

	if err == nil {
		s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (s *ReaperService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
