// Package scheduler provides the adapter that runs fulfillment passes on an
// interval.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ScoeScoe/POSTANOS/internal/core"
	"github.com/ScoeScoe/POSTANOS/internal/data"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
	"github.com/ScoeScoe/POSTANOS/internal/observability/metrics"
	"github.com/ScoeScoe/POSTANOS/internal/observability/statsd"
)

// TriggerInterval tags runs started by this ticker adapter, as opposed to
// runs started through the manual HTTP trigger.
const TriggerInterval = "interval"

// Runner drives a FulfillmentRunner on a fixed interval. A pass also runs
// immediately at startup so a restarted instance does not wait a full
// interval before catching up on due jobs.
type Runner struct {
	runner       core.FulfillmentRunner
	interval     time.Duration
	timeProvider data.TimeProvider
	logger       *slog.Logger
	metrics      statsd.Sink
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Runner       core.FulfillmentRunner // Required: fulfillment pass executor
	Interval     time.Duration
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
	Metrics      statsd.Sink
}

// NewRunner creates a new fulfillment runner adapter.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Runner == nil {
		return nil, errors.New("FulfillmentRunner is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Runner{
		runner:       opts.Runner,
		interval:     opts.Interval,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger.With("component", "scheduler_runner"),
		metrics:      opts.Metrics,
	}, nil
}

// Run starts the pass loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting fulfillment runner", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "fulfillment runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

// runOnce executes a single pass. Errors never stop the loop: a conflict
// means another replica took this pass, anything else is logged and retried
// on the next tick.
func (r *Runner) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	summary, err := r.runner.Run(ctx, r.timeProvider.Now())
	elapsed := time.Since(start)

	r.emitRunMetrics(summary, elapsed, err)

	switch {
	case err == nil:
		r.logger.InfoContext(ctx, "fulfillment pass finished",
			"fetched", summary.Fetched,
			"succeeded", summary.Succeeded,
			"failed", summary.Failed,
			"elapsed", elapsed,
		)
	case apperrors.IsConflict(err):
		r.logger.InfoContext(ctx, "fulfillment pass skipped, another replica holds the run lock")
	case errors.Is(err, context.Canceled):
		r.logger.DebugContext(ctx, "fulfillment pass cancelled", "error", err)
	default:
		r.logger.ErrorContext(ctx, "fulfillment pass failed", "error", err)
	}
}

func (r *Runner) emitRunMetrics(summary *core.RunSummary, elapsed time.Duration, err error) {
	if r.metrics == nil || summary == nil {
		return
	}

	metrics.EmitRunSummary(r.metrics, metrics.RunMetric{
		Fetched:   summary.Fetched,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Duration:  elapsed,
		Trigger:   TriggerInterval,
	})

	if err == nil {
		r.metrics.Gauge("run.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}
