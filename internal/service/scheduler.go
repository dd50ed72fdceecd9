package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ScoeScoe/POSTANOS/config"
	"github.com/ScoeScoe/POSTANOS/internal/core"
	"github.com/ScoeScoe/POSTANOS/internal/data"
	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// runLockKey guards a fulfillment pass across replicas. Whichever instance
// sets it first owns the pass; the TTL bounds how long a crashed owner can
// block the next one.
const runLockKey = "postanos:fulfillment:run-lock"

// SchedulerServiceOptions groups dependencies for SchedulerService.
type SchedulerServiceOptions struct {
	Store        core.JobStore     // Required: due-job discovery
	Processor    core.JobProcessor // Required: per-job pipeline
	Cache        core.CacheRepository
	Config       config.SchedulerConfig
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// SchedulerService executes a fulfillment pass: claim the distributed run
// lock, fetch due jobs up to the daily cap, and hand each to the processor in
// bounded concurrent batches. One job's failure never stops its siblings; the
// pass settles every fetched job and reports counts.
type SchedulerService struct {
	store        core.JobStore
	processor    core.JobProcessor
	cache        core.CacheRepository
	cfg          config.SchedulerConfig
	timeProvider data.TimeProvider
	logger       *slog.Logger
}

// NewSchedulerService constructs a new SchedulerService.
func NewSchedulerService(opts SchedulerServiceOptions) (*SchedulerService, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.Processor == nil {
		return nil, errors.New("JobProcessor is required")
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Config.Sanitize()

	return &SchedulerService{
		store:        opts.Store,
		processor:    opts.Processor,
		cache:        opts.Cache,
		cfg:          opts.Config,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger.With("component", "scheduler_service"),
	}, nil
}

// Run executes one fulfillment pass as of now. Returns a conflict error when
// another replica holds the run lock.
func (s *SchedulerService) Run(ctx context.Context, now time.Time) (*core.RunSummary, error) {
	release, err := s.acquireRunLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	jobs, err := s.fetchDue(ctx, now)
	if err != nil {
		return nil, err
	}

	summary := &core.RunSummary{Fetched: len(jobs)}
	if len(jobs) == 0 {
		s.logger.InfoContext(ctx, "no jobs due", "as_of", now)
		return summary, nil
	}

	s.logger.InfoContext(ctx, "starting fulfillment pass",
		"as_of", now,
		"fetched", summary.Fetched,
		"batch_size", s.cfg.BatchSize,
	)

	succeeded, failed := s.processAll(ctx, jobs)
	summary.Succeeded = succeeded
	summary.Failed = failed

	s.logger.InfoContext(ctx, "fulfillment pass complete",
		"fetched", summary.Fetched,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)
	return summary, nil
}

// acquireRunLock claims the distributed run lock and returns a release func.
// Without a cache the service runs unlocked, which is only safe for a single
// replica.
func (s *SchedulerService) acquireRunLock(ctx context.Context) (func(), error) {
	if s.cache == nil {
		return func() {}, nil
	}

	token := uuid.NewString()
	ok, err := s.cache.SetIfNotExists(ctx, runLockKey, token, s.cfg.RunLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("fulfillment run already in progress")
	}

	return func() {
		// Release even when the pass was cancelled.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.cache.Delete(releaseCtx, runLockKey); err != nil {
			s.logger.Warn("failed to release run lock; TTL will expire it", "error", err)
		}
	}, nil
}

func (s *SchedulerService) fetchDue(ctx context.Context, now time.Time) ([]*model.DueJob, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	jobs, err := s.store.FetchDueJobs(callCtx, now, s.cfg.DailyCap)
	if err != nil {
		return nil, fmt.Errorf("fetch due jobs: %w", err)
	}
	return jobs, nil
}

// processAll hands jobs to the processor in batches of BatchSize. Workers
// never return errors to the group so a failing job cannot cancel its batch;
// outcomes are tallied instead. New batches stop launching once the context
// is cancelled, leaving the remaining jobs pending for the next pass.
func (s *SchedulerService) processAll(ctx context.Context, jobs []*model.DueJob) (succeeded, failed int) {
	var mu sync.Mutex

	for start := 0; start < len(jobs); start += s.cfg.BatchSize {
		if ctx.Err() != nil {
			s.logger.WarnContext(ctx, "fulfillment pass interrupted",
				"remaining", len(jobs)-start,
				"reason", ctx.Err(),
			)
			return succeeded, failed
		}

		end := min(start+s.cfg.BatchSize, len(jobs))

		group, gctx := errgroup.WithContext(ctx)
		for _, job := range jobs[start:end] {
			group.Go(func() error {
				err := s.processor.Process(gctx, job)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
				} else {
					succeeded++
				}
				return nil
			})
		}
		// Workers always return nil, so Wait only gathers completion.
		_ = group.Wait()
	}

	return succeeded, failed
}
