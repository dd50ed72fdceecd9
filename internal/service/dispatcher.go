package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ScoeScoe/POSTANOS/internal/core"
	"github.com/ScoeScoe/POSTANOS/internal/data"
	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
	"github.com/ScoeScoe/POSTANOS/internal/notify"
)

const notifyDedupeKeyPrefix = "postanos:notify:sent:"

// DispatcherServiceOptions groups dependencies for DispatcherService.
type DispatcherServiceOptions struct {
	Store        core.JobStore // Required: records notification_sent
	Cache        core.CacheRepository
	Sinks        []notify.Sink
	DedupeTTL    time.Duration
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
}

// DispatcherService fans a card-sent event out to the configured notification
// sinks. A cache-backed dedupe key makes delivery idempotent per job across
// replicas; the durable notification_sent flag on the job row backs it up past
// the key's TTL.
type DispatcherService struct {
	store        core.JobStore
	cache        core.CacheRepository
	sinks        []notify.Sink
	dedupeTTL    time.Duration
	timeProvider data.TimeProvider
	logger       *slog.Logger
}

// NewDispatcherService constructs a new DispatcherService.
func NewDispatcherService(opts DispatcherServiceOptions) (*DispatcherService, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DedupeTTL <= 0 {
		opts.DedupeTTL = 24 * time.Hour
	}

	return &DispatcherService{
		store:        opts.Store,
		cache:        opts.Cache,
		sinks:        opts.Sinks,
		dedupeTTL:    opts.DedupeTTL,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger.With("component", "dispatcher_service"),
	}, nil
}

// NotifySent informs the job owner that their postcard was submitted. Safe to
// call more than once per job; duplicates are suppressed by the job row flag
// and the cache dedupe key.
func (s *DispatcherService) NotifySent(ctx context.Context, job *model.DueJob, order *model.FulfillmentOrder) error {
	if job == nil {
		return apperrors.Validation("due job is required")
	}
	if len(s.sinks) == 0 {
		s.logger.DebugContext(ctx, "no notification sinks configured, skipping", "job_id", job.Job.ID)
		return nil
	}
	if job.Job.NotificationSent {
		return nil
	}

	acquired, err := s.claimDedupeKey(ctx, job.Job.ID)
	if err != nil {
		return err
	}
	if !acquired {
		s.logger.DebugContext(ctx, "notification already dispatched for job", "job_id", job.Job.ID)
		return nil
	}

	payload := s.buildPayload(job, order)

	if err := s.sendToSinks(ctx, payload); err != nil {
		// Give a later retry a chance at this job.
		s.releaseDedupeKey(ctx, job.Job.ID)
		return err
	}

	if err := s.store.MarkNotified(ctx, job.Job.ID); err != nil {
		// The notification went out; the dedupe key covers the gap until the
		// flag can be set on a later pass.
		s.logger.WarnContext(ctx, "failed to record notification flag",
			"job_id", job.Job.ID,
			"error", err,
		)
		return nil
	}
	job.Job.NotificationSent = true

	s.logger.InfoContext(ctx, "owner notified of postcard send",
		"job_id", job.Job.ID,
		"sinks", len(s.sinks),
	)
	return nil
}

func (s *DispatcherService) claimDedupeKey(ctx context.Context, jobID string) (bool, error) {
	if s.cache == nil {
		return true, nil
	}

	ok, err := s.cache.SetIfNotExists(ctx, notifyDedupeKeyPrefix+jobID, "1", s.dedupeTTL)
	if err != nil {
		return false, apperrors.Wrapf(err, apperrors.ErrCodeNotification, "claim dedupe key for job %s", jobID)
	}
	return ok, nil
}

func (s *DispatcherService) releaseDedupeKey(ctx context.Context, jobID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, notifyDedupeKeyPrefix+jobID); err != nil {
		s.logger.WarnContext(ctx, "failed to release dedupe key",
			"job_id", jobID,
			"error", err,
		)
	}
}

func (s *DispatcherService) buildPayload(job *model.DueJob, order *model.FulfillmentOrder) notify.CardSentPayload {
	payload := notify.CardSentPayload{
		JobID:         job.Job.ID,
		UserID:        job.Owner.UserID,
		Email:         job.Owner.Email,
		RecipientName: job.Recipient.FullName,
		OccasionLabel: job.OccasionLabel,
		SentAt:        s.timeProvider.Now(),
	}
	if order != nil {
		payload.TrackingURL = order.URL
	}
	return payload
}

// sendToSinks delivers the payload to every sink. All sinks are attempted
// even when an earlier one fails so a broken channel cannot starve the rest.
func (s *DispatcherService) sendToSinks(ctx context.Context, payload notify.CardSentPayload) error {
	var errs []error
	for _, sink := range s.sinks {
		if sink == nil {
			continue
		}
		if err := sink.SendCardSent(ctx, payload); err != nil {
			errs = append(errs, err)
			s.logger.WarnContext(ctx, "notification sink failed",
				"job_id", payload.JobID,
				"error", err,
			)
		}
	}

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		return apperrors.Wrapf(
			joined,
			apperrors.ErrCodeNotification,
			"%d of %d notification sinks failed", len(errs), len(s.sinks),
		)
	}
	return nil
}
