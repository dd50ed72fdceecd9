// Package service provides business logic services for the postcard
// fulfillment pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/ScoeScoe/POSTANOS/config"
	"github.com/ScoeScoe/POSTANOS/internal/core"
	"github.com/ScoeScoe/POSTANOS/internal/data"
	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
	"github.com/ScoeScoe/POSTANOS/internal/lob"
	"github.com/ScoeScoe/POSTANOS/internal/observability/metrics"
	"github.com/ScoeScoe/POSTANOS/internal/observability/statsd"
)

const (
	defaultPostcardSize = "4x6"

	// maxErrorMessageLen bounds the error_message column payload.
	maxErrorMessageLen = 1024
)

// ProcessorOptions groups dependencies for ProcessorService.
type ProcessorOptions struct {
	Store        core.JobStore          // Required: job persistence
	Verifier     core.AddressVerifier   // Required: address verification provider
	Fulfillment  core.FulfillmentClient // Required: print-and-mail provider
	Dispatcher   core.NotificationDispatcher
	Sender       config.SenderConfig
	CallTimeout  time.Duration
	TimeProvider data.TimeProvider
	Logger       *slog.Logger
	Metrics      statsd.Sink
}

// ProcessorService moves a single due job through the verify-submit-record
// pipeline: claim it, verify the recipient address, submit the postcard order,
// and persist the terminal outcome. Failures after the claim always land the
// job in the failed status with an operator-readable message.
type ProcessorService struct {
	store        core.JobStore
	verifier     core.AddressVerifier
	fulfillment  core.FulfillmentClient
	dispatcher   core.NotificationDispatcher
	sender       config.SenderConfig
	callTimeout  time.Duration
	timeProvider data.TimeProvider
	logger       *slog.Logger
	metrics      statsd.Sink
}

// NewProcessorService constructs a new ProcessorService.
func NewProcessorService(opts ProcessorOptions) (*ProcessorService, error) {
	if opts.Store == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.Verifier == nil {
		return nil, errors.New("AddressVerifier is required")
	}
	if opts.Fulfillment == nil {
		return nil, errors.New("FulfillmentClient is required")
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = &data.RealTimeProvider{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}

	return &ProcessorService{
		store:        opts.Store,
		verifier:     opts.Verifier,
		fulfillment:  opts.Fulfillment,
		dispatcher:   opts.Dispatcher,
		sender:       opts.Sender,
		callTimeout:  opts.CallTimeout,
		timeProvider: opts.TimeProvider,
		logger:       opts.Logger.With("component", "processor_service"),
		metrics:      opts.Metrics,
	}, nil
}

// Process runs the full pipeline for one due job. It only returns an error
// when the job could not be landed in a terminal state; provider rejections
// are recorded on the job and reported through the returned error as well so
// the caller can count the outcome.
func (s *ProcessorService) Process(ctx context.Context, job *model.DueJob) error {
	start := s.timeProvider.Now()

	if err := s.validateDueJob(job); err != nil {
		return err
	}

	if job.Job.Status != model.JobStatusPending {
		s.logger.DebugContext(ctx, "skipping job not in pending status",
			"job_id", job.Job.ID,
			"status", job.Job.Status,
		)
		s.emitOutcome(jobOutcome{Transition: "claim", Result: metrics.ResultNoop})
		return nil
	}

	if err := s.claim(ctx, job); err != nil {
		return err
	}

	order, err := s.fulfill(ctx, job)
	if err != nil {
		failErr := s.fail(ctx, job, err)
		s.emitOutcome(jobOutcome{
			Transition: "failed",
			Result:     metrics.ResultError,
			Duration:   s.timeProvider.Now().Sub(start),
			Err:        err,
		})
		if failErr != nil {
			return errors.Join(err, failErr)
		}
		return err
	}

	s.notifyOwner(ctx, job, order)

	s.emitOutcome(jobOutcome{
		Transition: "sent",
		Result:     metrics.ResultSuccess,
		Duration:   s.timeProvider.Now().Sub(start),
	})
	return nil
}

func (s *ProcessorService) validateDueJob(job *model.DueJob) error {
	if job == nil {
		return apperrors.Validation("due job is required")
	}
	if err := job.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid due job")
	}
	return nil
}

// claim moves the job from pending to processing. A conflict here means
// another replica picked the job up first and is not an error worth failing
// the run over.
func (s *ProcessorService) claim(ctx context.Context, job *model.DueJob) error {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := s.store.Transition(callCtx, job.Job.ID, model.JobStatusProcessing, model.TransitionFields{}); err != nil {
		if apperrors.IsConflict(err) {
			s.logger.InfoContext(ctx, "job already claimed by another worker", "job_id", job.Job.ID)
		}
		return fmt.Errorf("claim job %s: %w", job.Job.ID, err)
	}
	job.Job.Status = model.JobStatusProcessing
	return nil
}

// fulfill verifies the address and submits the postcard, then records the
// provider order on the job. Returns the order when the job reached sent.
func (s *ProcessorService) fulfill(ctx context.Context, job *model.DueJob) (*model.FulfillmentOrder, error) {
	verification, err := s.verify(ctx, job)
	if err != nil {
		return nil, err
	}

	req, err := s.buildPostcardRequest(job, verification)
	if err != nil {
		return nil, err
	}

	order, err := s.submit(ctx, job, req)
	if err != nil {
		return nil, err
	}

	if err := s.recordSent(ctx, job, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *ProcessorService) verify(ctx context.Context, job *model.DueJob) (*model.VerificationResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	verification, err := s.verifier.VerifyAddress(callCtx, job.Recipient.Address)
	if err != nil {
		return nil, fmt.Errorf("verify address: %w", err)
	}

	if !verification.Deliverability.Acceptable() {
		return nil, apperrors.Undeliverablef("Address undeliverable: %s", verification.Deliverability)
	}

	if verification.RecipientMoved {
		s.logger.WarnContext(ctx, "recipient has a change-of-address on file; sending to verified address",
			"job_id", job.Job.ID,
		)
	}

	return verification, nil
}

// buildPostcardRequest assembles the order from the verified address, never
// the stored one. The back falls back to the rendered message layout when the
// job has no custom back design.
func (s *ProcessorService) buildPostcardRequest(
	job *model.DueJob,
	verification *model.VerificationResult,
) (*model.PostcardRequest, error) {
	if job.Template.FrontImageURL == "" {
		return nil, apperrors.Validationf("job %s has no front artwork", job.Job.ID)
	}

	back := ""
	if job.Template.BackImageURL != nil && *job.Template.BackImageURL != "" {
		back = *job.Template.BackImageURL
	} else {
		back = lob.BackTemplate(job.Template.MessageText)
	}

	return &model.PostcardRequest{
		To: model.PostcardAddress{
			Name:         job.Recipient.FullName,
			AddressLine1: verification.PrimaryLine,
			AddressLine2: verification.SecondaryLine,
			AddressCity:  verification.City,
			AddressState: verification.State,
			AddressZip:   verification.ZipCode,
		},
		From: model.PostcardAddress{
			Name:         s.sender.Name,
			AddressLine1: s.sender.Line1,
			AddressLine2: s.sender.Line2,
			AddressCity:  s.sender.City,
			AddressState: s.sender.State,
			AddressZip:   s.sender.PostalCode,
		},
		Front:       job.Template.FrontImageURL,
		Back:        back,
		Size:        defaultPostcardSize,
		Description: fmt.Sprintf("%s card for %s", job.OccasionLabel, job.Recipient.FullName),
		Metadata: map[string]string{
			"job_id":  job.Job.ID,
			"user_id": job.Owner.UserID,
		},
	}, nil
}

func (s *ProcessorService) submit(
	ctx context.Context,
	job *model.DueJob,
	req *model.PostcardRequest,
) (*model.FulfillmentOrder, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	order, err := s.fulfillment.CreatePostcard(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("create postcard: %w", err)
	}

	s.logger.InfoContext(ctx, "postcard order submitted",
		"job_id", job.Job.ID,
		"order_id", order.ID,
	)
	return order, nil
}

func (s *ProcessorService) recordSent(
	ctx context.Context,
	job *model.DueJob,
	order *model.FulfillmentOrder,
) error {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	now := s.timeProvider.Now()
	fields := model.TransitionFields{
		LobID:       &order.ID,
		ProcessedAt: &now,
	}
	if order.URL != "" {
		fields.TrackingURL = &order.URL
	}

	if err := s.store.Transition(callCtx, job.Job.ID, model.JobStatusSent, fields); err != nil {
		// The order went out but the record did not stick; the reaper will
		// eventually fail the row. Surface it so operators can reconcile.
		return fmt.Errorf("record sent for job %s (order %s): %w", job.Job.ID, order.ID, err)
	}
	job.Job.Status = model.JobStatusSent
	return nil
}

// fail lands the job in the failed status with the pipeline error recorded on
// the row.
func (s *ProcessorService) fail(ctx context.Context, job *model.DueJob, cause error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	message := truncateMessage(cause.Error(), maxErrorMessageLen)

	err := s.store.Transition(callCtx, job.Job.ID, model.JobStatusFailed, model.TransitionFields{
		ErrorMessage: &message,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record job failure",
			"job_id", job.Job.ID,
			"cause", cause,
			"error", err,
		)
		return fmt.Errorf("record failure for job %s: %w", job.Job.ID, err)
	}

	s.logger.WarnContext(ctx, "job failed",
		"job_id", job.Job.ID,
		"error", cause,
	)
	return nil
}

// notifyOwner tells the job owner their card went out. Jobs created with
// auto-send already carry the owner's intent, so only surprise sends notify.
// Notification failures never fail an already-sent job.
func (s *ProcessorService) notifyOwner(ctx context.Context, job *model.DueJob, order *model.FulfillmentOrder) {
	if s.dispatcher == nil {
		return
	}
	if job.AutoSend || job.Job.NotificationSent {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := s.dispatcher.NotifySent(callCtx, job, order); err != nil {
		s.logger.WarnContext(ctx, "owner notification failed",
			"job_id", job.Job.ID,
			"error", err,
		)
	}
}

// truncateMessage caps s at max bytes without splitting a multi-byte rune.
func truncateMessage(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

type jobOutcome struct {
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

func (s *ProcessorService) emitOutcome(o jobOutcome) {
	if s.metrics == nil {
		return
	}
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Transition: o.Transition,
		Result:     o.Result,
		Duration:   o.Duration,
		Err:        o.Err,
	})
}
