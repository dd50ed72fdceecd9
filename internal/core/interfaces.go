package core

import (
	"context"
	"time"

	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
)

// This file contains repository and service interface definitions (ports in
// hexagonal architecture). These interfaces define the contracts between the
// service layer and the data/provider layers. Service implementations should
// depend on these interfaces, not concrete implementations.

// JobStore defines the interface for postcard job data operations.
type JobStore interface {
	// FetchDueJobs returns pending jobs whose send date is on or before asOf,
	// oldest first, joined with their occasion, recipient, template, and owner
	// snapshots. At most limit jobs are returned.
	FetchDueJobs(ctx context.Context, asOf time.Time, limit int) ([]*model.DueJob, error)

	// Transition moves a job to the given status, applying any additional
	// fields atomically with the status change. It rejects transitions the
	// job lifecycle does not allow.
	Transition(ctx context.Context, jobID string, status model.JobStatus, fields model.TransitionFields) error

	// MarkNotified records that the owner notification for a job was sent.
	MarkNotified(ctx context.Context, jobID string) error
}

// StaleJobSweeper defines the interface for reconciling jobs stuck in
// processing after a worker died mid-flight.
type StaleJobSweeper interface {
	// FailStaleProcessingJobs marks processing jobs untouched for longer than
	// maxAge as failed, up to batchSize rows, and returns the number swept.
	FailStaleProcessingJobs(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)
}

// AddressVerifier defines the interface for recipient address verification.
type AddressVerifier interface {
	VerifyAddress(ctx context.Context, addr model.Address) (*model.VerificationResult, error)
}

// FulfillmentClient defines the interface for submitting postcards to the
// print-and-mail provider.
type FulfillmentClient interface {
	CreatePostcard(ctx context.Context, req *model.PostcardRequest) (*model.FulfillmentOrder, error)
}

// JobProcessor defines the interface for processing a single due job through
// the full verify-submit-record pipeline.
type JobProcessor interface {
	Process(ctx context.Context, job *model.DueJob) error
}

// NotificationDispatcher defines the interface for owner-facing notifications.
type NotificationDispatcher interface {
	// NotifySent informs the job owner that a postcard was submitted on their
	// behalf. Implementations must be idempotent per job.
	NotifySent(ctx context.Context, job *model.DueJob, order *model.FulfillmentOrder) error
}

// CacheRepository defines the interface for cache operations backing the
// scheduler run lock and notification dedupe keys.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	// SetIfNotExists sets key to value only if it does not exist and returns
	// true when the key was set.
	SetIfNotExists(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// RunSummary reports the outcome of a single fulfillment pass.
type RunSummary struct {
	Fetched   int `json:"fetched"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// FulfillmentRunner defines the interface for executing a complete
// fulfillment pass over all due jobs.
type FulfillmentRunner interface {
	Run(ctx context.Context, now time.Time) (*RunSummary, error)
}
