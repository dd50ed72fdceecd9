// Package model defines the core data types used throughout the postcard
// fulfillment pipeline.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the lifecycle state of a postcard send job.
type JobStatus string

const (
	// JobStatusPending indicates a job is waiting for its send date to arrive.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates a job has been picked up by the pipeline.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusSent indicates the postcard order was submitted to the mail provider.
	JobStatusSent JobStatus = "sent"
	// JobStatusDelivered indicates the postcard was delivered (set by delivery webhook).
	JobStatusDelivered JobStatus = "delivered"
	// JobStatusFailed indicates the job terminated with an error.
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates the job was cancelled upstream before processing.
	JobStatusCancelled JobStatus = "cancelled"
)

// Valid returns true if the JobStatus is one of the closed set of states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusSent,
		JobStatusDelivered, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true if the pipeline performs no further automatic
// transition from this state. Sent is terminal for the pipeline even though
// the delivery webhook may later move it to delivered.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSent, JobStatusDelivered, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving to next is a legal forward transition.
// Cancellation is only reachable from non-terminal states; a sent postcard is a
// physical artifact and cannot be cancelled.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusCancelled
	case JobStatusProcessing:
		return next == JobStatusSent || next == JobStatusFailed || next == JobStatusCancelled
	case JobStatusSent:
		return next == JobStatusDelivered
	default:
		return false
	}
}

// Job represents a scheduled postcard send.
type Job struct {
	ID               string     `json:"id"                         db:"id"`
	OccasionID       string     `json:"occasion_id"                db:"occasion_id"`
	TemplateID       *string    `json:"template_id,omitempty"      db:"template_id"`
	SendDate         time.Time  `json:"send_date"                  db:"send_date"`
	Status           JobStatus  `json:"status"                     db:"status"`
	LobID            *string    `json:"lob_id,omitempty"           db:"lob_id"`
	LobTrackingURL   *string    `json:"lob_tracking_url,omitempty" db:"lob_tracking_url"`
	NotificationSent bool       `json:"notification_sent"          db:"notification_sent"`
	ErrorMessage     *string    `json:"error_message,omitempty"    db:"error_message"`
	CreatedAt        time.Time  `json:"created_at"                 db:"created_at"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"     db:"processed_at"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"     db:"delivered_at"`
	UpdatedAt        time.Time  `json:"updated_at"                 db:"updated_at"`
}

// Address is the structured mailing address stored on a contact.
// It mirrors the address_json column and is parsed at the store boundary.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country,omitempty"`
}

// Validate checks that the required address components are present.
func (a *Address) Validate() error {
	var missing []string
	if strings.TrimSpace(a.Line1) == "" {
		missing = append(missing, "line1")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		missing = append(missing, "postal_code")
	}
	if len(missing) > 0 {
		return fmt.Errorf("address missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RecipientSnapshot captures the contact name and address at job-fetch time.
type RecipientSnapshot struct {
	FullName string
	Address  Address
}

// TemplateSnapshot captures the artwork and message joined onto a due job.
// BackImageURL is nil when the job has no custom back design, in which case
// the fulfillment layer renders the text-only fallback layout.
type TemplateSnapshot struct {
	FrontImageURL string
	BackImageURL  *string
	MessageText   string
}

// OwnerSnapshot identifies the user who scheduled the send.
type OwnerSnapshot struct {
	UserID     string
	Email      string
	PhoneOptIn bool
}

// DueJob is the strongly typed join row returned by the job store: the job
// itself plus the occasion, recipient, template, and owner data required to
// process it without further reads.
type DueJob struct {
	Job           Job
	OccasionLabel string
	AutoSend      bool
	Recipient     RecipientSnapshot
	Template      TemplateSnapshot
	Owner         OwnerSnapshot
}

// Validate checks that a due job carries everything the processor needs.
func (d *DueJob) Validate() error {
	if d.Job.ID == "" {
		return errors.New("job id is required")
	}
	if d.Recipient.FullName == "" {
		return errors.New("recipient name is required")
	}
	return d.Recipient.Address.Validate()
}

// TransitionFields carries the optional columns written together with a
// status change. Nil fields are left untouched.
type TransitionFields struct {
	LobID        *string
	TrackingURL  *string
	ErrorMessage *string
	ProcessedAt  *time.Time
}
