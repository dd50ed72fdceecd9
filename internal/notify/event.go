// Package notify defines the owner notification payload and the sink
// contract that delivery backends implement.
package notify

import (
	"context"
	"time"
)

// CardSentPayload captures the canonical data we emit when a postcard was
// submitted on an owner's behalf and the occasion was not set to auto-send.
type CardSentPayload struct {
	JobID         string
	UserID        string
	Email         string
	RecipientName string
	OccasionLabel string
	TrackingURL   string
	SentAt        time.Time
}

// Sink describes a destination capable of consuming card-sent notifications.
type Sink interface {
	SendCardSent(ctx context.Context, payload CardSentPayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload CardSentPayload) error

// SendCardSent implements the Sink interface.
func (f SinkFunc) SendCardSent(ctx context.Context, payload CardSentPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
