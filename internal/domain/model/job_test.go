package model_test

import (
	"testing"

	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusValid(t *testing.T) {
	valid := []model.JobStatus{
		model.JobStatusPending,
		model.JobStatusProcessing,
		model.JobStatusSent,
		model.JobStatusDelivered,
		model.JobStatusFailed,
		model.JobStatusCancelled,
	}
	for _, s := range valid {
		assert.True(t, s.Valid(), "expected %q to be valid", s)
	}

	assert.False(t, model.JobStatus("").Valid())
	assert.False(t, model.JobStatus("queued").Valid())
	assert.False(t, model.JobStatus("Pending").Valid())
}

func TestJobStatusTerminal(t *testing.T) {
	tests := []struct {
		status   model.JobStatus
		terminal bool
	}{
		{model.JobStatusPending, false},
		{model.JobStatusProcessing, false},
		{model.JobStatusSent, true},
		{model.JobStatusDelivered, true},
		{model.JobStatusFailed, true},
		{model.JobStatusCancelled, true},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.terminal, tc.status.Terminal(), "status %q", tc.status)
	}
}

func TestJobStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    model.JobStatus
		to      model.JobStatus
		allowed bool
	}{
		{"pending to processing", model.JobStatusPending, model.JobStatusProcessing, true},
		{"pending to cancelled", model.JobStatusPending, model.JobStatusCancelled, true},
		{"pending to sent skips claim", model.JobStatusPending, model.JobStatusSent, false},
		{"processing to sent", model.JobStatusProcessing, model.JobStatusSent, true},
		{"processing to failed", model.JobStatusProcessing, model.JobStatusFailed, true},
		{"processing to cancelled", model.JobStatusProcessing, model.JobStatusCancelled, true},
		{"processing back to pending", model.JobStatusProcessing, model.JobStatusPending, false},
		{"sent to delivered", model.JobStatusSent, model.JobStatusDelivered, true},
		{"sent cannot be cancelled", model.JobStatusSent, model.JobStatusCancelled, false},
		{"sent cannot fail", model.JobStatusSent, model.JobStatusFailed, false},
		{"delivered is final", model.JobStatusDelivered, model.JobStatusSent, false},
		{"failed is final", model.JobStatusFailed, model.JobStatusPending, false},
		{"cancelled is final", model.JobStatusCancelled, model.JobStatusProcessing, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestAddressValidate(t *testing.T) {
	valid := model.Address{
		Line1:      "185 Berry St",
		Line2:      "Ste 6100",
		City:       "San Francisco",
		State:      "CA",
		PostalCode: "94107",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		mutate  func(a *model.Address)
		wantErr string
	}{
		{
			name:    "missing line1",
			mutate:  func(a *model.Address) { a.Line1 = "" },
			wantErr: "line1",
		},
		{
			name:    "whitespace line1",
			mutate:  func(a *model.Address) { a.Line1 = "   " },
			wantErr: "line1",
		},
		{
			name:    "missing city",
			mutate:  func(a *model.Address) { a.City = "" },
			wantErr: "city",
		},
		{
			name:    "missing state",
			mutate:  func(a *model.Address) { a.State = "" },
			wantErr: "state",
		},
		{
			name:    "missing postal code",
			mutate:  func(a *model.Address) { a.PostalCode = "" },
			wantErr: "postal_code",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			addr := valid
			tc.mutate(&addr)
			err := addr.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("reports all missing fields", func(t *testing.T) {
		err := (&model.Address{}).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line1, city, state, postal_code")
	})

	t.Run("line2 is optional", func(t *testing.T) {
		addr := valid
		addr.Line2 = ""
		assert.NoError(t, addr.Validate())
	})
}

func TestDueJobValidate(t *testing.T) {
	base := func() model.DueJob {
		return model.DueJob{
			Job: model.Job{ID: "job-1", Status: model.JobStatusPending},
			Recipient: model.RecipientSnapshot{
				FullName: "Ada Lovelace",
				Address: model.Address{
					Line1:      "185 Berry St",
					City:       "San Francisco",
					State:      "CA",
					PostalCode: "94107",
				},
			},
		}
	}

	t.Run("complete job passes", func(t *testing.T) {
		job := base()
		assert.NoError(t, job.Validate())
	})

	t.Run("missing job id", func(t *testing.T) {
		job := base()
		job.Job.ID = ""
		err := job.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "job id")
	})

	t.Run("missing recipient name", func(t *testing.T) {
		job := base()
		job.Recipient.FullName = ""
		err := job.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "recipient name")
	})

	t.Run("incomplete address", func(t *testing.T) {
		job := base()
		job.Recipient.Address.PostalCode = ""
		err := job.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postal_code")
	})
}

func TestDeliverabilityAcceptable(t *testing.T) {
	tests := []struct {
		deliverability model.Deliverability
		acceptable     bool
	}{
		{model.DeliverabilityDeliverable, true},
		{model.DeliverabilityUnnecessaryUnit, true},
		{model.DeliverabilityIncorrectUnit, false},
		{model.DeliverabilityMissingUnit, false},
		{model.DeliverabilityUndeliverable, false},
		{model.Deliverability(""), false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.acceptable, tc.deliverability.Acceptable(), "deliverability %q", tc.deliverability)
	}
}
