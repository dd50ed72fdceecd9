package testutil

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
)

// SeedParams carries optional overrides for seeding a full job graph.
type SeedParams struct {
	Email       string
	FullName    string
	Address     model.Address
	Label       string
	AutoSend    bool
	MessageText string
	// WithTemplate seeds a template row and links it to the job.
	WithTemplate  bool
	FrontImageURL string
	BackImageURL  *string
	SendDate      time.Time
	Status        model.JobStatus
	CreatedAt     time.Time
}

// SeededJob holds the IDs produced by SeedJobGraph.
type SeededJob struct {
	UserID     string
	ContactID  string
	OccasionID string
	TemplateID *string
	JobID      string
}

// DefaultAddress returns a deliverable-looking address for tests.
func DefaultAddress() model.Address {
	return model.Address{
		Line1:      "185 Berry St",
		Line2:      "Suite 6100",
		City:       "San Francisco",
		State:      "CA",
		PostalCode: "94107",
		Country:    "US",
	}
}

func (p *SeedParams) applyDefaults() {
	if p.Email == "" {
		p.Email = uuid.NewString() + "@example.com"
	}
	if p.FullName == "" {
		p.FullName = "Ada Lovelace"
	}
	if p.Address == (model.Address{}) {
		p.Address = DefaultAddress()
	}
	if p.Label == "" {
		p.Label = "Birthday"
	}
	if p.MessageText == "" {
		p.MessageText = "Happy birthday!\nLove, us"
	}
	if p.WithTemplate && p.FrontImageURL == "" {
		p.FrontImageURL = "https://cdn.example.com/front.png"
	}
	if p.SendDate.IsZero() {
		p.SendDate = TestTime()
	}
	if p.Status == "" {
		p.Status = model.JobStatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = TestTime().Add(-24 * time.Hour)
	}
}

// SeedJobGraph inserts a user, contact, occasion, optional template, and job,
// returning the generated IDs. Fails the test on any insert error.
func SeedJobGraph(t TestingTB, db *sql.DB, params SeedParams) SeededJob {
	t.Helper()
	params.applyDefaults()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	seeded := SeededJob{
		UserID:     uuid.NewString(),
		ContactID:  uuid.NewString(),
		OccasionID: uuid.NewString(),
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO users (id, email) VALUES ($1, $2)`,
		seeded.UserID, params.Email,
	); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	addressJSON, err := json.Marshal(params.Address)
	if err != nil {
		t.Fatalf("marshal address: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO contacts (id, user_id, full_name, address_json) VALUES ($1, $2, $3, $4)`,
		seeded.ContactID, seeded.UserID, params.FullName, addressJSON,
	); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO occasions (id, user_id, contact_id, label, auto_send, message_text)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		seeded.OccasionID, seeded.UserID, seeded.ContactID,
		params.Label, params.AutoSend, params.MessageText,
	); err != nil {
		t.Fatalf("seed occasion: %v", err)
	}

	if params.WithTemplate {
		templateID := uuid.NewString()
		if _, err := db.ExecContext(ctx,
			`INSERT INTO templates (id, front_image_url, back_image_url) VALUES ($1, $2, $3)`,
			templateID, params.FrontImageURL, params.BackImageURL,
		); err != nil {
			t.Fatalf("seed template: %v", err)
		}
		seeded.TemplateID = &templateID
	}

	seeded.JobID = uuid.NewString()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO jobs (id, occasion_id, template_id, send_date, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		seeded.JobID, seeded.OccasionID, seeded.TemplateID,
		params.SendDate, params.Status, params.CreatedAt.UTC(),
	); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	return seeded
}

// DueJobBuilder provides a fluent interface for building DueJob values in
// unit tests that never touch the database.
type DueJobBuilder struct {
	dj *model.DueJob
}

// NewDueJob creates a DueJobBuilder with sensible defaults.
func NewDueJob() *DueJobBuilder {
	return &DueJobBuilder{
		dj: &model.DueJob{
			Job: model.Job{
				ID:         uuid.NewString(),
				OccasionID: uuid.NewString(),
				SendDate:   TestTime(),
				Status:     model.JobStatusPending,
				CreatedAt:  TestTime().Add(-24 * time.Hour),
				UpdatedAt:  TestTime().Add(-24 * time.Hour),
			},
			OccasionLabel: "Birthday",
			AutoSend:      true,
			Recipient: model.RecipientSnapshot{
				FullName: "Ada Lovelace",
				Address:  DefaultAddress(),
			},
			Template: model.TemplateSnapshot{
				FrontImageURL: "https://cdn.example.com/front.png",
				MessageText:   "Happy birthday!\nLove, us",
			},
			Owner: model.OwnerSnapshot{
				UserID: uuid.NewString(),
				Email:  "owner@example.com",
			},
		},
	}
}

// WithStatus sets the job status.
func (b *DueJobBuilder) WithStatus(status model.JobStatus) *DueJobBuilder {
	b.dj.Job.Status = status
	return b
}

// WithAutoSend sets the occasion auto-send flag.
func (b *DueJobBuilder) WithAutoSend(autoSend bool) *DueJobBuilder {
	b.dj.AutoSend = autoSend
	return b
}

// WithLabel sets the occasion label.
func (b *DueJobBuilder) WithLabel(label string) *DueJobBuilder {
	b.dj.OccasionLabel = label
	return b
}

// WithRecipient sets the recipient name and address.
func (b *DueJobBuilder) WithRecipient(name string, addr model.Address) *DueJobBuilder {
	b.dj.Recipient = model.RecipientSnapshot{FullName: name, Address: addr}
	return b
}

// WithBackImage sets a custom back design URL on the template snapshot.
func (b *DueJobBuilder) WithBackImage(url string) *DueJobBuilder {
	b.dj.Template.BackImageURL = &url
	return b
}

// WithMessage sets the card message text.
func (b *DueJobBuilder) WithMessage(message string) *DueJobBuilder {
	b.dj.Template.MessageText = message
	return b
}

// WithFrontImage sets the front artwork URL.
func (b *DueJobBuilder) WithFrontImage(url string) *DueJobBuilder {
	b.dj.Template.FrontImageURL = url
	return b
}

// WithNotificationSent marks the owner notification as already sent.
func (b *DueJobBuilder) WithNotificationSent() *DueJobBuilder {
	b.dj.Job.NotificationSent = true
	return b
}

// Build returns the constructed DueJob.
func (b *DueJobBuilder) Build() *model.DueJob {
	return b.dj
}
