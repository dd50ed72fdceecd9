package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
	"github.com/ScoeScoe/POSTANOS/internal/testutil"
)

// TestJobRepo_Integration_FetchDueJobs tests the due-job scan with its joins,
// ordering, and limit behavior.
func TestJobRepo_Integration_FetchDueJobs(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		now := testutil.TestTime()

		// Oldest job first, one future job that must not be returned.
		older := testutil.SeedJobGraph(t, db, testutil.SeedParams{
			SendDate:  now.AddDate(0, 0, -1),
			CreatedAt: now.Add(-48 * time.Hour),
			AutoSend:  true,
		})
		newer := testutil.SeedJobGraph(t, db, testutil.SeedParams{
			SendDate:     now,
			CreatedAt:    now.Add(-24 * time.Hour),
			WithTemplate: true,
		})
		testutil.SeedJobGraph(t, db, testutil.SeedParams{
			SendDate: now.AddDate(0, 0, 7), // not yet due
		})
		testutil.SeedJobGraph(t, db, testutil.SeedParams{
			SendDate: now.AddDate(0, 0, -1),
			Status:   model.JobStatusSent, // already handled
		})

		jobs, err := repo.FetchDueJobs(context.Background(), now, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 2)

		// Oldest created_at first.
		assert.Equal(t, older.JobID, jobs[0].Job.ID)
		assert.Equal(t, newer.JobID, jobs[1].Job.ID)

		// Joined snapshots are populated.
		first := jobs[0]
		assert.True(t, first.AutoSend)
		assert.Equal(t, "Birthday", first.OccasionLabel)
		assert.Equal(t, "Ada Lovelace", first.Recipient.FullName)
		assert.Equal(t, "185 Berry St", first.Recipient.Address.Line1)
		assert.Equal(t, "94107", first.Recipient.Address.PostalCode)
		assert.NotEmpty(t, first.Owner.UserID)
		assert.NotEmpty(t, first.Owner.Email)
		assert.NoError(t, first.Validate())

		// Template join is optional.
		assert.Empty(t, first.Template.FrontImageURL)
		assert.NotEmpty(t, jobs[1].Template.FrontImageURL)

		// Limit caps the scan.
		limited, err := repo.FetchDueJobs(context.Background(), now, 1)
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, older.JobID, limited[0].Job.ID)
	})
}

func TestJobRepo_Integration_FetchDueJobs_InvalidLimit(t *testing.T) {
	repo := NewJobRepo(nil, RepoConfig{})
	_, err := repo.FetchDueJobs(context.Background(), time.Now(), 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

// TestJobRepo_Integration_TransitionLifecycle walks a job through the full
// pending -> processing -> sent path and checks persisted fields.
func TestJobRepo_Integration_TransitionLifecycle(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		ctx := context.Background()
		seeded := testutil.SeedJobGraph(t, db, testutil.SeedParams{})

		require.NoError(t, repo.Transition(ctx, seeded.JobID, model.JobStatusProcessing, model.TransitionFields{}))

		lobID := "psc_abc123"
		trackingURL := "https://dashboard.lob.com/postcards/psc_abc123"
		processedAt := testutil.TestTime()
		require.NoError(t, repo.Transition(ctx, seeded.JobID, model.JobStatusSent, model.TransitionFields{
			LobID:       &lobID,
			TrackingURL: &trackingURL,
			ProcessedAt: &processedAt,
		}))

		var (
			status       string
			gotLobID     sql.NullString
			gotTracking  sql.NullString
			gotProcessed sql.NullTime
		)
		err := db.QueryRow(
			`SELECT status, lob_id, lob_tracking_url, processed_at FROM jobs WHERE id = $1`,
			seeded.JobID,
		).Scan(&status, &gotLobID, &gotTracking, &gotProcessed)
		require.NoError(t, err)
		assert.Equal(t, "sent", status)
		assert.Equal(t, lobID, gotLobID.String)
		assert.Equal(t, trackingURL, gotTracking.String)
		assert.True(t, gotProcessed.Valid)

		// Sent is terminal for the pipeline; only delivered is reachable.
		err = repo.Transition(ctx, seeded.JobID, model.JobStatusProcessing, model.TransitionFields{})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))

		require.NoError(t, repo.Transition(ctx, seeded.JobID, model.JobStatusDelivered, model.TransitionFields{}))

		var deliveredAt sql.NullTime
		require.NoError(t, db.QueryRow(
			`SELECT delivered_at FROM jobs WHERE id = $1`, seeded.JobID,
		).Scan(&deliveredAt))
		assert.True(t, deliveredAt.Valid)
	})
}

func TestJobRepo_Integration_TransitionIllegalAndMissing(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		ctx := context.Background()

		seeded := testutil.SeedJobGraph(t, db, testutil.SeedParams{})

		// pending -> sent skips processing and must be rejected.
		err := repo.Transition(ctx, seeded.JobID, model.JobStatusSent, model.TransitionFields{})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))

		// Unknown job.
		err = repo.Transition(ctx, "00000000-0000-0000-0000-000000000000", model.JobStatusProcessing, model.TransitionFields{})
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))

		// Invalid status never reaches the database.
		err = repo.Transition(ctx, seeded.JobID, model.JobStatus("bogus"), model.TransitionFields{})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestJobRepo_Integration_MarkNotified(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewJobRepo(db, RepoConfig{})
		ctx := context.Background()

		seeded := testutil.SeedJobGraph(t, db, testutil.SeedParams{})
		require.NoError(t, repo.MarkNotified(ctx, seeded.JobID))

		var notified bool
		require.NoError(t, db.QueryRow(
			`SELECT notification_sent FROM jobs WHERE id = $1`, seeded.JobID,
		).Scan(&notified))
		assert.True(t, notified)

		err := repo.MarkNotified(ctx, "00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

// TestJobRepo_Integration_FailStaleProcessingJobs verifies the reaper sweep
// only touches processing rows past the cutoff.
func TestJobRepo_Integration_FailStaleProcessingJobs(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		now := testutil.TestTime()
		repo := NewJobRepo(db, RepoConfig{TimeProvider: NewFixedTimeProvider(now)})
		ctx := context.Background()

		stale := testutil.SeedJobGraph(t, db, testutil.SeedParams{Status: model.JobStatusProcessing})
		fresh := testutil.SeedJobGraph(t, db, testutil.SeedParams{Status: model.JobStatusProcessing})
		pending := testutil.SeedJobGraph(t, db, testutil.SeedParams{})

		// Age the stale row past the cutoff; keep the fresh one current.
		_, err := db.Exec(`UPDATE jobs SET updated_at = $1 WHERE id = $2`,
			now.Add(-3*time.Hour), stale.JobID)
		require.NoError(t, err)
		_, err = db.Exec(`UPDATE jobs SET updated_at = $1 WHERE id IN ($2, $3)`,
			now.Add(-10*time.Minute), fresh.JobID, pending.JobID)
		require.NoError(t, err)

		swept, err := repo.FailStaleProcessingJobs(ctx, 2*time.Hour, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), swept)

		var status string
		var errMsg sql.NullString
		require.NoError(t, db.QueryRow(
			`SELECT status, error_message FROM jobs WHERE id = $1`, stale.JobID,
		).Scan(&status, &errMsg))
		assert.Equal(t, "failed", status)
		assert.Equal(t, staleProcessingError, errMsg.String)

		require.NoError(t, db.QueryRow(
			`SELECT status FROM jobs WHERE id = $1`, fresh.JobID).Scan(&status))
		assert.Equal(t, "processing", status)

		require.NoError(t, db.QueryRow(
			`SELECT status FROM jobs WHERE id = $1`, pending.JobID).Scan(&status))
		assert.Equal(t, "pending", status)

		// Second sweep finds nothing.
		swept, err = repo.FailStaleProcessingJobs(ctx, 2*time.Hour, 100)
		require.NoError(t, err)
		assert.Zero(t, swept)
	})
}

func TestJobRepo_FailStaleProcessingJobs_Validation(t *testing.T) {
	repo := NewJobRepo(nil, RepoConfig{})

	_, err := repo.FailStaleProcessingJobs(context.Background(), 0, 100)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = repo.FailStaleProcessingJobs(context.Background(), time.Hour, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
