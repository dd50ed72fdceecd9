// Package data provides PostgreSQL and Redis backed repositories for the
// postcard fulfillment pipeline.
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ScoeScoe/POSTANOS/internal/data/pgxutil"
	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for postcard job management.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

// SQL used by FetchDueJobs. Each due job carries the occasion, recipient,
// template, and owner snapshots so processing needs no further reads.
const fetchDueJobsSQL = `
  SELECT
    j.id,
    j.occasion_id,
    j.template_id,
    j.send_date,
    j.status,
    j.lob_id,
    j.lob_tracking_url,
    j.notification_sent,
    j.error_message,
    j.created_at,
    j.processed_at,
    j.delivered_at,
    j.updated_at,
    o.label,
    o.auto_send,
    o.message_text,
    c.full_name,
    c.address_json,
    t.front_image_url,
    t.back_image_url,
    u.id,
    u.email,
    u.phone_opt_in
  FROM jobs j
  JOIN occasions o ON o.id = j.occasion_id
  JOIN contacts  c ON c.id = o.contact_id
  JOIN users     u ON u.id = o.user_id
  LEFT JOIN templates t ON t.id = j.template_id
  WHERE j.status = 'pending'
    AND j.send_date <= $1
  ORDER BY j.created_at ASC
  LIMIT $2`

// FetchDueJobs returns pending jobs due on or before asOf, oldest first.
func (r *JobRepo) FetchDueJobs(ctx context.Context, asOf time.Time, limit int) ([]*model.DueJob, error) {
	if limit <= 0 {
		return nil, apperrors.Validationf("fetch limit must be positive, got %d", limit)
	}

	var jobs []*model.DueJob
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, fetchDueJobsSQL, asOf.UTC(), limit)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()

		for rows.Next() {
			job, serr := scanDueJob(rows)
			if serr != nil {
				return serr
			}
			jobs = append(jobs, job)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.MapDBError(err), apperrors.ErrCodeStore, "fetch due jobs")
	}

	return jobs, nil
}

type dueJobRowScanner interface {
	Scan(dest ...any) error
}

type dueJobRowData struct {
	templateID, lobID, trackingURL, errMsg sql.NullString
	processedAt, deliveredAt               sql.NullTime
	messageText                            sql.NullString
	addressJSON                            []byte
	frontImageURL, backImageURL            sql.NullString
}

func (d *dueJobRowData) scanInto(scanner dueJobRowScanner, dj *model.DueJob) error {
	return scanner.Scan(
		&dj.Job.ID,
		&dj.Job.OccasionID,
		&d.templateID,
		&dj.Job.SendDate,
		&dj.Job.Status,
		&d.lobID,
		&d.trackingURL,
		&dj.Job.NotificationSent,
		&d.errMsg,
		&dj.Job.CreatedAt,
		&d.processedAt,
		&d.deliveredAt,
		&dj.Job.UpdatedAt,
		&dj.OccasionLabel,
		&dj.AutoSend,
		&d.messageText,
		&dj.Recipient.FullName,
		&d.addressJSON,
		&d.frontImageURL,
		&d.backImageURL,
		&dj.Owner.UserID,
		&dj.Owner.Email,
		&dj.Owner.PhoneOptIn,
	)
}

func (d *dueJobRowData) apply(dj *model.DueJob) error {
	dj.Job.TemplateID = cloneNullableString(d.templateID)
	dj.Job.LobID = cloneNullableString(d.lobID)
	dj.Job.LobTrackingURL = cloneNullableString(d.trackingURL)
	dj.Job.ErrorMessage = cloneNullableString(d.errMsg)
	dj.Job.ProcessedAt = cloneNullableTime(d.processedAt)
	dj.Job.DeliveredAt = cloneNullableTime(d.deliveredAt)

	if d.messageText.Valid {
		dj.Template.MessageText = d.messageText.String
	}
	if d.frontImageURL.Valid {
		dj.Template.FrontImageURL = d.frontImageURL.String
	}
	dj.Template.BackImageURL = cloneNullableString(d.backImageURL)

	if len(d.addressJSON) > 0 {
		if err := json.Unmarshal(d.addressJSON, &dj.Recipient.Address); err != nil {
			return fmt.Errorf("parse address for job %s: %w", dj.Job.ID, err)
		}
	}
	return nil
}

func scanDueJob(scanner dueJobRowScanner) (*model.DueJob, error) {
	dj := &model.DueJob{}
	var data dueJobRowData
	if err := data.scanInto(scanner, dj); err != nil {
		return nil, err
	}
	if err := data.apply(dj); err != nil {
		return nil, err
	}
	return dj, nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
