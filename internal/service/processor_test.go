package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ScoeScoe/POSTANOS/config"
	"github.com/ScoeScoe/POSTANOS/internal/domain/model"
	apperrors "github.com/ScoeScoe/POSTANOS/internal/errors"
	"github.com/ScoeScoe/POSTANOS/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJobStore is a simple in-memory JobStore for processor tests.
type fakeJobStore struct {
	transitions      []model.JobStatus
	transitionFields map[model.JobStatus]model.TransitionFields
	transitionErrs   map[model.JobStatus]error
	markNotifiedIDs  []string
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		transitionFields: make(map[model.JobStatus]model.TransitionFields),
		transitionErrs:   make(map[model.JobStatus]error),
	}
}

func (f *fakeJobStore) FetchDueJobs(ctx context.Context, asOf time.Time, limit int) ([]*model.DueJob, error) {
	return nil, nil
}

func (f *fakeJobStore) Transition(
	ctx context.Context,
	jobID string,
	status model.JobStatus,
	fields model.TransitionFields,
) error {
	if err := f.transitionErrs[status]; err != nil {
		return err
	}
	f.transitions = append(f.transitions, status)
	f.transitionFields[status] = fields
	return nil
}

func (f *fakeJobStore) MarkNotified(ctx context.Context, jobID string) error {
	f.markNotifiedIDs = append(f.markNotifiedIDs, jobID)
	return nil
}

type fakeVerifier struct {
	result *model.VerificationResult
	err    error
	called int
}

func (f *fakeVerifier) VerifyAddress(ctx context.Context, addr model.Address) (*model.VerificationResult, error) {
	f.called++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeFulfillment struct {
	order  *model.FulfillmentOrder
	err    error
	gotReq *model.PostcardRequest
	called int
}

func (f *fakeFulfillment) CreatePostcard(ctx context.Context, req *model.PostcardRequest) (*model.FulfillmentOrder, error) {
	f.called++
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

type fakeDispatcher struct {
	called int
	err    error
}

func (f *fakeDispatcher) NotifySent(ctx context.Context, job *model.DueJob, order *model.FulfillmentOrder) error {
	f.called++
	return f.err
}

func deliverableResult() *model.VerificationResult {
	return &model.VerificationResult{
		ID:             "us_ver_1",
		Deliverability: model.DeliverabilityDeliverable,
		PrimaryLine:    "185 BERRY ST",
		SecondaryLine:  "STE 6100",
		City:           "SAN FRANCISCO",
		State:          "CA",
		ZipCode:        "94107",
	}
}

func testSender() config.SenderConfig {
	return config.SenderConfig{
		Name:       "Postanos",
		Line1:      "500 Main St",
		City:       "Portland",
		State:      "OR",
		PostalCode: "97201",
		Country:    "US",
	}
}

type processorFixture struct {
	store       *fakeJobStore
	verifier    *fakeVerifier
	fulfillment *fakeFulfillment
	dispatcher  *fakeDispatcher
	svc         *ProcessorService
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()

	f := &processorFixture{
		store: newFakeJobStore(),
		verifier: &fakeVerifier{
			result: deliverableResult(),
		},
		fulfillment: &fakeFulfillment{
			order: &model.FulfillmentOrder{
				ID:  "psc_1",
				URL: "https://dashboard.lob.com/postcards/psc_1",
			},
		},
		dispatcher: &fakeDispatcher{},
	}

	svc, err := NewProcessorService(ProcessorOptions{
		Store:       f.store,
		Verifier:    f.verifier,
		Fulfillment: f.fulfillment,
		Dispatcher:  f.dispatcher,
		Sender:      testSender(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewProcessorService_RequiresDependencies(t *testing.T) {
	_, err := NewProcessorService(ProcessorOptions{})
	require.Error(t, err)

	_, err = NewProcessorService(ProcessorOptions{Store: newFakeJobStore()})
	require.Error(t, err)

	_, err = NewProcessorService(ProcessorOptions{
		Store:    newFakeJobStore(),
		Verifier: &fakeVerifier{},
	})
	require.Error(t, err)
}

func TestProcessorService_Process_HappyPath(t *testing.T) {
	f := newProcessorFixture(t)
	job := testutil.NewDueJob().Build()

	err := f.svc.Process(context.Background(), job)
	require.NoError(t, err)

	require.Equal(t, []model.JobStatus{model.JobStatusProcessing, model.JobStatusSent}, f.store.transitions)

	sent := f.store.transitionFields[model.JobStatusSent]
	require.NotNil(t, sent.LobID)
	assert.Equal(t, "psc_1", *sent.LobID)
	require.NotNil(t, sent.TrackingURL)
	assert.Equal(t, "https://dashboard.lob.com/postcards/psc_1", *sent.TrackingURL)
	assert.NotNil(t, sent.ProcessedAt)
}

func TestProcessorService_Process_UsesVerifiedAddress(t *testing.T) {
	f := newProcessorFixture(t)
	job := testutil.NewDueJob().
		WithRecipient("Ada Lovelace", model.Address{
			Line1:      "185 berry st",
			City:       "sf",
			State:      "ca",
			PostalCode: "94107",
		}).
		Build()

	err := f.svc.Process(context.Background(), job)
	require.NoError(t, err)

	req := f.fulfillment.gotReq
	require.NotNil(t, req)
	assert.Equal(t, "Ada Lovelace", req.To.Name)
	assert.Equal(t, "185 BERRY ST", req.To.AddressLine1)
	assert.Equal(t, "STE 6100", req.To.AddressLine2)
	assert.Equal(t, "SAN FRANCISCO", req.To.AddressCity)
	assert.Equal(t, "CA", req.To.AddressState)
	assert.Equal(t, "94107", req.To.AddressZip)

	assert.Equal(t, "Postanos", req.From.Name)
	assert.Equal(t, "500 Main St", req.From.AddressLine1)
	assert.Equal(t, "4x6", req.Size)
	assert.Equal(t, job.Job.ID, req.Metadata["job_id"])
	assert.Equal(t, job.Owner.UserID, req.Metadata["user_id"])
}

func TestProcessorService_Process_BackFallsBackToMessageLayout(t *testing.T) {
	f := newProcessorFixture(t)
	job := testutil.NewDueJob().WithMessage("Happy birthday!").Build()
	job.Template.BackImageURL = nil

	err := f.svc.Process(context.Background(), job)
	require.NoError(t, err)

	require.NotNil(t, f.fulfillment.gotReq)
	assert.Contains(t, f.fulfillment.gotReq.Back, "Happy birthday!")
	assert.Contains(t, f.fulfillment.gotReq.Back, "<html>")
}

func TestProcessorService_Process_PrefersCustomBackImage(t *testing.T) {
	f := newProcessorFixture(t)
	job := testutil.NewDueJob().WithBackImage("https://cdn.example.com/back.png").Build()

	err := f.svc.Process(context.Background(), job)
	require.NoError(t, err)

	require.NotNil(t, f.fulfillment.gotReq)
	assert.Equal(t, "https://cdn.example.com/back.png", f.fulfillment.gotReq.Back)
}

func TestProcessorService_Process_SkipsNonPendingJob(t *testing.T) {
	f := newProcessorFixture(t)
	job := testutil.NewDueJob().WithStatus(model.JobStatusSent).Build()

	err := f.svc.Process(context.Background(), job)
	require.NoError(t, err)

	assert.Empty(t, f.store.transitions)
	assert.Zero(t, f.verifier.called)
	assert.Zero(t, f.fulfillment.called)
}

func TestProcessorService_Process_UndeliverableAddressFailsJob(t *testing.T) {
	f := newProcessorFixture(t)
	f.verifier.result = &model.VerificationResult{
		ID:             "us_ver_2",
		Deliverability: model.DeliverabilityUndeliverable,
	}
	job := testutil.NewDueJob().Build()

	err := f.svc.Process(context.Background(), job)
	require.Error(t, err)
	assert.True(t, apperrors.IsUndeliverable(err))

	require.Equal(t, []model.JobStatus{model.JobStatusProcessing, model.JobStatusFailed}, f.store.transitions)
	failed := f.store.transitionFields[model.JobStatusFailed]
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "Address undeliverable: undeliverable", *failed.ErrorMessage)
	assert.Zero(t, f.fulfillment.called)
}

func TestProcessorService_Process_MissingUnitIsRejected(t *testing.T) {
	f := newProcessorFixture(t)
	f.verifier.result = &model.VerificationResult{
		Deliverability: model.DeliverabilityMissingUnit,
	}
	job := testutil.NewDueJob().Build()

	err := f.svc.Process(context.Background(), job)
	require.Error(t, err)
	assert.True(t, apperrors.IsUndeliverable(err))
	assert.Zero(t, f.fulfillment.called)
}

func TestProcessorService_Process_FulfillmentErrorFailsJob(t *testing.T) {
	f := newProcessorFixture(t)
	f.fulfillment.err = apperrors.Fulfillmentf("lob api error (status 422): front is invalid")
	job := testutil.NewDueJob().Build()

	err := f.svc.Process(context.Background(), job)
	require.Error(t, err)
	assert.True(t, apperrors.IsFulfillment(err))

	require.Equal(t, []model.JobStatus{model.JobStatusProcessing, model.JobStatusFailed}, f.store.transitions)
	failed := f.store.transitionFields[model.JobStatusFailed]
	require.NotNil(t, failed.ErrorMessage)
	assert.Contains(t, *failed.ErrorMessage, "front is invalid")
}

func TestProcessorService_Process_MissingFrontArtworkFailsJob(t *testing.T) {
	f := newProcessorFixture(t)
	job := testutil.NewDueJob().WithFrontImage("").Build()

	err := f.svc.Process(context.Background(), job)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	require.Equal(t, []model.JobStatus{model.JobStatusProcessing, model.JobStatusFailed}, f.store.transitions)
	assert.Zero(t, f.fulfillment.called)
}

func TestProcessorService_Process_ClaimConflictReturnsWithoutFulfillment(t *testing.T) {
	f := newProcessorFixture(t)
	f.store.transitionErrs[model.JobStatusProcessing] = apperrors.Conflict("illegal transition")
	job := testutil.NewDueJob().Build()

	err := f.svc.Process(context.Background(), job)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Zero(t, f.verifier.called)
	assert.Zero(t, f.fulfillment.called)
}

func TestProcessorService_Process_NotifiesOwnerForManualSend(t *testing.T) {
	f := newProcessorFixture(t)
	job := testutil.NewDueJob().WithAutoSend(false).Build()

	err := f.svc.Process(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, f.dispatcher.called)
}

func TestProcessorService_Process_SkipsNotificationForAutoSend(t *testing.T) {
	f := newProcessorFixture(t)
	job := testutil.NewDueJob().WithAutoSend(true).Build()

	err := f.svc.Process(context.Background(), job)
	require.NoError(t, err)
	assert.Zero(t, f.dispatcher.called)
}

func TestProcessorService_Process_SkipsNotificationAlreadySent(t *testing.T) {
	f := newProcessorFixture(t)
	job := testutil.NewDueJob().WithAutoSend(false).WithNotificationSent().Build()

	err := f.svc.Process(context.Background(), job)
	require.NoError(t, err)
	assert.Zero(t, f.dispatcher.called)
}

func TestProcessorService_Process_NotificationFailureDoesNotFailJob(t *testing.T) {
	f := newProcessorFixture(t)
	f.dispatcher.err = apperrors.Notificationf("onesignal unavailable")
	job := testutil.NewDueJob().WithAutoSend(false).Build()

	err := f.svc.Process(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, []model.JobStatus{model.JobStatusProcessing, model.JobStatusSent}, f.store.transitions)
}

func TestProcessorService_Process_TruncatesLongErrorMessages(t *testing.T) {
	f := newProcessorFixture(t)
	f.fulfillment.err = apperrors.Fulfillment(strings.Repeat("x", 3000))
	job := testutil.NewDueJob().Build()

	err := f.svc.Process(context.Background(), job)
	require.Error(t, err)

	failed := f.store.transitionFields[model.JobStatusFailed]
	require.NotNil(t, failed.ErrorMessage)
	assert.LessOrEqual(t, len(*failed.ErrorMessage), 1024)
}

func TestProcessorService_Process_TruncationKeepsRuneBoundary(t *testing.T) {
	f := newProcessorFixture(t)
	// Three-byte runes guarantee the 1024-byte cutoff lands mid-rune.
	f.fulfillment.err = apperrors.Fulfillment(strings.Repeat("テ", 500))
	job := testutil.NewDueJob().Build()

	err := f.svc.Process(context.Background(), job)
	require.Error(t, err)

	failed := f.store.transitionFields[model.JobStatusFailed]
	require.NotNil(t, failed.ErrorMessage)
	assert.LessOrEqual(t, len(*failed.ErrorMessage), 1024)
	assert.True(t, utf8.ValidString(*failed.ErrorMessage))
}

func TestProcessorService_Process_InvalidJobRejectedBeforeClaim(t *testing.T) {
	f := newProcessorFixture(t)

	err := f.svc.Process(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	job := testutil.NewDueJob().WithRecipient("", model.Address{}).Build()
	err = f.svc.Process(context.Background(), job)
	require.Error(t, err)
	assert.Empty(t, f.store.transitions)
}
