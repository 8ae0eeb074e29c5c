package dispatch

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/shenikar/incident-response-core/internal/config"
	"github.com/shenikar/incident-response-core/internal/dispatch/mocks"
	"github.com/shenikar/incident-response-core/internal/models"
)

func testPoolLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func testCfg() *config.Config {
	return &config.Config{
		MobileDispatchMaxAttempts:    3,
		MobileDispatchInitialBackoff: time.Millisecond,
		MobileDispatchMaxBackoff:     10 * time.Millisecond,
		MobileDispatchTimeout:        time.Second,
		DispatchWorkerCount:          1,
		DispatchFairnessTicket:       2,
	}
}

func TestDeliver_SuccessMarksDelivered(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	sink := mocks.NewMockTicketSink(ctrl)
	job := &models.DispatchJob{ID: uuid.New(), Lane: models.LaneP0}

	sink.EXPECT().CreateTicket(gomock.Any(), job).Return(nil)
	store.EXPECT().MarkDispatchJobDelivered(gomock.Any(), job.ID).Return(nil)

	pool := NewPool(store, sink, testCfg(), testPoolLogger(), nil)
	pool.deliver(context.Background(), job, logrus.NewEntry(testPoolLogger()))
}

func TestDeliver_TerminalStatusMarksFailedAndAlerts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	sink := mocks.NewMockTicketSink(ctrl)
	alerter := mocks.NewMockAlerter(ctrl)
	job := &models.DispatchJob{ID: uuid.New(), TicketClientID: "client-1", Lane: models.LaneP0}

	sinkErr := &StatusError{StatusCode: 422, Err: errors.New("bad payload")}
	sink.EXPECT().CreateTicket(gomock.Any(), job).Return(sinkErr)
	store.EXPECT().MarkDispatchJobFailedTerminal(gomock.Any(), job.ID, gomock.Any()).Return(nil)
	alerter.EXPECT().AlertDispatchFailure(job.ID, job.TicketClientID, job.Attempts, gomock.Any())

	pool := NewPool(store, sink, testCfg(), testPoolLogger(), alerter)
	pool.deliver(context.Background(), job, logrus.NewEntry(testPoolLogger()))
}

func TestDeliver_RetryableErrorReschedulesWithoutAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	sink := mocks.NewMockTicketSink(ctrl)
	alerter := mocks.NewMockAlerter(ctrl)
	job := &models.DispatchJob{ID: uuid.New(), Attempts: 0, Lane: models.LaneP0}

	sink.EXPECT().CreateTicket(gomock.Any(), job).Return(&StatusError{StatusCode: 503, Err: errors.New("unavailable")})
	store.EXPECT().RetryDispatchJob(gomock.Any(), job.ID, 1, 3, gomock.Any(), gomock.Any()).Return(nil)
	alerter.EXPECT().AlertDispatchFailure(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	pool := NewPool(store, sink, testCfg(), testPoolLogger(), alerter)
	pool.deliver(context.Background(), job, logrus.NewEntry(testPoolLogger()))
}

func TestDeliver_ExhaustedRetriesAlerts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	sink := mocks.NewMockTicketSink(ctrl)
	alerter := mocks.NewMockAlerter(ctrl)
	job := &models.DispatchJob{ID: uuid.New(), Attempts: 2, Lane: models.LaneP0}

	sink.EXPECT().CreateTicket(gomock.Any(), job).Return(&StatusError{StatusCode: 0, Err: errors.New("timeout")})
	store.EXPECT().RetryDispatchJob(gomock.Any(), job.ID, 3, 3, gomock.Any(), gomock.Any()).Return(nil)
	alerter.EXPECT().AlertDispatchFailure(job.ID, job.TicketClientID, 3, gomock.Any())

	pool := NewPool(store, sink, testCfg(), testPoolLogger(), alerter)
	pool.deliver(context.Background(), job, logrus.NewEntry(testPoolLogger()))
}

func TestClaimNext_StrictPriorityOrderByDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	wantJob := &models.DispatchJob{ID: uuid.New(), Lane: models.LaneP1}

	store.EXPECT().ClaimNextDispatchJob(gomock.Any(), models.LaneP0).Return(nil, nil)
	store.EXPECT().ClaimNextDispatchJob(gomock.Any(), models.LaneP1).Return(wantJob, nil)

	pool := NewPool(store, mocks.NewMockTicketSink(ctrl), testCfg(), testPoolLogger(), nil)
	got, err := pool.claimNext(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, wantJob, got)
}

func TestClaimNext_FairnessTicketReversesLaneOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	wantJob := &models.DispatchJob{ID: uuid.New(), Lane: models.LaneP3}

	store.EXPECT().ClaimNextDispatchJob(gomock.Any(), models.LaneP3).Return(wantJob, nil)

	pool := NewPool(store, mocks.NewMockTicketSink(ctrl), testCfg(), testPoolLogger(), nil)
	// jobsHandled=2 with DispatchFairnessTicket=2 triggers the reversed order.
	got, err := pool.claimNext(context.Background(), 2)
	assert.NoError(t, err)
	assert.Equal(t, wantJob, got)
}

func TestNextBackoff_CapsAtMax(t *testing.T) {
	d := nextBackoff(10, time.Second, 5*time.Second)
	assert.LessOrEqual(t, d, 5*time.Second)
}
