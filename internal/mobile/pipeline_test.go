package mobile

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shenikar/incident-response-core/internal/config"
	"github.com/shenikar/incident-response-core/internal/models"
)

type fakeStore struct {
	nearbyCount int
	nearbyErr   error
	enqueued    []*models.DispatchJob
	enqueueErr  error
}

func (f *fakeStore) CountNearbyRecent(context.Context, float64, float64, float64, time.Time) (int, error) {
	return f.nearbyCount, f.nearbyErr
}

func (f *fakeStore) EnqueueDispatchJob(_ context.Context, job *models.DispatchJob) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

type fakeSTT struct {
	transcript models.VoiceTranscript
	err        error
}

func (f fakeSTT) Transcribe(context.Context, string) (models.VoiceTranscript, error) {
	return f.transcript, f.err
}

type fakeWeather struct {
	err error
}

func (f fakeWeather) CurrentConditions(context.Context, float64, float64) (WeatherConditions, error) {
	return WeatherConditions{}, f.err
}

func testPipelineLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func testPipelineCfg() *config.Config {
	return &config.Config{
		FraudScoreThreshold:    0.8,
		STTTimeout:             time.Second,
		WeatherTimeout:         time.Second,
		DuplicateRadiusM:       500,
		DuplicateWindowSeconds: 1800,
		DuplicateMinCount:      3,
	}
}

func TestIngest_EnqueuesJobWithComputedLane(t *testing.T) {
	store := &fakeStore{}
	p := NewPipeline(store, nil, nil, testPipelineCfg(), testPipelineLogger())

	result := p.Ingest(context.Background(), models.MobileIntakeDocument{
		TicketIDClient: "client-1",
		Text:           "smoke and fire everywhere, trapped people need help now",
		Latitude:       40.0,
		Longitude:      -75.0,
	}, models.TriageResult{Category: "Fire Response", Priority: 5})

	require.Len(t, store.enqueued, 1)
	assert.Equal(t, models.LaneP0, result.Annotations.Lane)
	assert.Equal(t, store.enqueued[0], result.Job)
}

func TestIngest_NeverFailsWhenEnqueueErrors(t *testing.T) {
	store := &fakeStore{enqueueErr: errors.New("db down")}
	p := NewPipeline(store, nil, nil, testPipelineCfg(), testPipelineLogger())

	assert.NotPanics(t, func() {
		p.Ingest(context.Background(), models.MobileIntakeDocument{TicketIDClient: "client-2"}, models.TriageResult{Priority: 3})
	})
}

func TestIngest_FallsBackToSTTWhenTextMissing(t *testing.T) {
	store := &fakeStore{}
	stt := fakeSTT{transcript: models.VoiceTranscript{RawText: "help, flooding"}}
	p := NewPipeline(store, stt, nil, testPipelineCfg(), testPipelineLogger())

	doc := models.MobileIntakeDocument{TicketIDClient: "client-3", AudioFileRef: "ref-1"}
	normalised := p.analyseModality(context.Background(), doc, logrus.NewEntry(testPipelineLogger()))

	assert.Equal(t, "help, flooding", normalised.Text)
}

func TestIngest_STTUnavailableLeavesTextEmpty(t *testing.T) {
	store := &fakeStore{}
	stt := fakeSTT{err: errors.New("stt down")}
	p := NewPipeline(store, stt, nil, testPipelineCfg(), testPipelineLogger())

	doc := models.MobileIntakeDocument{TicketIDClient: "client-4", AudioFileRef: "ref-2"}
	normalised := p.analyseModality(context.Background(), doc, logrus.NewEntry(testPipelineLogger()))

	assert.Empty(t, normalised.Text)
}

func TestVerifyWeather_UntaggedCategorySkipsCheck(t *testing.T) {
	p := NewPipeline(&fakeStore{}, nil, nil, testPipelineCfg(), testPipelineLogger())
	unverified := p.verifyWeather(context.Background(), models.MobileIntakeDocument{}, "General", logrus.NewEntry(testPipelineLogger()))
	assert.False(t, unverified)
}

func TestVerifyWeather_ProviderMissUnverified(t *testing.T) {
	p := NewPipeline(&fakeStore{}, nil, fakeWeather{err: errors.New("miss")}, testPipelineCfg(), testPipelineLogger())
	unverified := p.verifyWeather(context.Background(), models.MobileIntakeDocument{}, "Flood Rescue", logrus.NewEntry(testPipelineLogger()))
	assert.True(t, unverified)
}

func TestVerifyDuplicateDensity_FlagsAboveThreshold(t *testing.T) {
	store := &fakeStore{nearbyCount: 5}
	p := NewPipeline(store, nil, nil, testPipelineCfg(), testPipelineLogger())

	dup, clusterID := p.verifyDuplicateDensity(context.Background(), models.MobileIntakeDocument{Latitude: 1, Longitude: 2}, logrus.NewEntry(testPipelineLogger()))
	assert.True(t, dup)
	assert.NotEmpty(t, clusterID)
}

func TestScoreFraud_ShortTextAndOffHoursCompound(t *testing.T) {
	score := scoreFraud(models.MobileIntakeDocument{Text: "help", Timestamp: time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)})
	assert.Greater(t, score, 0.4)
}

func TestPriorityLane_DuplicateDowngradesNonP0(t *testing.T) {
	lane := priorityLane(4, models.IntakeAnnotations{LikelyDuplicate: true})
	assert.Equal(t, models.LaneP2, lane)
}

func TestPriorityLane_DuplicateNeverDowngradesP0(t *testing.T) {
	lane := priorityLane(5, models.IntakeAnnotations{LikelyDuplicate: true})
	assert.Equal(t, models.LaneP0, lane)
}

func TestPriorityLane_RequiresReviewBlocksP0(t *testing.T) {
	lane := priorityLane(5, models.IntakeAnnotations{RequiresReview: true})
	assert.Equal(t, models.LaneP3, lane)
}
