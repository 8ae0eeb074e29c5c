// Package mobile implements the Mobile Ingestion Pipeline (C6): a
// total, never-failing sequence of normalisation, modality analysis,
// verification and priority-lane mapping that ends in an idempotent
// DispatchJob enqueue (spec.md §4.5).
package mobile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shenikar/incident-response-core/internal/config"
	"github.com/shenikar/incident-response-core/internal/metrics"
	"github.com/shenikar/incident-response-core/internal/models"
)

var weatherTaggedCategories = map[string]bool{
	"Flood Rescue":  true,
	"Fire Response": true,
	"Storm Damage":  true,
}

// Store is the subset of repository.Store the pipeline reads from.
type Store interface {
	CountNearbyRecent(ctx context.Context, lat, lon float64, radiusMeters float64, since time.Time) (int, error)
	EnqueueDispatchJob(ctx context.Context, job *models.DispatchJob) error
}

// Pipeline runs the five stages over one MobileIntakeDocument.
type Pipeline struct {
	store   Store
	sst     STTProvider
	weather WeatherProvider
	cfg     *config.Config
	log     *logrus.Logger
}

func NewPipeline(store Store, stt STTProvider, weather WeatherProvider, cfg *config.Config, log *logrus.Logger) *Pipeline {
	return &Pipeline{store: store, sst: stt, weather: weather, cfg: cfg, log: log}
}

// DispatchPayload is the JSON shape of a DispatchJob's Payload field:
// the full intake document, the pipeline's annotations and the triage
// verdict computed once during intake, so the eventual TicketSink
// never needs to re-triage (see lifecycle.Coordinator.CreateTriaged).
type DispatchPayload struct {
	Document    models.MobileIntakeDocument `json:"document"`
	Annotations models.IntakeAnnotations    `json:"annotations"`
	Triage      models.TriageResult         `json:"triage"`
}

// Result is what the pipeline hands back to the HTTP layer: the
// annotations it computed and the DispatchJob id it enqueued (or
// found, on an idempotency-key replay).
type Result struct {
	Annotations models.IntakeAnnotations
	Job         *models.DispatchJob
}

// Ingest runs the full pipeline. It never returns an error: every
// stage degrades gracefully. A failed enqueue is logged, and the
// returned Job then has a zero ID and was not stored.
func (p *Pipeline) Ingest(ctx context.Context, doc models.MobileIntakeDocument, triaged models.TriageResult) Result {
	log := p.log.WithFields(logrus.Fields{"component": "mobile", "ticket_id_client": doc.TicketIDClient})

	doc = p.normalise(doc)
	doc = p.analyseModality(ctx, doc, log)

	ann := models.IntakeAnnotations{}
	ann.WeatherUnverified = p.verifyWeather(ctx, doc, triaged.Category, log)
	likelyDup, dupID := p.verifyDuplicateDensity(ctx, doc, log)
	ann.LikelyDuplicate = likelyDup
	ann.DuplicateOfID = dupID
	ann.FraudScore = scoreFraud(doc)
	ann.RequiresReview = ann.FraudScore >= p.cfg.FraudScoreThreshold

	ann.Lane = priorityLane(triaged.Priority, ann)

	payload, err := json.Marshal(DispatchPayload{Document: doc, Annotations: ann, Triage: triaged})
	if err != nil {
		log.WithError(err).Error("marshal dispatch payload failed, queuing with empty payload")
	}

	job := &models.DispatchJob{
		TicketClientID: doc.TicketIDClient,
		IdempotencyKey: idempotencyKey(doc),
		Lane:           ann.Lane,
		Payload:        payload,
	}
	if err := p.store.EnqueueDispatchJob(ctx, job); err != nil {
		log.WithError(err).Error("enqueue dispatch job failed")
	} else {
		metrics.DispatchJobsEnqueued.WithLabelValues(string(ann.Lane)).Inc()
	}

	return Result{Annotations: ann, Job: job}
}

func (p *Pipeline) normalise(doc models.MobileIntakeDocument) models.MobileIntakeDocument {
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now().UTC()
	}
	if doc.Metadata.IdempotencyKey == "" {
		doc.Metadata.IdempotencyKey = idempotencyKey(doc)
	}
	return doc
}

func (p *Pipeline) analyseModality(ctx context.Context, doc models.MobileIntakeDocument, log *logrus.Entry) models.MobileIntakeDocument {
	if doc.Text != "" {
		return doc
	}
	if doc.VoiceTranscript.RawText != "" {
		doc.Text = doc.VoiceTranscript.RawText
		return doc
	}
	if doc.AudioFileRef == "" || p.sst == nil {
		return doc
	}

	sttCtx, cancel := context.WithTimeout(ctx, p.cfg.STTTimeout)
	defer cancel()

	transcript, err := p.sst.Transcribe(sttCtx, doc.AudioFileRef)
	if err != nil {
		log.WithError(err).Debug("stt provider unavailable, leaving text empty")
		return doc
	}
	doc.VoiceTranscript = transcript
	doc.Text = transcript.RawText
	return doc
}

func (p *Pipeline) verifyWeather(ctx context.Context, doc models.MobileIntakeDocument, category string, log *logrus.Entry) bool {
	if !weatherTaggedCategories[category] {
		return false
	}
	if p.weather == nil {
		return true
	}

	weatherCtx, cancel := context.WithTimeout(ctx, p.cfg.WeatherTimeout)
	defer cancel()

	_, err := p.weather.CurrentConditions(weatherCtx, roundCoord(doc.Latitude), roundCoord(doc.Longitude))
	if err != nil {
		log.WithError(err).Debug("weather verification miss")
		return true
	}
	return false
}

func (p *Pipeline) verifyDuplicateDensity(ctx context.Context, doc models.MobileIntakeDocument, log *logrus.Entry) (bool, string) {
	since := time.Now().Add(-time.Duration(p.cfg.DuplicateWindowSeconds) * time.Second)
	count, err := p.store.CountNearbyRecent(ctx, doc.Latitude, doc.Longitude, float64(p.cfg.DuplicateRadiusM), since)
	if err != nil {
		log.WithError(err).Debug("duplicate-density query failed, treating as unique")
		return false, ""
	}
	if count >= p.cfg.DuplicateMinCount {
		return true, clusterID(doc.Latitude, doc.Longitude)
	}
	return false, ""
}

// scoreFraud turns four features into a [0,1] score: short text, a
// brand-new device, an off-hours timestamp, and an offline submission
// with no media. Each feature contributes a fixed weight; the weights
// sum to 0.8, so the score never exceeds 0.8. Repeat submissions from a
// device and image-hash collisions are not scored.
func scoreFraud(doc models.MobileIntakeDocument) float64 {
	score := 0.0

	if len(doc.Text) < 10 {
		score += 0.25
	}
	if doc.DeviceInfo.AgeSeconds > 0 && doc.DeviceInfo.AgeSeconds < 60 {
		score += 0.25 // brand-new device submitting immediately
	}
	hour := doc.Timestamp.UTC().Hour()
	if hour >= 1 && hour < 5 {
		score += 0.2 // off_hours_flag
	}
	if doc.Metadata.ConnectivityState == "offline" && len(doc.Image) == 0 && len(doc.Video) == 0 {
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	return score
}

// priorityLane implements spec.md §4.5's mapping table plus the
// likely_duplicate downgrade.
func priorityLane(priority int, ann models.IntakeAnnotations) models.DispatchLane {
	var lane models.DispatchLane
	switch {
	case priority >= 5 && !ann.RequiresReview:
		lane = models.LaneP0
	case priority == 4:
		lane = models.LaneP1
	case priority == 3:
		lane = models.LaneP2
	default:
		lane = models.LaneP3
	}

	if ann.LikelyDuplicate && lane != models.LaneP0 {
		lane = downgrade(lane)
	}
	return lane
}

func downgrade(lane models.DispatchLane) models.DispatchLane {
	for i, l := range models.Lanes {
		if l == lane && i+1 < len(models.Lanes) {
			return models.Lanes[i+1]
		}
	}
	return lane
}

func roundCoord(v float64) float64 {
	return math.Round(v*100) / 100 // ~1.1km grid, per spec.md's "rounded coordinates" cache key
}

func clusterID(lat, lon float64) string {
	return fmt.Sprintf("%.3f,%.3f", lat, lon)
}

func idempotencyKey(doc models.MobileIntakeDocument) string {
	if doc.Metadata.IdempotencyKey != "" {
		return doc.Metadata.IdempotencyKey
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%f|%f", doc.TicketIDClient, doc.Text, doc.Latitude, doc.Longitude)))
	return hex.EncodeToString(sum[:])
}
