package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shenikar/incident-response-core/internal/authz"
	"github.com/shenikar/incident-response-core/internal/mobile"
	"github.com/shenikar/incident-response-core/internal/models"
)

// Coordinator is the subset of lifecycle.Coordinator a ticket sink
// needs. A narrow interface rather than the concrete type keeps this
// package from importing lifecycle, which already imports dispatch's
// sibling packages transitively through the Mobile Ingestion Pipeline
// wiring in cmd/main.go.
type Coordinator interface {
	CreateTriaged(ctx context.Context, principal authz.Principal, result models.TriageResult, text, voiceTranscript string, headcount int, source, externalID, placeLabel string, lat, lon float64) (*models.Incident, error)
}

// CoordinatorTicketSink realises a DispatchJob by creating the
// incident directly against the Lifecycle Coordinator, rather than
// calling out to an external ticket-creation endpoint. This is the
// default wiring for mobile-originated submissions (spec.md §4.5's
// pipeline output feeding spec.md §4.3's FSM); HTTPTicketSink remains
// available for deployments that front an external ticketing system
// instead.
type CoordinatorTicketSink struct {
	coordinator Coordinator
}

func NewCoordinatorTicketSink(coordinator Coordinator) *CoordinatorTicketSink {
	return &CoordinatorTicketSink{coordinator: coordinator}
}

func (s *CoordinatorTicketSink) CreateTicket(ctx context.Context, job *models.DispatchJob) error {
	var payload mobile.DispatchPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return &StatusError{StatusCode: 400, Err: fmt.Errorf("unmarshal dispatch payload: %w", err)}
	}

	doc := payload.Document
	_, err := s.coordinator.CreateTriaged(
		ctx,
		authz.Principal{IsWebhook: true},
		payload.Triage,
		doc.Text,
		doc.VoiceTranscript.RawText,
		0,
		"mobile",
		doc.TicketIDClient,
		"",
		doc.Latitude,
		doc.Longitude,
	)
	if err != nil {
		return fmt.Errorf("create incident from dispatch job: %w", err)
	}
	return nil
}
