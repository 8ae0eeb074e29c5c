package models

import (
	"time"

	"github.com/google/uuid"
)

type DispatchLane string

const (
	LaneP0 DispatchLane = "p0"
	LaneP1 DispatchLane = "p1"
	LaneP2 DispatchLane = "p2"
	LaneP3 DispatchLane = "p3"
)

// Lanes in strict priority order, p0 first.
var Lanes = []DispatchLane{LaneP0, LaneP1, LaneP2, LaneP3}

type DispatchState string

const (
	DispatchQueued         DispatchState = "queued"
	DispatchInFlight       DispatchState = "in_flight"
	DispatchDelivered      DispatchState = "delivered"
	DispatchFailedTerminal DispatchState = "failed_terminal"
)

// DispatchJob is a queued, idempotent request to create (or otherwise
// deliver) a downstream ticket from a mobile intake submission.
type DispatchJob struct {
	ID             uuid.UUID     `json:"id"`
	TicketClientID string        `json:"ticket_id_client"`
	IdempotencyKey string        `json:"idempotency_key"`
	Lane           DispatchLane  `json:"lane"`
	Payload        []byte        `json:"payload"`
	Attempts       int           `json:"attempts"`
	NextAttemptAt  time.Time     `json:"next_attempt_at"`
	State          DispatchState `json:"state"`
	LastError      string        `json:"last_error,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
