package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditKind string

const (
	AuditCreate         AuditKind = "create"
	AuditStartWindow    AuditKind = "start_window"
	AuditAccept         AuditKind = "accept"
	AuditReject         AuditKind = "reject"
	AuditComplete       AuditKind = "complete"
	AuditCancel         AuditKind = "cancel"
	AuditDeadlineExpiry AuditKind = "deadline_expiry"
	AuditReconciliation AuditKind = "reconciliation"
	AuditNote           AuditKind = "note"
)

// AuditEvent is an append-only record of a state change.
type AuditEvent struct {
	ID         uuid.UUID `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Principal  string    `json:"principal"`
	IncidentID uuid.UUID `json:"incident_id"`
	Kind       AuditKind `json:"kind"`
	Reason     string    `json:"reason,omitempty"`
	Before     string    `json:"before,omitempty"`
	After      string    `json:"after,omitempty"`
}
