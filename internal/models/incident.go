package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an Incident.
type Status string

const (
	StatusPending           Status = "pending"
	StatusPendingAssignment Status = "pending_assignment"
	StatusInProgress        Status = "in_progress"
	StatusDone              Status = "done"
	StatusCancelled         Status = "cancelled"
)

// Incident is the ticket tracked through the response lifecycle.
type Incident struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id,omitempty"`
	Source     string    `json:"source"`

	Text              string  `json:"text"`
	VoiceTranscript   string  `json:"voice_transcript,omitempty"`
	Category          string  `json:"category"`
	Priority          int     `json:"priority"`
	PlaceLabel        string  `json:"place_label,omitempty"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	HeadcountAffected int     `json:"headcount_affected"`

	RequiredDivisionType string   `json:"required_division_type,omitempty"`
	RequiredSkills       []string `json:"required_skills,omitempty"`
	TriageSource         string   `json:"triage_source,omitempty"`
	TriageConfidence     float64  `json:"triage_confidence,omitempty"`

	Status Status `json:"status"`

	AssignedOrgID      *uuid.UUID `json:"assigned_org_id,omitempty"`
	AssignedDivisionID *uuid.UUID `json:"assigned_division_id,omitempty"`
	AssignedStaffID    *uuid.UUID `json:"assigned_staff_id,omitempty"`

	AssignmentWindowDeadline *time.Time `json:"assignment_window_deadline,omitempty"`
	EstimatedCompletion      *time.Time `json:"estimated_completion,omitempty"`
	ActualCompletion         *time.Time `json:"actual_completion,omitempty"`

	CreatedByPrincipal string `json:"created_by_principal"`
	Notes              string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAssignment reports whether the incident currently carries an
// assigned organisation.
func (i *Incident) HasAssignment() bool {
	return i.AssignedOrgID != nil
}

// IsActive reports whether the incident still holds load against the fleet.
func (i *Incident) IsActive() bool {
	return i.Status == StatusPendingAssignment || i.Status == StatusInProgress
}

// ClampPriority clamps p to the valid [1,5] range required by spec §8.
func ClampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 5 {
		return 5
	}
	return p
}
