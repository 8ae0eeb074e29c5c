package models

import (
	"time"

	"github.com/google/uuid"
)

type DivisionType string

const (
	DivisionMedical          DivisionType = "medical"
	DivisionRescue           DivisionType = "rescue"
	DivisionLogistics        DivisionType = "logistics"
	DivisionCommunication    DivisionType = "communication"
	DivisionEmergencyResponse DivisionType = "emergency_response"
)

// Division is an organisational sub-unit staff belong to.
type Division struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	Type           DivisionType `json:"type"`
	Description    string       `json:"description,omitempty"`
	Skills         []string     `json:"skills,omitempty"`
	Capacity       int          `json:"capacity"`
	CurrentLoad    int          `json:"current_load"`
	Status         EntityStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (d *Division) Headroom() float64 {
	cap := d.Capacity
	if cap < 1 {
		cap = 1
	}
	h := 1 - float64(d.CurrentLoad)/float64(cap)
	if h < 0 {
		return 0
	}
	return h
}
