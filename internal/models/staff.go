package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleManager    Role = "manager"
	RoleSpecialist Role = "specialist"
	RoleWorker     Role = "worker"
	RoleVolunteer  Role = "volunteer"
	RoleResponder  Role = "responder" // platform role used by authz, distinct from fleet Role
	RoleAdmin      Role = "admin"
)

type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBusy      Availability = "busy"
	AvailabilityOffDuty   Availability = "off_duty"
)

// Staff is an individual responder.
type Staff struct {
	ID           uuid.UUID    `json:"id"`
	OrgID        uuid.UUID    `json:"org_id"`
	DivisionID   *uuid.UUID   `json:"division_id,omitempty"`
	Name         string       `json:"name"`
	Role         Role         `json:"role"`
	Skills       []string     `json:"skills,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Availability Availability `json:"availability"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
	Status       EntityStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func SkillOverlap(required, have []string) float64 {
	if len(required) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}
	matches := 0
	for _, r := range required {
		if _, ok := set[r]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(required))
}
