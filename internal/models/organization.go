package models

import (
	"time"

	"github.com/google/uuid"
)

type OrgType string

const (
	OrgTypeGovernment OrgType = "government"
	OrgTypeNGO        OrgType = "ngo"
	OrgTypeVolunteer  OrgType = "volunteer_group"
	OrgTypePrivate    OrgType = "private"
)

type OrgCategory string

const (
	OrgCategoryEmergencyResponse OrgCategory = "emergency_response"
	OrgCategoryMedical           OrgCategory = "medical"
	OrgCategoryRelief            OrgCategory = "relief"
	OrgCategoryLogistics         OrgCategory = "logistics"
	OrgCategoryRescue            OrgCategory = "rescue"
)

type EntityStatus string

const (
	EntityStatusActive     EntityStatus = "active"
	EntityStatusAvailable  EntityStatus = "available"
	EntityStatusOverloaded EntityStatus = "overloaded"
	EntityStatusInactive   EntityStatus = "inactive"
)

// Organization is a responding entity in the fleet.
type Organization struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Type        OrgType      `json:"type"`
	Category    OrgCategory  `json:"category"`
	Region      string       `json:"region,omitempty"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	Capacity    int          `json:"capacity"`
	CurrentLoad int          `json:"current_load"`
	Status      EntityStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ReconcileStatus applies the invariant status=Overloaded iff
// current_load >= capacity, without touching an Inactive org.
func (o *Organization) ReconcileStatus() {
	if o.Status == EntityStatusInactive {
		return
	}
	if o.Capacity > 0 && o.CurrentLoad >= o.Capacity {
		o.Status = EntityStatusOverloaded
		return
	}
	if o.CurrentLoad == 0 {
		o.Status = EntityStatusAvailable
		return
	}
	o.Status = EntityStatusActive
}

// Headroom returns the fraction of capacity still free, in [0,1].
func (o *Organization) Headroom() float64 {
	cap := o.Capacity
	if cap < 1 {
		cap = 1
	}
	h := 1 - float64(o.CurrentLoad)/float64(cap)
	if h < 0 {
		return 0
	}
	return h
}
