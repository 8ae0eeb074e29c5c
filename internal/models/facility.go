package models

import "github.com/google/uuid"

type FacilityType string

const (
	FacilityShelter  FacilityType = "shelter"
	FacilityHospital FacilityType = "hospital"
)

// Facility is a read-only resource (shelter or hospital) used by the
// nearest-facility query. The core never mutates it.
type Facility struct {
	ID              uuid.UUID    `json:"id"`
	Type            FacilityType `json:"type"`
	Name            string       `json:"name"`
	Latitude        float64      `json:"latitude"`
	Longitude       float64      `json:"longitude"`
	Capacity        int          `json:"capacity"`
	CurrentOccupied int          `json:"current_occupied"`
	ICUBeds         int          `json:"icu_beds,omitempty"`
	DistanceKM      float64      `json:"distance_km,omitempty"`
}

func (f *Facility) BedsAvailable() int {
	free := f.Capacity - f.CurrentOccupied
	if free < 0 {
		return 0
	}
	return free
}
