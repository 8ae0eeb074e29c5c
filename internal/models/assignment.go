package models

import "github.com/google/uuid"

// ScoreBreakdown records how a candidate's score was computed, for
// observability and for the `overflow` escalation flag.
type ScoreBreakdown struct {
	OrgScore      float64 `json:"org_score"`
	DivisionScore float64 `json:"division_score,omitempty"`
	StaffScore    float64 `json:"staff_score,omitempty"`
	Total         float64 `json:"total"`
	Overflow      bool    `json:"overflow,omitempty"`
	Disqualified  bool    `json:"disqualified,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// Candidate is one ranked (org, division?, staff?) triplet.
type Candidate struct {
	Org        *Organization   `json:"org"`
	Division   *Division       `json:"division,omitempty"`
	Staff      *Staff          `json:"staff,omitempty"`
	Score      float64         `json:"score"`
	Breakdown  ScoreBreakdown  `json:"score_breakdown"`
}

// FleetSnapshot is a consistent, immutable-for-the-duration-of-one-decision
// read of the fleet used by one invocation of the Assignment Engine.
type FleetSnapshot struct {
	Organizations []Organization
	Divisions     []Division
	Staff         []Staff
	// Excluded holds org IDs to skip entirely (e.g. a rejecting org
	// still inside its cooldown window).
	Excluded map[uuid.UUID]struct{}
}
