// Package assignment implements the Assignment Engine (C4): a pure
// function over a fleet snapshot that scores and ranks organisation,
// division and staff candidates for a triaged incident. It performs no
// I/O and mutates nothing (spec.md §4.2, §5).
package assignment

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident-response-core/internal/metrics"
	"github.com/shenikar/incident-response-core/internal/models"
)

const regionRadiusKM = 100

var categoryTypePolicy = map[string][]models.OrgType{
	"Flood Rescue":      {models.OrgTypeGovernment, models.OrgTypeNGO, models.OrgTypeVolunteer},
	"Fire Response":      {models.OrgTypeGovernment, models.OrgTypeNGO},
	"Medical Emergency":  {models.OrgTypeGovernment, models.OrgTypeNGO, models.OrgTypePrivate},
	"Rescue":             {models.OrgTypeGovernment, models.OrgTypeNGO, models.OrgTypeVolunteer},
	"General":            {models.OrgTypeGovernment, models.OrgTypeNGO, models.OrgTypeVolunteer, models.OrgTypePrivate},
}

func typeCompatible(category string, t models.OrgType) bool {
	allowed, ok := categoryTypePolicy[category]
	if !ok {
		allowed = categoryTypePolicy["General"]
	}
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

// Request bundles what Rank needs beyond the fleet snapshot.
type Request struct {
	Triage    models.TriageResult
	Latitude  float64
	Longitude float64
}

// Rank scores and orders every eligible organisation (and, where one
// exists, its best division and staff member) for the given request.
// Inactive and excluded organisations are skipped. An organisation at
// capacity is kept, flagged Overflow, only for a priority-5 request when
// no organisation within regionRadiusKM has headroom; otherwise it is
// dropped, so the result is empty when every eligible organisation is at
// capacity and the priority is below 5.
func Rank(req Request, snap models.FleetSnapshot) []models.Candidate {
	start := time.Now()
	defer func() { metrics.AssignmentRankDuration.Observe(time.Since(start).Seconds()) }()

	canonicalOrgCategory := orgCategoryFor(req.Triage.Category)

	eligible := make([]models.Organization, 0, len(snap.Organizations))
	for _, org := range snap.Organizations {
		if org.Status == models.EntityStatusInactive {
			continue
		}
		if snap.Excluded != nil {
			if _, excluded := snap.Excluded[org.ID]; excluded {
				continue
			}
		}
		eligible = append(eligible, org)
	}

	atCapacity := func(o models.Organization) bool {
		return o.Capacity > 0 && o.CurrentLoad >= o.Capacity
	}

	anyRegionalHeadroom := false
	for _, org := range eligible {
		if atCapacity(org) {
			continue
		}
		if HaversineKM(org.Latitude, org.Longitude, req.Latitude, req.Longitude) <= regionRadiusKM {
			anyRegionalHeadroom = true
			break
		}
	}

	allowOverflow := req.Triage.Priority >= 5 && !anyRegionalHeadroom

	candidates := make([]models.Candidate, 0, len(eligible))
	for _, org := range eligible {
		overflow := false
		if atCapacity(org) {
			if !allowOverflow {
				continue
			}
			overflow = true
		}

		orgScore, breakdown := scoreOrg(org, req, canonicalOrgCategory)
		breakdown.Overflow = overflow

		cand := models.Candidate{
			Org:       cloneOrg(org),
			Score:     0.5 * orgScore,
			Breakdown: breakdown,
		}

		var divisionID *uuid.UUID
		if division, divScore, ok := bestDivision(org.ID, req, snap.Divisions); ok {
			cand.Division = division
			cand.Breakdown.DivisionScore = divScore
			cand.Score += 0.3 * divScore
			divisionID = &division.ID
		}

		if staff, staffScore, ok := bestStaff(org.ID, divisionID, req, snap.Staff); ok {
			cand.Staff = staff
			cand.Breakdown.StaffScore = staffScore
			cand.Score += 0.2 * staffScore
		}

		cand.Breakdown.Total = cand.Score
		candidates = append(candidates, cand)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return lessCandidate(candidates[j], candidates[i], req)
	})

	metrics.AssignmentCandidatesFound.Observe(float64(len(candidates)))
	return candidates
}

// lessCandidate reports whether a ranks strictly after b (a is the less
// preferred of the two; Rank's sort passes the arguments swapped),
// applying the spec.md §4.2 tie-break:
// higher score, then higher headroom, then shorter distance, then
// lexicographically smaller id.
func lessCandidate(a, b models.Candidate, req Request) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.Org.Headroom() != b.Org.Headroom() {
		return a.Org.Headroom() < b.Org.Headroom()
	}
	da := HaversineKM(a.Org.Latitude, a.Org.Longitude, req.Latitude, req.Longitude)
	db := HaversineKM(b.Org.Latitude, b.Org.Longitude, req.Latitude, req.Longitude)
	if da != db {
		// shorter distance preferred -> "a less than b" should mean a sorts
		// after b here, so invert: a longer distance is "less preferred".
		return da > db
	}
	return a.Org.ID.String() > b.Org.ID.String()
}

func scoreOrg(org models.Organization, req Request, canonicalCategory models.OrgCategory) (float64, models.ScoreBreakdown) {
	distanceKM := HaversineKM(org.Latitude, org.Longitude, req.Latitude, req.Longitude)
	distanceFit := DistanceFit(distanceKM, 30)

	typeMatch := 0.0
	if typeCompatible(req.Triage.Category, org.Type) {
		typeMatch = 20
	}

	categoryMatch := 0.0
	if org.Category == canonicalCategory {
		categoryMatch = 20
	}

	headroom := 30 * org.Headroom()

	total := distanceFit + typeMatch + categoryMatch + headroom
	return total, models.ScoreBreakdown{OrgScore: total}
}

func bestDivision(orgID uuid.UUID, req Request, divisions []models.Division) (*models.Division, float64, bool) {
	var best *models.Division
	bestScore := -1.0

	for i := range divisions {
		d := divisions[i]
		if d.OrganizationID != orgID {
			continue
		}
		if d.Status == models.EntityStatusInactive {
			continue
		}
		if string(d.Type) != req.Triage.RequiredDivisionType {
			continue
		}

		typeMatch := 50.0
		headroom := 30 * d.Headroom()
		skillOverlap := 20 * models.SkillOverlap(req.Triage.RequiredSkills, d.Skills)
		score := typeMatch + headroom + skillOverlap

		if score > bestScore {
			bestScore = score
			dCopy := d
			best = &dCopy
		}
	}

	if best == nil {
		return nil, 0, false
	}
	return best, bestScore, true
}

func bestStaff(orgID uuid.UUID, divisionID *uuid.UUID, req Request, staff []models.Staff) (*models.Staff, float64, bool) {
	var best *models.Staff
	bestScore := -1.0

	for i := range staff {
		s := staff[i]
		if s.OrgID != orgID {
			continue
		}
		if s.Status == models.EntityStatusInactive {
			continue
		}
		if divisionID != nil && (s.DivisionID == nil || *s.DivisionID != *divisionID) {
			continue
		}
		if s.Availability == models.AvailabilityBusy || s.Availability == models.AvailabilityOffDuty {
			continue // never returned, spec.md §4.2
		}

		availability := 20.0
		if s.Availability == models.AvailabilityAvailable {
			availability = 40
		}

		skillOverlap := 40 * models.SkillOverlap(req.Triage.RequiredSkills, s.Skills)

		distanceFit := 0.0
		if s.Latitude != nil && s.Longitude != nil {
			distanceFit = DistanceFit(HaversineKM(*s.Latitude, *s.Longitude, req.Latitude, req.Longitude), 20)
		} else {
			distanceFit = 10 // unknown location: half credit, consistent with availability's "unknown location" treatment
		}

		score := availability + skillOverlap + distanceFit
		if score > bestScore {
			bestScore = score
			sCopy := s
			best = &sCopy
		}
	}

	if best == nil {
		return nil, 0, false
	}
	return best, bestScore, true
}

func orgCategoryFor(category string) models.OrgCategory {
	switch category {
	case "Flood Rescue", "Rescue":
		return models.OrgCategoryRescue
	case "Fire Response":
		return models.OrgCategoryEmergencyResponse
	case "Medical Emergency":
		return models.OrgCategoryMedical
	default:
		return models.OrgCategoryEmergencyResponse
	}
}

func cloneOrg(o models.Organization) *models.Organization {
	cp := o
	return &cp
}
