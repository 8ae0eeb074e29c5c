package assignment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shenikar/incident-response-core/internal/models"
)

func baseRequest() Request {
	return Request{
		Triage:    models.TriageResult{Category: "Fire Response", Priority: 4, RequiredDivisionType: "rescue"},
		Latitude:  40.0,
		Longitude: -75.0,
	}
}

func TestRank_PrefersCloserHigherHeadroomOrg(t *testing.T) {
	near := models.Organization{
		ID: uuid.New(), Type: models.OrgTypeGovernment, Category: models.OrgCategoryEmergencyResponse,
		Latitude: 40.01, Longitude: -75.01, Capacity: 10, CurrentLoad: 1, Status: models.EntityStatusActive,
	}
	far := models.Organization{
		ID: uuid.New(), Type: models.OrgTypeGovernment, Category: models.OrgCategoryEmergencyResponse,
		Latitude: 42.0, Longitude: -77.0, Capacity: 10, CurrentLoad: 1, Status: models.EntityStatusActive,
	}

	snap := models.FleetSnapshot{Organizations: []models.Organization{far, near}}
	candidates := Rank(baseRequest(), snap)

	require.Len(t, candidates, 2)
	assert.Equal(t, near.ID, candidates[0].Org.ID)
}

func TestRank_SkipsInactiveOrganizations(t *testing.T) {
	inactive := models.Organization{ID: uuid.New(), Status: models.EntityStatusInactive, Latitude: 40, Longitude: -75}
	snap := models.FleetSnapshot{Organizations: []models.Organization{inactive}}

	candidates := Rank(baseRequest(), snap)
	assert.Empty(t, candidates)
}

func TestRank_SkipsExcludedOrganizations(t *testing.T) {
	org := models.Organization{ID: uuid.New(), Status: models.EntityStatusActive, Capacity: 5, Latitude: 40, Longitude: -75}
	snap := models.FleetSnapshot{
		Organizations: []models.Organization{org},
		Excluded:      map[uuid.UUID]struct{}{org.ID: {}},
	}

	candidates := Rank(baseRequest(), snap)
	assert.Empty(t, candidates)
}

func TestRank_SkipsAtCapacityOrgUnlessOverflowAllowed(t *testing.T) {
	full := models.Organization{ID: uuid.New(), Status: models.EntityStatusActive, Capacity: 2, CurrentLoad: 2, Latitude: 40, Longitude: -75}
	snap := models.FleetSnapshot{Organizations: []models.Organization{full}}

	req := baseRequest()
	req.Triage.Priority = 3
	candidates := Rank(req, snap)
	assert.Empty(t, candidates, "priority below 5 should never trigger overflow")
}

func TestRank_AllowsOverflowForCriticalPriorityWithNoRegionalHeadroom(t *testing.T) {
	full := models.Organization{ID: uuid.New(), Status: models.EntityStatusActive, Capacity: 2, CurrentLoad: 2, Latitude: 40, Longitude: -75}
	snap := models.FleetSnapshot{Organizations: []models.Organization{full}}

	req := baseRequest()
	req.Triage.Priority = 5
	candidates := Rank(req, snap)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].Breakdown.Overflow)
}

func TestRank_AttachesBestDivisionAndStaff(t *testing.T) {
	org := models.Organization{ID: uuid.New(), Status: models.EntityStatusActive, Capacity: 5, Latitude: 40, Longitude: -75}
	division := models.Division{
		ID: uuid.New(), OrganizationID: org.ID, Type: models.DivisionRescue,
		Skills: []string{"swiftwater"}, Capacity: 5, Status: models.EntityStatusActive,
	}
	staff := models.Staff{
		ID: uuid.New(), OrgID: org.ID, DivisionID: &division.ID,
		Availability: models.AvailabilityAvailable, Status: models.EntityStatusActive,
	}

	snap := models.FleetSnapshot{
		Organizations: []models.Organization{org},
		Divisions:     []models.Division{division},
		Staff:         []models.Staff{staff},
	}

	req := baseRequest()
	req.Triage.RequiredDivisionType = "rescue"
	candidates := Rank(req, snap)

	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].Division)
	require.NotNil(t, candidates[0].Staff)
	assert.Equal(t, division.ID, candidates[0].Division.ID)
	assert.Equal(t, staff.ID, candidates[0].Staff.ID)
}

func TestRank_NeverReturnsBusyOrOffDutyStaff(t *testing.T) {
	org := models.Organization{ID: uuid.New(), Status: models.EntityStatusActive, Capacity: 5, Latitude: 40, Longitude: -75}
	busy := models.Staff{ID: uuid.New(), OrgID: org.ID, Availability: models.AvailabilityBusy, Status: models.EntityStatusActive}
	offDuty := models.Staff{ID: uuid.New(), OrgID: org.ID, Availability: models.AvailabilityOffDuty, Status: models.EntityStatusActive}

	snap := models.FleetSnapshot{Organizations: []models.Organization{org}, Staff: []models.Staff{busy, offDuty}}
	candidates := Rank(baseRequest(), snap)

	require.Len(t, candidates, 1)
	assert.Nil(t, candidates[0].Staff)
}

func TestHaversineKM_ZeroDistanceForSamePoint(t *testing.T) {
	assert.InDelta(t, 0, HaversineKM(40, -75, 40, -75), 0.0001)
}

func TestDistanceFit_DecaysToZeroAt100KM(t *testing.T) {
	assert.Equal(t, 0.0, DistanceFit(150, 30))
	assert.Greater(t, DistanceFit(10, 30), 0.0)
}
