package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAuthorise_CreateIncident(t *testing.T) {
	assert.True(t, Authorise(Principal{Role: models.RoleAdmin}, ActionCreateIncident, Resource{}).Allowed)
	assert.True(t, Authorise(Principal{IsWebhook: true}, ActionCreateIncident, Resource{}).Allowed)
	assert.False(t, Authorise(Principal{Role: models.RoleVolunteer}, ActionCreateIncident, Resource{}).Allowed)
}

func TestAuthorise_AcceptRequiresAssignedResponder(t *testing.T) {
	staffID := uuid.New()
	other := uuid.New()
	incident := &models.Incident{AssignedStaffID: &staffID}

	decision := Authorise(Principal{ID: staffID, Role: models.RoleResponder}, ActionAccept, Resource{Incident: incident})
	assert.True(t, decision.Allowed)

	decision = Authorise(Principal{ID: other, Role: models.RoleResponder}, ActionAccept, Resource{Incident: incident})
	assert.False(t, decision.Allowed)

	decision = Authorise(Principal{ID: staffID, Role: models.RoleAdmin}, ActionAccept, Resource{Incident: incident})
	assert.False(t, decision.Allowed)
}

func TestAuthorise_AcceptWithoutResourceDenied(t *testing.T) {
	decision := Authorise(Principal{Role: models.RoleResponder}, ActionAccept, Resource{})
	assert.False(t, decision.Allowed)
}

func TestAuthorise_CancelRequiresAdmin(t *testing.T) {
	assert.True(t, Authorise(Principal{Role: models.RoleAdmin}, ActionCancel, Resource{}).Allowed)
	assert.False(t, Authorise(Principal{Role: models.RoleResponder}, ActionCancel, Resource{}).Allowed)
}

func TestAuthorise_ReadIsAlwaysAllowed(t *testing.T) {
	assert.True(t, Authorise(Principal{}, ActionReadIncident, Resource{}).Allowed)
}

func TestAuthorise_UnknownActionDenied(t *testing.T) {
	decision := Authorise(Principal{Role: models.RoleAdmin}, Action("bogus"), Resource{})
	assert.False(t, decision.Allowed)
}
