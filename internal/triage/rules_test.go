package triage

import (
	"testing"

	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestApplyRules_CategorisesByKeyword(t *testing.T) {
	result := ApplyRules(models.TriageInput{Text: "water is rising fast, flood"})
	assert.Equal(t, "Flood Rescue", result.Category)
	assert.Equal(t, models.TriageSourceRules, result.Source)
	assert.Contains(t, result.RequiredSkills, "swiftwater")
}

func TestApplyRules_DefaultsToGeneral(t *testing.T) {
	result := ApplyRules(models.TriageInput{Text: "need some help over here"})
	assert.Equal(t, "General", result.Category)
	assert.Equal(t, 2, result.Priority)
}

func TestApplyRules_HeadcountAndPhraseBumpPriority(t *testing.T) {
	base := ApplyRules(models.TriageInput{Text: "water rising"})
	bumped := ApplyRules(models.TriageInput{Text: "water rising, trapped children", Headcount: 15})
	assert.Greater(t, bumped.Priority, base.Priority)
}

func TestApplyRules_PriorityNeverExceedsFive(t *testing.T) {
	result := ApplyRules(models.TriageInput{Text: "fire smoke burn trapped collapse urgent children elderly", Headcount: 100})
	assert.Equal(t, 5, result.Priority)
}

func TestOrgCategoryFor_UnknownCategoryFallsBackToEmergencyResponse(t *testing.T) {
	assert.Equal(t, models.OrgCategoryEmergencyResponse, OrgCategoryFor("unknown-category"))
}
