package triage

import (
	"strings"

	"github.com/shenikar/incident-response-core/internal/models"
)

// keywordBucket maps a category to the keywords that select it. Buckets
// are tried in declaration order and the first hit wins (spec.md §4.1.1).
type keywordBucket struct {
	category string
	keywords []string
}

var buckets = []keywordBucket{
	{category: "Flood Rescue", keywords: []string{"flood", "water", "rising"}},
	{category: "Fire Response", keywords: []string{"fire", "smoke", "burn"}},
	{category: "Medical Emergency", keywords: []string{"medical", "unconscious", "bleeding"}},
	{category: "Rescue", keywords: []string{"trapped", "collapse"}},
}

var basePriority = map[string]int{
	"Flood Rescue":      4,
	"Fire Response":      5,
	"Medical Emergency":  4,
	"Rescue":             4,
	"General":            2,
}

var divisionTypeForCategory = map[string]string{
	"Flood Rescue":      string(models.DivisionRescue),
	"Fire Response":      string(models.DivisionEmergencyResponse),
	"Medical Emergency":  string(models.DivisionMedical),
	"Rescue":             string(models.DivisionRescue),
	"General":            string(models.DivisionEmergencyResponse),
}

var skillSeeds = map[string][]string{
	"Flood Rescue":      {"water_rescue", "swiftwater", "first_aid"},
	"Fire Response":      {"firefighting", "hazmat", "first_aid"},
	"Medical Emergency":  {"first_aid", "paramedic", "triage"},
	"Rescue":             {"urban_search_rescue", "heavy_lifting", "first_aid"},
	"General":            {"first_aid"},
}

// orgCategoryForCategory maps a triage category to the canonical
// organisation category used by the Assignment Engine's category_match
// score (spec.md §4.2).
var orgCategoryForCategory = map[string]models.OrgCategory{
	"Flood Rescue":      models.OrgCategoryRescue,
	"Fire Response":      models.OrgCategoryEmergencyResponse,
	"Medical Emergency":  models.OrgCategoryMedical,
	"Rescue":             models.OrgCategoryRescue,
	"General":            models.OrgCategoryEmergencyResponse,
}

var phraseBumpWords = []string{"urgent", "trapped", "children", "elderly"}

// OrgCategoryFor returns the canonical org category for a triage category.
func OrgCategoryFor(category string) models.OrgCategory {
	if c, ok := orgCategoryForCategory[category]; ok {
		return c
	}
	return models.OrgCategoryEmergencyResponse
}

// ApplyRules is the deterministic, total fallback path. It never errors.
func ApplyRules(in models.TriageInput) models.TriageResult {
	category := classifyCategory(in)
	priority := models.ClampPriority(basePriority[category] + headcountBump(in.Headcount) + phraseBump(in.Text))

	return models.TriageResult{
		Category:             category,
		Priority:              priority,
		RequiredDivisionType:  divisionTypeForCategory[category],
		RequiredSkills:        dedupe(skillSeeds[category]),
		Source:                models.TriageSourceRules,
		Confidence:            0.5,
	}
}

func classifyCategory(in models.TriageInput) string {
	text := strings.ToLower(in.Text + " " + in.VoiceTranscript)
	for _, bucket := range buckets {
		for _, kw := range bucket.keywords {
			if strings.Contains(text, kw) {
				return bucket.category
			}
		}
	}
	return "General"
}

func headcountBump(n int) int {
	switch {
	case n >= 30:
		return 3
	case n >= 10:
		return 2
	case n >= 3:
		return 1
	default:
		return 0
	}
}

func phraseBump(text string) int {
	lower := strings.ToLower(text)
	bump := 0
	for _, phrase := range phraseBumpWords {
		if strings.Contains(lower, phrase) {
			bump++
		}
	}
	if bump > 2 {
		bump = 2
	}
	return bump
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
