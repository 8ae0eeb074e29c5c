package models

// TriageSource identifies which path produced a TriageResult.
type TriageSource string

const (
	TriageSourceLLM   TriageSource = "llm"
	TriageSourceRules TriageSource = "rules"
)

// TriageResult is the output of the Triage Service.
type TriageResult struct {
	Category             string       `json:"category"`
	Priority              int         `json:"priority"`
	RequiredDivisionType  string       `json:"required_division_type"`
	RequiredSkills        []string     `json:"required_skills"`
	Source                TriageSource `json:"source"`
	Confidence            float64      `json:"confidence"`
}

// TriageInput is the bounded view of an incident the Triage Service consumes.
type TriageInput struct {
	Text           string
	VoiceTranscript string
	Headcount      int
	PlaceLabel     string
	CategoryHint   string
}
