package triage

import (
	"context"

	"github.com/shenikar/incident-response-core/internal/models"
)

// ClassifierOutcome is the tagged variant the source's unstructured JSON
// blob is reshaped into: a classifier call either produces a usable
// result, a schema violation, or is unavailable. Modelling it this way
// keeps the rules fallback (§4.1) total — Classify never has to guess.
type ClassifierOutcome int

const (
	OutcomeOK ClassifierOutcome = iota
	OutcomeInvalidSchema
	OutcomeUnavailable
)

// ClassifierResponse is what a Classifier call returns.
type ClassifierResponse struct {
	Outcome ClassifierOutcome
	Result  models.TriageResult
}

// Classifier is the external LLM collaborator. Implementations must
// honour ctx's deadline and never block past it.
type Classifier interface {
	Classify(ctx context.Context, in models.TriageInput) ClassifierResponse
}
