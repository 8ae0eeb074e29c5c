package triage

import (
	"bytes"
	"context"
	"testing"

	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type stubClassifier struct {
	resp ClassifierResponse
}

func (s stubClassifier) Classify(_ context.Context, _ models.TriageInput) ClassifierResponse {
	return s.resp
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return log
}

func TestService_Triage_UsesClassifierOnOK(t *testing.T) {
	want := models.TriageResult{Category: "Fire Response", Priority: 5, Source: models.TriageSourceLLM}
	svc := NewService(stubClassifier{resp: ClassifierResponse{Outcome: OutcomeOK, Result: want}}, newTestLogger())

	got := svc.Triage(context.Background(), models.TriageInput{Text: "anything"})
	assert.Equal(t, want, got)
}

func TestService_Triage_FallsBackToRulesOnInvalidSchema(t *testing.T) {
	svc := NewService(stubClassifier{resp: ClassifierResponse{Outcome: OutcomeInvalidSchema}}, newTestLogger())

	got := svc.Triage(context.Background(), models.TriageInput{Text: "fire and smoke"})
	assert.Equal(t, models.TriageSourceRules, got.Source)
	assert.Equal(t, "Fire Response", got.Category)
}

func TestService_Triage_FallsBackToRulesOnUnavailable(t *testing.T) {
	svc := NewService(stubClassifier{resp: ClassifierResponse{Outcome: OutcomeUnavailable}}, newTestLogger())

	got := svc.Triage(context.Background(), models.TriageInput{Text: "medical emergency, bleeding"})
	assert.Equal(t, models.TriageSourceRules, got.Source)
}

func TestService_Triage_NilClassifierUsesRules(t *testing.T) {
	svc := NewService(nil, newTestLogger())

	got := svc.Triage(context.Background(), models.TriageInput{Text: "trapped under collapse"})
	assert.Equal(t, models.TriageSourceRules, got.Source)
	assert.Equal(t, "Rescue", got.Category)
}
