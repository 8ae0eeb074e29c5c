// Package triage turns a free-form incident report into a
// (category, priority, required_division_type, required_skills) triple,
// preferring an external classifier and always falling back to a
// deterministic rules engine (spec.md §4.1).
package triage

import (
	"context"

	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/sirupsen/logrus"
)

// Service is the Triage Service (C3).
type Service struct {
	classifier Classifier
	logger     *logrus.Logger
}

func NewService(classifier Classifier, logger *logrus.Logger) *Service {
	return &Service{classifier: classifier, logger: logger}
}

// Triage classifies in. It never returns an error: the rules fallback
// is total, so a failure of the primary path simply changes `source`.
func (s *Service) Triage(ctx context.Context, in models.TriageInput) models.TriageResult {
	log := s.logger.WithFields(logrus.Fields{"component": "triage"})

	if s.classifier != nil {
		resp := s.classifier.Classify(ctx, in)
		switch resp.Outcome {
		case OutcomeOK:
			log.WithField("source", "llm").Info("triage classified via external model")
			return resp.Result
		case OutcomeInvalidSchema:
			log.Warn("external classifier returned an invalid schema, falling back to rules")
		case OutcomeUnavailable:
			log.Debug("external classifier unavailable, falling back to rules")
		}
	}

	result := ApplyRules(in)
	log.WithFields(logrus.Fields{"source": "rules", "category": result.Category, "priority": result.Priority}).Info("triage classified via rules fallback")
	return result
}
