package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/shenikar/incident-response-core/internal/ratelimit"
)

// GeminiClassifier calls an external Gemini-compatible generateContent
// endpoint and parses its response into a TriageResult. Any deviation
// from the expected shape is reported as OutcomeInvalidSchema rather
// than surfaced as an error, so the caller can fall through to rules
// per spec.md §4.1.
type GeminiClassifier struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

func NewGeminiClassifier(apiKey, model string, timeout time.Duration, limiter *ratelimit.Limiter) *GeminiClassifier {
	return &GeminiClassifier{
		apiKey:   apiKey,
		model:    model,
		endpoint: "https://generativelanguage.googleapis.com/v1beta/models",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// geminiTriagePayload is the structured schema the prompt asks the
// model to conform to.
type geminiTriagePayload struct {
	Category             string   `json:"category"`
	Priority             int      `json:"priority"`
	RequiredDivisionType string   `json:"required_division_type"`
	RequiredSkills       []string `json:"required_skills"`
	Confidence           float64  `json:"confidence"`
}

func (c *GeminiClassifier) Classify(ctx context.Context, in models.TriageInput) ClassifierResponse {
	if c.apiKey == "" {
		return ClassifierResponse{Outcome: OutcomeUnavailable}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return ClassifierResponse{Outcome: OutcomeUnavailable}
		}
	}

	prompt := buildPrompt(in)
	body, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}})
	if err != nil {
		return ClassifierResponse{Outcome: OutcomeUnavailable}
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ClassifierResponse{Outcome: OutcomeUnavailable}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ClassifierResponse{Outcome: OutcomeUnavailable}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ClassifierResponse{Outcome: OutcomeUnavailable}
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return ClassifierResponse{Outcome: OutcomeInvalidSchema}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return ClassifierResponse{Outcome: OutcomeInvalidSchema}
	}

	raw := gr.Candidates[0].Content.Parts[0].Text
	raw = strings.TrimSpace(strings.Trim(raw, "`"))
	raw = strings.TrimPrefix(raw, "json")

	var payload geminiTriagePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ClassifierResponse{Outcome: OutcomeInvalidSchema}
	}
	if payload.Category == "" || payload.RequiredDivisionType == "" {
		return ClassifierResponse{Outcome: OutcomeInvalidSchema}
	}

	return ClassifierResponse{
		Outcome: OutcomeOK,
		Result: models.TriageResult{
			Category:             payload.Category,
			Priority:              models.ClampPriority(payload.Priority),
			RequiredDivisionType:  payload.RequiredDivisionType,
			RequiredSkills:        payload.RequiredSkills,
			Source:                models.TriageSourceLLM,
			Confidence:            payload.Confidence,
		},
	}
}

func buildPrompt(in models.TriageInput) string {
	var b strings.Builder
	b.WriteString("Classify this emergency incident report. Respond ONLY with JSON matching ")
	b.WriteString(`{"category":string,"priority":int 1-5,"required_division_type":string,"required_skills":[string],"confidence":float 0-1}.`)
	b.WriteString("\nText: ")
	b.WriteString(in.Text)
	if in.VoiceTranscript != "" {
		b.WriteString("\nTranscript: ")
		b.WriteString(in.VoiceTranscript)
	}
	fmt.Fprintf(&b, "\nHeadcount affected: %d", in.Headcount)
	if in.PlaceLabel != "" {
		b.WriteString("\nPlace: ")
		b.WriteString(in.PlaceLabel)
	}
	if in.CategoryHint != "" {
		b.WriteString("\nCategory hint: ")
		b.WriteString(in.CategoryHint)
	}
	return b.String()
}
