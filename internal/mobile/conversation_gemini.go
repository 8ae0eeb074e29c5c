package mobile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shenikar/incident-response-core/internal/ratelimit"
)

// GeminiFollowUpProvider calls the same Gemini generateContent endpoint
// the Triage Service's classifier uses (triage.GeminiClassifier), with
// a prompt tuned for one concise, actionable chat / voice-agent reply.
// Grounded on gemini_service.py's gemini_chat_followup_response.
type GeminiFollowUpProvider struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

func NewGeminiFollowUpProvider(apiKey, model string, timeout time.Duration, limiter *ratelimit.Limiter) *GeminiFollowUpProvider {
	return &GeminiFollowUpProvider{
		apiKey:     apiKey,
		model:      model,
		endpoint:   "https://generativelanguage.googleapis.com/v1beta/models",
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

type followUpRequest struct {
	Contents []followUpContent `json:"contents"`
}

type followUpContent struct {
	Parts []followUpPart `json:"parts"`
}

type followUpPart struct {
	Text string `json:"text"`
}

type followUpResponse struct {
	Candidates []struct {
		Content followUpContent `json:"content"`
	} `json:"candidates"`
}

func (p *GeminiFollowUpProvider) GenerateReply(ctx context.Context, incidentSummary string, history []ConversationMessage, userText string) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("gemini follow-up provider: no api key configured")
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("gemini follow-up rate limiter: %w", err)
		}
	}

	prompt := buildFollowUpPrompt(incidentSummary, history, userText)
	body, err := json.Marshal(followUpRequest{Contents: []followUpContent{{Parts: []followUpPart{{Text: prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("marshal gemini follow-up request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", p.endpoint, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini follow-up request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var fr followUpResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if len(fr.Candidates) == 0 || len(fr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response missing candidates")
	}

	return strings.Join(strings.Fields(fr.Candidates[0].Content.Parts[0].Text), " "), nil
}

// buildFollowUpPrompt mirrors gemini_chat_followup_response's prompt:
// one concise actionable reply with safety guidance and a follow-up
// question, condensed to the last 8 turns of history.
func buildFollowUpPrompt(incidentSummary string, history []ConversationMessage, userText string) string {
	recent := history
	if len(recent) > 8 {
		recent = recent[len(recent)-8:]
	}

	var b strings.Builder
	b.WriteString("You are a disaster response assistant. Return one concise actionable reply that includes safety guidance and one follow-up question. Avoid medical/legal guarantees.\n")
	fmt.Fprintf(&b, "incident_summary=%s\n", incidentSummary)
	b.WriteString("chat_history=\n")
	for _, m := range recent {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Text)
	}
	fmt.Fprintf(&b, "user=%s\n", userText)
	return b.String()
}
