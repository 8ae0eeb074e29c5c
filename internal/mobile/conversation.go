package mobile

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// ConversationMessage is one turn in a mobile chat / voice-agent
// follow-up thread.
type ConversationMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

const conversationHistoryLimit = 24

// ConversationHistory keeps the last conversationHistoryLimit turns per
// mobile ticket's chat session in memory. Nothing here survives a
// restart; spec.md leaves chat persistence unspecified and the
// original service keeps the same history purely in process memory.
type ConversationHistory struct {
	mu   sync.Mutex
	byID map[string][]ConversationMessage
}

func NewConversationHistory() *ConversationHistory {
	return &ConversationHistory{byID: make(map[string][]ConversationMessage)}
}

// Append records msg against sessionID, trims to the last
// conversationHistoryLimit turns, and returns the trimmed history.
func (h *ConversationHistory) Append(sessionID string, msg ConversationMessage) []ConversationMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	turns := append(h.byID[sessionID], msg)
	if len(turns) > conversationHistoryLimit {
		turns = turns[len(turns)-conversationHistoryLimit:]
	}
	h.byID[sessionID] = turns

	out := make([]ConversationMessage, len(turns))
	copy(out, turns)
	return out
}

// FollowUpProvider generates a conversational reply from an incident
// summary, recent history and the caller's latest message.
type FollowUpProvider interface {
	GenerateReply(ctx context.Context, incidentSummary string, history []ConversationMessage, userText string) (string, error)
}

// FallbackFollowUpReply is the deterministic keyword-matched reply used
// whenever no FollowUpProvider is configured, or it fails: safety
// guidance plus one follow-up question. Never empty.
func FallbackFollowUpReply(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "injur"), strings.Contains(lower, "bleed"):
		return "If safe, apply pressure to active bleeding and avoid moving severe injuries. How many injured people are currently with you?"
	case strings.Contains(lower, "fire"), strings.Contains(lower, "smoke"):
		return "Move upwind and stay clear of enclosed smoke exposure. Are exits blocked or is anyone trapped inside?"
	case strings.Contains(lower, "flood"), strings.Contains(lower, "water"):
		return "Move to higher ground and avoid crossing moving water. What is current water depth near your location?"
	default:
		return "Stay in the safest reachable position and avoid isolated movement. Can you confirm injury count and immediate hazards around you?"
	}
}

// ConversationService answers mobile chat / voice-agent follow-ups. It
// prefers the configured FollowUpProvider and always falls back to
// FallbackFollowUpReply, so a reply is never empty - the same
// total-fallback shape as triage.Service.Triage.
type ConversationService struct {
	provider FollowUpProvider
	history  *ConversationHistory
	log      *logrus.Logger
}

func NewConversationService(provider FollowUpProvider, history *ConversationHistory, log *logrus.Logger) *ConversationService {
	return &ConversationService{provider: provider, history: history, log: log}
}

// Reply records userText against sessionID, generates the assistant's
// follow-up, records that too, and returns the reply text.
func (s *ConversationService) Reply(ctx context.Context, sessionID, incidentSummary, userText string) string {
	log := s.log.WithField("component", "conversation")
	history := s.history.Append(sessionID, ConversationMessage{Role: "user", Text: userText})

	var reply string
	if s.provider != nil {
		r, err := s.provider.GenerateReply(ctx, incidentSummary, history, userText)
		switch {
		case err != nil:
			log.WithField("error", err).Debug("follow-up provider unavailable, falling back to keyword reply")
		case strings.TrimSpace(r) == "":
			log.Debug("follow-up provider returned an empty reply, falling back to keyword reply")
		default:
			reply = r
			log.Debug("follow-up reply generated via external model")
		}
	}
	if reply == "" {
		reply = FallbackFollowUpReply(userText)
	}

	s.history.Append(sessionID, ConversationMessage{Role: "assistant", Text: reply})
	return reply
}
