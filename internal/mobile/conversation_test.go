package mobile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFollowUpProvider struct {
	reply string
	err   error
	calls []string
}

func (f *fakeFollowUpProvider) GenerateReply(_ context.Context, _ string, _ []ConversationMessage, userText string) (string, error) {
	f.calls = append(f.calls, userText)
	return f.reply, f.err
}

func TestFallbackFollowUpReply_MatchesInjuryKeyword(t *testing.T) {
	got := FallbackFollowUpReply("my leg is bleeding badly")
	assert.Contains(t, got, "apply pressure")
}

func TestFallbackFollowUpReply_MatchesFireKeyword(t *testing.T) {
	got := FallbackFollowUpReply("there is smoke everywhere")
	assert.Contains(t, got, "upwind")
}

func TestFallbackFollowUpReply_MatchesFloodKeyword(t *testing.T) {
	got := FallbackFollowUpReply("flood water is rising")
	assert.Contains(t, got, "higher ground")
}

func TestFallbackFollowUpReply_DefaultsWhenNoKeywordMatches(t *testing.T) {
	got := FallbackFollowUpReply("need help please")
	assert.Contains(t, got, "safest reachable position")
}

func TestConversationService_UsesProviderReplyWhenAvailable(t *testing.T) {
	provider := &fakeFollowUpProvider{reply: "Stay calm, help is on the way. Are you safe now?"}
	svc := NewConversationService(provider, NewConversationHistory(), testPipelineLogger())

	reply := svc.Reply(context.Background(), "session-1", "Flood Rescue", "water is rising fast")

	assert.Equal(t, provider.reply, reply)
	require.Len(t, provider.calls, 1)
	assert.Equal(t, "water is rising fast", provider.calls[0])
}

func TestConversationService_FallsBackOnProviderError(t *testing.T) {
	provider := &fakeFollowUpProvider{err: errors.New("provider unavailable")}
	svc := NewConversationService(provider, NewConversationHistory(), testPipelineLogger())

	reply := svc.Reply(context.Background(), "session-2", "Fire Response", "smoke is filling the room")

	assert.Equal(t, FallbackFollowUpReply("smoke is filling the room"), reply)
}

func TestConversationService_FallsBackOnEmptyProviderReply(t *testing.T) {
	provider := &fakeFollowUpProvider{reply: "   "}
	svc := NewConversationService(provider, NewConversationHistory(), testPipelineLogger())

	reply := svc.Reply(context.Background(), "session-3", "Flood Rescue", "need help")

	assert.Equal(t, FallbackFollowUpReply("need help"), reply)
}

func TestConversationService_NilProviderAlwaysFallsBack(t *testing.T) {
	svc := NewConversationService(nil, NewConversationHistory(), testPipelineLogger())

	reply := svc.Reply(context.Background(), "session-4", "Storm Damage", "injured person here")

	assert.Equal(t, FallbackFollowUpReply("injured person here"), reply)
}

func TestConversationHistory_RecordsBothTurnsInOrder(t *testing.T) {
	history := NewConversationHistory()
	svc := NewConversationService(nil, history, testPipelineLogger())

	svc.Reply(context.Background(), "session-5", "Fire Response", "fire is spreading")

	turns := history.Append("session-5", ConversationMessage{Role: "probe", Text: "probe"})
	require.Len(t, turns, 3)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "fire is spreading", turns[0].Text)
	assert.Equal(t, "assistant", turns[1].Role)
}

func TestConversationHistory_TrimsToLimit(t *testing.T) {
	history := NewConversationHistory()
	for i := 0; i < conversationHistoryLimit+10; i++ {
		history.Append("session-6", ConversationMessage{Role: "user", Text: "turn"})
	}
	turns := history.Append("session-6", ConversationMessage{Role: "user", Text: "last"})
	assert.Len(t, turns, conversationHistoryLimit)
	assert.Equal(t, "last", turns[len(turns)-1].Text)
}
