package security

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/incident-response-core/internal/authz"
	"github.com/shenikar/incident-response-core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_IssueAndVerifyRoundTrip(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	staffID := uuid.New()
	principal := authz.Principal{ID: staffID, Role: models.RoleResponder}

	token, err := iss.Issue(principal)
	require.NoError(t, err)

	got, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, staffID, got.ID)
	assert.Equal(t, models.RoleResponder, got.Role)
	assert.False(t, got.IsWebhook)
}

func TestIssuer_VerifyRejectsExpiredToken(t *testing.T) {
	iss := NewIssuer("test-secret", -time.Minute)
	token, err := iss.Issue(authz.Principal{Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = iss.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_VerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewIssuer("secret-a", time.Hour).Issue(authz.Principal{Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = NewIssuer("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_VerifyRejectsGarbage(t *testing.T) {
	_, err := NewIssuer("test-secret", time.Hour).Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_IssueWebhookPrincipalHasNoStaffID(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	token, err := iss.Issue(authz.Principal{Role: "system", IsWebhook: true})
	require.NoError(t, err)

	got, err := iss.Verify(token)
	require.NoError(t, err)
	assert.True(t, got.IsWebhook)
	assert.Equal(t, uuid.Nil, got.ID)
}
