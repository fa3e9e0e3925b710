package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyFanToken(t *testing.T) {
	svc := newTestService(t)

	token, sessionID, err := svc.GenerateFanToken("cir-1", "fan@example.com", false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sessionID, "fan-"))

	claims, err := svc.VerifyFanToken(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, claims.SessionID)
	assert.Equal(t, "cir-1", claims.CircleID)
	assert.Equal(t, "fan@example.com", claims.Email)
	assert.False(t, claims.Preview)
	assert.WithinDuration(t, time.Now().Add(FanSessionDuration), claims.Expiration, 5*time.Second)
}

func TestGenerateFanToken_Preview(t *testing.T) {
	svc := newTestService(t)

	token, _, err := svc.GenerateFanToken("cir-1", "artist@example.com", true)
	require.NoError(t, err)

	claims, err := svc.VerifyFanToken(token)
	require.NoError(t, err)
	assert.True(t, claims.Preview)
}

func TestVerifyFanToken_RejectsArtistToken(t *testing.T) {
	svc := newTestService(t)

	// Audiences differ: an artist access token must not pass as a fan session.
	artistToken, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyFanToken(artistToken)
	assert.Error(t, err)
}

func TestVerifyAccessToken_RejectsFanToken(t *testing.T) {
	svc := newTestService(t)

	fanToken, _, err := svc.GenerateFanToken("cir-1", "fan@example.com", false)
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(fanToken)
	assert.Error(t, err)
}

func TestFanToken_SessionIDsUnique(t *testing.T) {
	svc := newTestService(t)

	_, first, err := svc.GenerateFanToken("cir-1", "fan@example.com", false)
	require.NoError(t, err)
	_, second, err := svc.GenerateFanToken("cir-1", "fan@example.com", false)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
