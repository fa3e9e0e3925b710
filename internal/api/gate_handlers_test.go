package api

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropcircles/dropcircles-server/internal/service"
)

func TestDropSummaryEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	token, artistID := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)

	_, err := ts.services.Artifacts.Upload(context.Background(), artistID, circle.ID,
		"demo.mp3", bytes.NewReader([]byte("not really audio")))
	require.NoError(t, err)

	// Sealed circles hide everything but the denial.
	resp := ts.api.Get("/api/v1/drops/" + circle.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	sealed := decodeBody[GateResultBody](t, resp.Body.Bytes())
	assert.Equal(t, "DENIED", sealed.Status)
	assert.Equal(t, "SEALED", sealed.Reason)

	ts.goLive(t, token, circle.ID)

	resp = ts.api.Get("/api/v1/drops/" + circle.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	summary := decodeBody[service.DropSummary](t, resp.Body.Bytes())
	assert.Equal(t, "LIVE", summary.Status)
	assert.Equal(t, "Basement Tapes", summary.Title)
	assert.Equal(t, "The Static", summary.ArtistName)
	assert.Equal(t, 10, summary.SpotsRemaining)
	assert.Equal(t, 1, summary.ArtifactCount)
}

func TestDropSummaryUnknownCircle(t *testing.T) {
	ts := setupTestServer(t)

	// Unknown circles are indistinguishable from sealed ones.
	resp := ts.api.Get("/api/v1/drops/cir-does-not-exist")
	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody[GateResultBody](t, resp.Body.Bytes())
	assert.Equal(t, "DENIED", body.Status)
	assert.Equal(t, "SEALED", body.Reason)
}

func TestClaimEndpointGranted(t *testing.T) {
	ts := setupTestServer(t)
	token, artistID := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)

	_, err := ts.services.Artifacts.Upload(context.Background(), artistID, circle.ID,
		"closer.mp3", bytes.NewReader([]byte("not really audio")))
	require.NoError(t, err)

	ts.goLive(t, token, circle.ID)

	result := ts.claimTestSpot(t, circle.ID, "fan@example.com")
	assert.Equal(t, "GRANTED", result.Status)
	assert.NotEmpty(t, result.SessionToken)
	assert.Equal(t, "Basement Tapes", result.CircleTitle)
	assert.Equal(t, 9, result.SpotsRemaining)
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, "closer", result.Artifacts[0].Title)
	assert.NotEmpty(t, result.Artifacts[0].StreamURL)
}

func TestClaimEndpointSealed(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)

	resp := ts.api.Post("/api/v1/drops/"+circle.ID+"/claim",
		map[string]any{"email": "fan@example.com"})
	require.Equal(t, http.StatusOK, resp.Code)

	body := decodeBody[GateResultBody](t, resp.Body.Bytes())
	assert.Equal(t, "DENIED", body.Status)
	assert.Equal(t, "SEALED", body.Reason)
}

func TestClaimEndpointCapacityAndRepeat(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 1)
	ts.goLive(t, token, circle.ID)

	ts.claimTestSpot(t, circle.ID, "first@example.com")

	// The roster is full for a stranger.
	resp := ts.api.Post("/api/v1/drops/"+circle.ID+"/claim",
		map[string]any{"email": "second@example.com"})
	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody[GateResultBody](t, resp.Body.Bytes())
	assert.Equal(t, "CAPACITY_REACHED", body.Reason)

	// A repeat claim from the holder is a dead session, not a grant.
	resp = ts.api.Post("/api/v1/drops/"+circle.ID+"/claim",
		map[string]any{"email": "  FIRST@Example.COM  "})
	require.Equal(t, http.StatusOK, resp.Code)
	body = decodeBody[GateResultBody](t, resp.Body.Bytes())
	assert.Equal(t, "SESSION_EXPIRED", body.Reason)
}

func TestClaimEndpointValidation(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)
	ts.goLive(t, token, circle.ID)

	resp := ts.api.Post("/api/v1/drops/"+circle.ID+"/claim",
		map[string]any{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestClaimPreview(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)

	// Preview works on a sealed circle and never touches the roster.
	resp := ts.api.Post("/api/v1/drops/"+circle.ID+"/claim",
		"Authorization: Bearer "+token,
		map[string]any{"preview": true})
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())

	body := decodeBody[GateResultBody](t, resp.Body.Bytes())
	assert.Equal(t, "GRANTED", body.Status)
	assert.NotEmpty(t, body.SessionToken)

	roster, err := ts.store.ListRoster(context.Background(), circle.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)

	// Preview without a bearer token is just unauthorized.
	resp = ts.api.Post("/api/v1/drops/"+circle.ID+"/claim",
		map[string]any{"preview": true})
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	// Another artist cannot preview someone else's circle.
	otherToken, _ := ts.registerTestArtist(t, "other@example.com")
	resp = ts.api.Post("/api/v1/drops/"+circle.ID+"/claim",
		"Authorization: Bearer "+otherToken,
		map[string]any{"preview": true})
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestPlaybackEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)
	ts.goLive(t, token, circle.ID)

	result := ts.claimTestSpot(t, circle.ID, "fan@example.com")

	resp := ts.api.Post("/api/v1/drops/"+circle.ID+"/playback",
		"Authorization: Bearer "+result.SessionToken,
		map[string]any{"event": "playing"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// A fan token is bound to its circle.
	other := ts.createTestCircle(t, token, "Other Drop", 10)
	resp = ts.api.Post("/api/v1/drops/"+other.ID+"/playback",
		"Authorization: Bearer "+result.SessionToken,
		map[string]any{"event": "playing"})
	require.Equal(t, http.StatusForbidden, resp.Code)

	// Artist access tokens are not fan session tokens.
	resp = ts.api.Post("/api/v1/drops/"+circle.ID+"/playback",
		"Authorization: Bearer "+token,
		map[string]any{"event": "playing"})
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/drops/"+circle.ID+"/playback",
		"Authorization: Bearer "+result.SessionToken,
		map[string]any{"event": "buffering"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
