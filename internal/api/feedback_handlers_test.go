package api

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitFeedbackEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	token, artistID := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)

	artifact, err := ts.services.Artifacts.Upload(context.Background(), artistID, circle.ID,
		"closer.mp3", bytes.NewReader([]byte("not really audio")))
	require.NoError(t, err)

	ts.goLive(t, token, circle.ID)
	result := ts.claimTestSpot(t, circle.ID, "fan@example.com")

	resp := ts.api.Post("/api/v1/drops/"+circle.ID+"/feedback",
		"Authorization: Bearer "+result.SessionToken,
		map[string]any{
			"artifact_id": artifact.ID,
			"thumbs":      "up",
			"star_rating": 5,
			"comment":     "that bridge is unreal",
			"fan_name":    "Sam",
		})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	body := decodeBody[FeedbackResponse](t, resp.Body.Bytes())
	assert.NotEmpty(t, body.ID)
	assert.Equal(t, "closer", body.ArtifactTitle)
	assert.Equal(t, "fan@example.com", body.FanEmail)
	assert.Equal(t, "up", body.Thumbs)

	// No session token, no feedback.
	resp = ts.api.Post("/api/v1/drops/"+circle.ID+"/feedback",
		map[string]any{"thumbs": "up"})
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	// An empty reaction is rejected.
	resp = ts.api.Post("/api/v1/drops/"+circle.ID+"/feedback",
		"Authorization: Bearer "+result.SessionToken,
		map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubmitFeedbackWrongCircle(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)
	other := ts.createTestCircle(t, token, "Other Drop", 10)
	ts.goLive(t, token, circle.ID)

	result := ts.claimTestSpot(t, circle.ID, "fan@example.com")

	resp := ts.api.Post("/api/v1/drops/"+other.ID+"/feedback",
		"Authorization: Bearer "+result.SessionToken,
		map[string]any{"thumbs": "up"})
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestFeedbackReportEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)
	ts.goLive(t, token, circle.ID)

	first := ts.claimTestSpot(t, circle.ID, "first@example.com")
	second := ts.claimTestSpot(t, circle.ID, "second@example.com")

	resp := ts.api.Post("/api/v1/drops/"+circle.ID+"/feedback",
		"Authorization: Bearer "+first.SessionToken,
		map[string]any{"thumbs": "up", "star_rating": 5})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Post("/api/v1/drops/"+circle.ID+"/feedback",
		"Authorization: Bearer "+second.SessionToken,
		map[string]any{"thumbs": "down", "star_rating": 2, "comment": "mix is muddy"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Get("/api/v1/feedback", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	report := decodeBody[FeedbackReportResponse](t, resp.Body.Bytes())
	require.Len(t, report.Records, 2)
	require.NotNil(t, report.Stats)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.ThumbsUp)
	assert.Equal(t, 1, report.Stats.ThumbsDown)
	assert.InDelta(t, 3.5, report.Stats.AverageRating, 0.001)

	// Filters narrow both the records and the stats.
	resp = ts.api.Get("/api/v1/feedback?thumbs=up", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	report = decodeBody[FeedbackReportResponse](t, resp.Body.Bytes())
	require.Len(t, report.Records, 1)
	assert.Equal(t, "first@example.com", report.Records[0].FanEmail)

	resp = ts.api.Get("/api/v1/feedback?min_stars=3", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	report = decodeBody[FeedbackReportResponse](t, resp.Body.Bytes())
	require.Len(t, report.Records, 1)
	assert.Equal(t, 5, report.Records[0].StarRating)

	// Another artist sees nothing.
	otherToken, _ := ts.registerTestArtist(t, "other@example.com")
	resp = ts.api.Get("/api/v1/feedback", "Authorization: Bearer "+otherToken)
	require.Equal(t, http.StatusOK, resp.Code)
	report = decodeBody[FeedbackReportResponse](t, resp.Body.Bytes())
	assert.Empty(t, report.Records)

	// Scoping to a foreign circle is a 404.
	resp = ts.api.Get("/api/v1/feedback?circle_id="+circle.ID, "Authorization: Bearer "+otherToken)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
