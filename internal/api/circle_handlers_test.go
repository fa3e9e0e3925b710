package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCircleEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")

	circle := ts.createTestCircle(t, token, "Basement Tapes", 25)
	assert.NotEmpty(t, circle.ID)
	assert.Equal(t, "Basement Tapes", circle.Title)
	assert.Equal(t, 25, circle.Capacity)
	assert.Equal(t, 25, circle.SpotsRemaining)
	assert.False(t, circle.IsLive)

	// Capacity defaults when omitted.
	resp := ts.api.Post("/api/v1/circles",
		"Authorization: Bearer "+token,
		map[string]any{"title": "Untitled Drop"})
	require.Equal(t, http.StatusOK, resp.Code)
	defaulted := decodeBody[CircleResponse](t, resp.Body.Bytes())
	assert.Equal(t, 100, defaulted.Capacity)
}

func TestCreateCircleQuota(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")

	for i := 0; i < 3; i++ {
		ts.createTestCircle(t, token, "Drop", 10)
	}

	resp := ts.api.Post("/api/v1/circles",
		"Authorization: Bearer "+token,
		map[string]any{"title": "One Too Many"})
	require.Equal(t, http.StatusConflict, resp.Code, resp.Body.String())
}

func TestListAndGetCircles(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)

	resp := ts.api.Get("/api/v1/circles", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeBody[ListCirclesResponse](t, resp.Body.Bytes())
	require.Len(t, list.Circles, 1)
	assert.Equal(t, circle.ID, list.Circles[0].ID)

	resp = ts.api.Get("/api/v1/circles/"+circle.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	got := decodeBody[CircleResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Basement Tapes", got.Title)
}

func TestUpdateCircleEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)

	resp := ts.api.Patch("/api/v1/circles/"+circle.ID,
		"Authorization: Bearer "+token,
		map[string]any{
			"title":   "Attic Tapes",
			"is_live": true,
		})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decodeBody[CircleResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Attic Tapes", updated.Title)
	assert.True(t, updated.IsLive)
	require.NotNil(t, updated.OpenedAt)
}

func TestCircleOwnershipOverAPI(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	otherToken, _ := ts.registerTestArtist(t, "other@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)

	// Foreign circles don't exist as far as the API admits.
	resp := ts.api.Get("/api/v1/circles/"+circle.ID, "Authorization: Bearer "+otherToken)
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Delete("/api/v1/circles/"+circle.ID, "Authorization: Bearer "+otherToken)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteCircleEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)

	resp := ts.api.Delete("/api/v1/circles/"+circle.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/circles/"+circle.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRosterEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 5)
	ts.goLive(t, token, circle.ID)

	ts.claimTestSpot(t, circle.ID, "first@example.com")
	ts.claimTestSpot(t, circle.ID, "Second@Example.COM")

	resp := ts.api.Get("/api/v1/circles/"+circle.ID+"/roster", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	roster := decodeBody[RosterResponse](t, resp.Body.Bytes())
	require.Len(t, roster.Entries, 2)
	assert.Equal(t, 3, roster.SpotsRemaining)
	assert.Equal(t, 5, roster.Capacity)
	assert.Equal(t, "first@example.com", roster.Entries[0].Email)
	assert.Equal(t, "second@example.com", roster.Entries[1].Email)

	// Removing a fan frees the spot.
	resp = ts.api.Delete("/api/v1/circles/"+circle.ID+"/roster/second@example.com",
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/circles/"+circle.ID+"/roster", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	roster = decodeBody[RosterResponse](t, resp.Body.Bytes())
	require.Len(t, roster.Entries, 1)
	assert.Equal(t, 4, roster.SpotsRemaining)
}

func TestWaitlistView(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerTestArtist(t, "artist@example.com")
	circle := ts.createTestCircle(t, token, "Basement Tapes", 10)

	resp := ts.api.Post("/api/v1/drops/"+circle.ID+"/waitlist",
		map[string]any{"email": "hopeful@example.com", "source": "landing_page"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Joining twice is a silent success.
	resp = ts.api.Post("/api/v1/drops/"+circle.ID+"/waitlist",
		map[string]any{"email": "Hopeful@Example.COM"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/circles/"+circle.ID+"/waitlist", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	waitlist := decodeBody[WaitlistResponse](t, resp.Body.Bytes())
	require.Len(t, waitlist.Entries, 1)
	assert.Equal(t, "hopeful@example.com", waitlist.Entries[0].Email)
	assert.Equal(t, "landing_page", waitlist.Entries[0].Source)
}
