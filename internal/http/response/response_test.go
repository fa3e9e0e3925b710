package response

import (
	"encoding/json/v2"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/dropcircles/dropcircles-server/internal/errors"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var envelope Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"status": "ok"}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
	assert.Empty(t, envelope.Error)
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"id": "cir-abc"}, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "nope", nil) }, http.StatusBadRequest},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "nope", nil) }, http.StatusUnauthorized},
		{"forbidden", func(w http.ResponseWriter) { Forbidden(w, "nope", nil) }, http.StatusForbidden},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "nope", nil) }, http.StatusNotFound},
		{"too many requests", func(w http.ResponseWriter) { TooManyRequests(w, "nope", nil) }, http.StatusTooManyRequests},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "nope", nil) }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.status, rec.Code)
			envelope := decodeEnvelope(t, rec)
			assert.False(t, envelope.Success)
			assert.Equal(t, "nope", envelope.Error)
		})
	}
}

func TestHandleErrorDomain(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, domainerrors.SessionLocked("session locked out"), nil)

	assert.Equal(t, http.StatusLocked, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "SESSION_LOCKED", envelope.Code)
	assert.Equal(t, "session locked out", envelope.Error)
}

func TestHandleErrorUnknown(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("disk on fire"), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "internal server error", envelope.Error, "internals never leak")
}
