package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/dropcircles/dropcircles-server/internal/errors"
	"github.com/dropcircles/dropcircles-server/internal/http/response"
)

// handleStreamArtifact serves a vault file against a signed stream token.
// GET /api/v1/stream/{artifactID}?token=...
//
// This is a chi handler (not Huma) because http.ServeFile needs the raw
// ResponseWriter for Range requests.
func (s *Server) handleStreamArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artifactID := chi.URLParam(r, "artifactID")
	token := r.URL.Query().Get("token")

	if token == "" {
		response.Unauthorized(w, "Stream token is required", s.logger)
		return
	}

	artifact, path, err := s.services.Delivery.Redeem(ctx, artifactID, token)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.logger.Error("Artifact missing from vault",
			"artifact_id", artifactID,
			"path", path,
		)
		response.HandleError(w, domainerrors.NotFound("artifact not found on disk"), s.logger)
		return
	}

	s.logger.Debug("Streaming artifact",
		"artifact_id", artifactID,
		"client_ip", getClientIP(r),
	)

	w.Header().Set("Content-Type", artifact.MimeType)

	// Stream URLs are per-session and short-lived; never let a shared
	// cache hold the audio.
	w.Header().Set("Cache-Control", "private, no-store")

	// http.ServeFile handles Range requests, Content-Length, and
	// Accept-Ranges for player seeking.
	http.ServeFile(w, r, path)
}
