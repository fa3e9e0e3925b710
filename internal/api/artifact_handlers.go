package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/dropcircles/dropcircles-server/internal/domain"
	"github.com/dropcircles/dropcircles-server/internal/http/response"
)

// maxUploadBytes caps a single artifact upload.
const maxUploadBytes = 500 << 20 // 500 MB

func (s *Server) registerArtifactRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listArtifacts",
		Method:      http.MethodGet,
		Path:        "/api/v1/circles/{id}/artifacts",
		Summary:     "List artifacts",
		Description: "Returns the circle's artifacts in playback order",
		Tags:        []string{"Artifacts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListArtifacts)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteArtifact",
		Method:      http.MethodDelete,
		Path:        "/api/v1/artifacts/{id}",
		Summary:     "Delete artifact",
		Description: "Removes an artifact and its vault file",
		Tags:        []string{"Artifacts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteArtifact)
}

// === DTOs ===

// ArtifactResponse is the artist-facing view of an artifact.
type ArtifactResponse struct {
	ID        string    `json:"id" doc:"Artifact ID"`
	Title     string    `json:"title" doc:"Display title"`
	Filename  string    `json:"filename" doc:"Original upload filename"`
	MimeType  string    `json:"mime_type" doc:"Content type"`
	SizeBytes int64     `json:"size_bytes" doc:"File size in bytes"`
	Duration  float64   `json:"duration,omitempty" doc:"Duration in seconds, when known"`
	Position  int       `json:"position" doc:"Playback order, zero-based"`
	CreatedAt time.Time `json:"created_at" doc:"Upload time"`
}

// ListArtifactsResponse holds a circle's artifacts.
type ListArtifactsResponse struct {
	Artifacts []ArtifactResponse `json:"artifacts" doc:"Artifacts in playback order"`
}

// ListArtifactsOutput wraps the list for Huma.
type ListArtifactsOutput struct {
	Body ListArtifactsResponse
}

// DeleteArtifactInput identifies an artifact.
type DeleteArtifactInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Artifact ID"`
}

// === Handlers ===

func (s *Server) handleListArtifacts(ctx context.Context, input *GetCircleInput) (*ListArtifactsOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	artifacts, err := s.services.Artifacts.List(ctx, artistID, input.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]ArtifactResponse, len(artifacts))
	for i, a := range artifacts {
		resp[i] = mapArtifactResponse(a)
	}

	return &ListArtifactsOutput{Body: ListArtifactsResponse{Artifacts: resp}}, nil
}

func (s *Server) handleDeleteArtifact(ctx context.Context, input *DeleteArtifactInput) (*MessageOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Artifacts.Delete(ctx, artistID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Artifact deleted"}}, nil
}

// handleUploadArtifact handles multipart artifact uploads.
// POST /api/v1/circles/{id}/artifacts
// This is a chi handler (not Huma) because Huma doesn't easily support multipart forms.
func (s *Server) handleUploadArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	artistID, ok := s.artistFromRequest(w, r)
	if !ok {
		return
	}

	circleID := chi.URLParam(r, "id")
	if circleID == "" {
		response.BadRequest(w, "Circle ID is required", s.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}
	defer file.Close() //nolint:errcheck // Read-only handle

	artifact, err := s.services.Artifacts.Upload(ctx, artistID, circleID, header.Filename, file)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, mapArtifactResponse(artifact), s.logger)
}

// artistFromRequest authenticates a raw chi request as an artist.
// Writes the 401 itself and returns ok=false on failure.
func (s *Server) artistFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		response.Unauthorized(w, "Missing or invalid authorization header", s.logger)
		return "", false
	}

	user, _, err := s.services.Auth.VerifyAccessToken(r.Context(), authHeader[7:])
	if err != nil {
		response.Unauthorized(w, "Invalid or expired token", s.logger)
		return "", false
	}

	return user.ID, true
}

// === Helpers ===

func mapArtifactResponse(a *domain.Artifact) ArtifactResponse {
	return ArtifactResponse{
		ID:        a.ID,
		Title:     a.DisplayTitle(),
		Filename:  a.Filename,
		MimeType:  a.MimeType,
		SizeBytes: a.SizeBytes,
		Duration:  a.Duration,
		Position:  a.Position,
		CreatedAt: a.CreatedAt,
	}
}
