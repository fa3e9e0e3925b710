package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dropcircles/dropcircles-server/internal/domain"
	domainerrors "github.com/dropcircles/dropcircles-server/internal/errors"
	"github.com/dropcircles/dropcircles-server/internal/service"
)

func (s *Server) registerGateRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getDropSummary",
		Method:      http.MethodGet,
		Path:        "/api/v1/drops/{circleID}",
		Summary:     "Get drop summary",
		Description: "Public gate view of a circle. Sealed or missing circles return the SEALED denial shape.",
		Tags:        []string{"Gate"},
	}, s.handleGetDropSummary)

	huma.Register(s.api, huma.Operation{
		OperationID:   "claimSpot",
		Method:        http.MethodPost,
		Path:          "/api/v1/drops/{circleID}/claim",
		Summary:       "Claim a spot",
		Description:   "Runs the access gate. Grants return 202 with a session token and stream URLs; denials return 200 with a reason the fan page renders verbatim.",
		Tags:          []string{"Gate"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleClaimSpot)

	huma.Register(s.api, huma.Operation{
		OperationID: "reportPlayback",
		Method:      http.MethodPost,
		Path:        "/api/v1/drops/{circleID}/playback",
		Summary:     "Report playback event",
		Description: "Feeds player state into the playback guard. Requires a fan session token.",
		Tags:        []string{"Gate"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReportPlayback)
}

// === DTOs ===

// DropSummaryInput identifies a drop page.
type DropSummaryInput struct {
	CircleID string `path:"circleID" doc:"Circle ID"`
}

// DropSummaryOutput wraps the public summary for Huma.
type DropSummaryOutput struct {
	Body service.DropSummary
}

// ClaimRequest is a fan's attempt to claim a spot. With a valid artist
// bearer token and preview=true, the circle's owner gets the fan view
// without touching the roster.
type ClaimRequest struct {
	Email   string `json:"email,omitempty" doc:"Fan email (required unless preview)"`
	Device  string `json:"device,omitempty" validate:"omitempty,max=100" doc:"Client device description"`
	Preview bool   `json:"preview,omitempty" doc:"Owner preview, skips all checks and writes"`
}

// ClaimInput wraps the claim request for Huma.
type ClaimInput struct {
	CircleID      string `path:"circleID" doc:"Circle ID"`
	Authorization string `header:"Authorization"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	Body          ClaimRequest
}

// ClaimOutput wraps the gate verdict. Status is 202 for grants and 200
// for denials.
type ClaimOutput struct {
	Status int
	Body   service.GateResult
}

// PlaybackRequest reports a player state change.
type PlaybackRequest struct {
	Event string `json:"event" validate:"required" doc:"One of: paused, playing, ended"`
}

// PlaybackInput wraps the playback report for Huma.
type PlaybackInput struct {
	CircleID      string `path:"circleID" doc:"Circle ID"`
	Authorization string `header:"Authorization"`
	Body          PlaybackRequest
}

// === Handlers ===

func (s *Server) handleGetDropSummary(ctx context.Context, input *DropSummaryInput) (*DropSummaryOutput, error) {
	summary, err := s.services.Gate.Summary(ctx, input.CircleID)
	if err != nil {
		return nil, err
	}

	return &DropSummaryOutput{Body: *summary}, nil
}

func (s *Server) handleClaimSpot(ctx context.Context, input *ClaimInput) (*ClaimOutput, error) {
	if input.Body.Preview {
		artistID, err := s.authenticateRequest(ctx, input.Authorization)
		if err != nil {
			return nil, err
		}

		result, err := s.services.Gate.Preview(ctx, artistID, input.CircleID)
		if err != nil {
			return nil, err
		}

		return &ClaimOutput{Status: http.StatusAccepted, Body: *result}, nil
	}

	ip := extractIP(input.XForwardedFor, input.XRealIP)
	if !s.claimLimiter.Allow(ip) {
		return nil, huma.Error429TooManyRequests("Too many requests. Please try again later.")
	}

	result, err := s.services.Gate.RequestAccess(ctx, input.CircleID, service.ClaimRequest{
		Email:  input.Body.Email,
		Device: input.Body.Device,
	})
	if err != nil {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}

		// Infrastructure failure. The fan page renders the denial and
		// offers a retry.
		s.logger.Error("Claim failed",
			"circle_id", input.CircleID,
			"error", err,
		)
		return &ClaimOutput{
			Status: http.StatusOK,
			Body: service.GateResult{
				Status: service.StatusDenied,
				Reason: domain.DenialTransmissionFailed,
			},
		}, nil
	}

	status := http.StatusAccepted
	if result.Status == service.StatusDenied {
		status = http.StatusOK
	}

	return &ClaimOutput{Status: status, Body: *result}, nil
}

func (s *Server) handleReportPlayback(ctx context.Context, input *PlaybackInput) (*MessageOutput, error) {
	claims, err := s.fanSession(input.Authorization)
	if err != nil {
		return nil, err
	}

	if claims.CircleID != input.CircleID {
		return nil, domainerrors.Forbidden("session belongs to a different circle")
	}

	if err := s.services.Gate.PlaybackEvent(ctx, claims, input.Body.Event); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Event recorded"}}, nil
}
