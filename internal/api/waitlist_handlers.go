package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dropcircles/dropcircles-server/internal/service"
)

func (s *Server) registerWaitlistRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "joinWaitlist",
		Method:      http.MethodPost,
		Path:        "/api/v1/drops/{circleID}/waitlist",
		Summary:     "Join the waitlist",
		Description: "Signs an email up for a circle's waitlist. Joining twice is a silent success.",
		Tags:        []string{"Gate"},
	}, s.handleJoinWaitlist)
}

// JoinWaitlistRequest signs an email up for a circle's waitlist.
type JoinWaitlistRequest struct {
	Email  string `json:"email" validate:"required,email" doc:"Fan email"`
	Source string `json:"source,omitempty" validate:"omitempty,max=100" doc:"Where the signup came from"`
}

// JoinWaitlistInput wraps the signup for Huma.
type JoinWaitlistInput struct {
	CircleID string `path:"circleID" doc:"Circle ID"`
	Body     JoinWaitlistRequest
}

func (s *Server) handleJoinWaitlist(ctx context.Context, input *JoinWaitlistInput) (*MessageOutput, error) {
	err := s.services.Waitlist.Join(ctx, input.CircleID, service.JoinWaitlistRequest{
		Email:  input.Body.Email,
		Source: input.Body.Source,
	})
	if err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "You're on the list"}}, nil
}
