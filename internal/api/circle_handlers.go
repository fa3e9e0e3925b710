package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dropcircles/dropcircles-server/internal/domain"
	"github.com/dropcircles/dropcircles-server/internal/service"
)

func (s *Server) registerCircleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createCircle",
		Method:      http.MethodPost,
		Path:        "/api/v1/circles",
		Summary:     "Create circle",
		Description: "Creates a new circle. New circles start offline.",
		Tags:        []string{"Circles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCircle)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCircles",
		Method:      http.MethodGet,
		Path:        "/api/v1/circles",
		Summary:     "List circles",
		Description: "Returns the artist's circles, newest first",
		Tags:        []string{"Circles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCircles)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCircle",
		Method:      http.MethodGet,
		Path:        "/api/v1/circles/{id}",
		Summary:     "Get circle",
		Description: "Returns a circle by ID",
		Tags:        []string{"Circles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCircle)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCircle",
		Method:      http.MethodPatch,
		Path:        "/api/v1/circles/{id}",
		Summary:     "Update circle",
		Description: "Updates a circle. Toggling is_live opens or seals it.",
		Tags:        []string{"Circles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCircle)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteCircle",
		Method:      http.MethodDelete,
		Path:        "/api/v1/circles/{id}",
		Summary:     "Delete circle",
		Description: "Deletes a circle with its roster, waitlist, and artifacts",
		Tags:        []string{"Circles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteCircle)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRoster",
		Method:      http.MethodGet,
		Path:        "/api/v1/circles/{id}/roster",
		Summary:     "Get roster",
		Description: "Returns the circle's guestlist, oldest claims first",
		Tags:        []string{"Circles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRoster)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeRosterEntry",
		Method:      http.MethodDelete,
		Path:        "/api/v1/circles/{id}/roster/{email}",
		Summary:     "Remove roster entry",
		Description: "Removes a fan from the roster, freeing their spot",
		Tags:        []string{"Circles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveRosterEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWaitlist",
		Method:      http.MethodGet,
		Path:        "/api/v1/circles/{id}/waitlist",
		Summary:     "Get waitlist",
		Description: "Returns the circle's waitlist, oldest signups first",
		Tags:        []string{"Circles"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetWaitlist)
}

// === DTOs ===

// CircleResponse is the artist-facing view of a circle.
type CircleResponse struct {
	ID             string     `json:"id" doc:"Circle ID"`
	Title          string     `json:"title" doc:"Circle title"`
	Description    string     `json:"description,omitempty" doc:"Description"`
	Capacity       int        `json:"capacity" doc:"Maximum spots"`
	ClaimedCount   int        `json:"claimed_count" doc:"Claimed spots"`
	SpotsRemaining int        `json:"spots_remaining" doc:"Unclaimed spots"`
	IsLive         bool       `json:"is_live" doc:"Whether fans can claim spots"`
	OpenedAt       *time.Time `json:"opened_at,omitempty" doc:"When the circle last went live"`
	SealedAt       *time.Time `json:"sealed_at,omitempty" doc:"When the circle was sealed"`
	CreatedAt      time.Time  `json:"created_at" doc:"Creation time"`
	UpdatedAt      time.Time  `json:"updated_at" doc:"Last update time"`
}

// CircleOutput wraps a single circle for Huma.
type CircleOutput struct {
	Body CircleResponse
}

// CreateCircleRequest is the request body for circle creation.
type CreateCircleRequest struct {
	Title       string `json:"title" validate:"required,max=200" doc:"Circle title"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000" doc:"Description"`
	Capacity    int    `json:"capacity,omitempty" validate:"omitempty,gte=1" doc:"Maximum spots (default 100)"`
}

// CreateCircleInput wraps the create request for Huma.
type CreateCircleInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateCircleRequest
}

// ListCirclesInput carries the auth header.
type ListCirclesInput struct {
	Authorization string `header:"Authorization"`
}

// ListCirclesResponse holds the artist's circles.
type ListCirclesResponse struct {
	Circles []CircleResponse `json:"circles" doc:"The artist's circles"`
}

// ListCirclesOutput wraps the list for Huma.
type ListCirclesOutput struct {
	Body ListCirclesResponse
}

// GetCircleInput identifies a circle.
type GetCircleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Circle ID"`
}

// UpdateCircleRequest contains partial circle updates.
type UpdateCircleRequest struct {
	Title       *string `json:"title,omitempty" doc:"New title"`
	Description *string `json:"description,omitempty" doc:"New description"`
	Capacity    *int    `json:"capacity,omitempty" doc:"New capacity"`
	IsLive      *bool   `json:"is_live,omitempty" doc:"Open or seal the circle"`
}

// UpdateCircleInput wraps the update request for Huma.
type UpdateCircleInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Circle ID"`
	Body          UpdateCircleRequest
}

// RosterEntryResponse is one claimed spot.
type RosterEntryResponse struct {
	Email     string    `json:"email" doc:"Fan email"`
	ClaimedAt time.Time `json:"claimed_at" doc:"When the spot was claimed"`
}

// RosterResponse is the guestlist view.
type RosterResponse struct {
	Entries        []RosterEntryResponse `json:"entries" doc:"Claimed spots, oldest first"`
	SpotsRemaining int                   `json:"spots_remaining" doc:"Unclaimed spots"`
	Capacity       int                   `json:"capacity" doc:"Maximum spots"`
}

// RosterOutput wraps the roster for Huma.
type RosterOutput struct {
	Body RosterResponse
}

// RemoveRosterEntryInput identifies a roster entry.
type RemoveRosterEntryInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Circle ID"`
	Email         string `path:"email" doc:"Fan email to remove"`
}

// WaitlistEntryResponse is one waitlist signup.
type WaitlistEntryResponse struct {
	Email    string    `json:"email" doc:"Fan email"`
	Source   string    `json:"source,omitempty" doc:"Where the signup came from"`
	JoinedAt time.Time `json:"joined_at" doc:"Signup time"`
}

// WaitlistResponse holds a circle's waitlist.
type WaitlistResponse struct {
	Entries []WaitlistEntryResponse `json:"entries" doc:"Waitlist signups, oldest first"`
}

// WaitlistOutput wraps the waitlist for Huma.
type WaitlistOutput struct {
	Body WaitlistResponse
}

// === Handlers ===

func (s *Server) handleCreateCircle(ctx context.Context, input *CreateCircleInput) (*CircleOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	circle, err := s.services.Circles.CreateCircle(ctx, artistID, service.CreateCircleRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Capacity:    input.Body.Capacity,
	})
	if err != nil {
		return nil, err
	}

	return &CircleOutput{Body: mapCircleResponse(circle)}, nil
}

func (s *Server) handleListCircles(ctx context.Context, input *ListCirclesInput) (*ListCirclesOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	circles, err := s.services.Circles.ListCircles(ctx, artistID)
	if err != nil {
		return nil, err
	}

	resp := make([]CircleResponse, len(circles))
	for i, c := range circles {
		resp[i] = mapCircleResponse(c)
	}

	return &ListCirclesOutput{Body: ListCirclesResponse{Circles: resp}}, nil
}

func (s *Server) handleGetCircle(ctx context.Context, input *GetCircleInput) (*CircleOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	circle, err := s.services.Circles.GetCircle(ctx, artistID, input.ID)
	if err != nil {
		return nil, err
	}

	return &CircleOutput{Body: mapCircleResponse(circle)}, nil
}

func (s *Server) handleUpdateCircle(ctx context.Context, input *UpdateCircleInput) (*CircleOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	circle, err := s.services.Circles.UpdateCircle(ctx, artistID, input.ID, service.UpdateCircleRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Capacity:    input.Body.Capacity,
		IsLive:      input.Body.IsLive,
	})
	if err != nil {
		return nil, err
	}

	return &CircleOutput{Body: mapCircleResponse(circle)}, nil
}

func (s *Server) handleDeleteCircle(ctx context.Context, input *GetCircleInput) (*MessageOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Circles.DeleteCircle(ctx, artistID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Circle deleted"}}, nil
}

func (s *Server) handleGetRoster(ctx context.Context, input *GetCircleInput) (*RosterOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	roster, err := s.services.Circles.GetRoster(ctx, artistID, input.ID)
	if err != nil {
		return nil, err
	}

	entries := make([]RosterEntryResponse, len(roster.Entries))
	for i, entry := range roster.Entries {
		entries[i] = RosterEntryResponse{
			Email:     entry.Email,
			ClaimedAt: entry.ClaimedAt,
		}
	}

	return &RosterOutput{
		Body: RosterResponse{
			Entries:        entries,
			SpotsRemaining: roster.SpotsRemaining,
			Capacity:       roster.Capacity,
		},
	}, nil
}

func (s *Server) handleRemoveRosterEntry(ctx context.Context, input *RemoveRosterEntryInput) (*MessageOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Circles.RemoveRosterEntry(ctx, artistID, input.ID, input.Email); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Roster entry removed"}}, nil
}

func (s *Server) handleGetWaitlist(ctx context.Context, input *GetCircleInput) (*WaitlistOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	entries, err := s.services.Waitlist.List(ctx, artistID, input.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]WaitlistEntryResponse, len(entries))
	for i, entry := range entries {
		resp[i] = WaitlistEntryResponse{
			Email:    entry.Email,
			Source:   entry.Source,
			JoinedAt: entry.CreatedAt,
		}
	}

	return &WaitlistOutput{Body: WaitlistResponse{Entries: resp}}, nil
}

// === Helpers ===

func mapCircleResponse(c *domain.Circle) CircleResponse {
	return CircleResponse{
		ID:             c.ID,
		Title:          c.Title,
		Description:    c.Description,
		Capacity:       c.Capacity,
		ClaimedCount:   c.ClaimedCount,
		SpotsRemaining: c.SpotsLeft(),
		IsLive:         c.IsLive,
		OpenedAt:       c.OpenedAt,
		SealedAt:       c.SealedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
