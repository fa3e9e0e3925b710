package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dropcircles/dropcircles-server/internal/domain"
	domainerrors "github.com/dropcircles/dropcircles-server/internal/errors"
	"github.com/dropcircles/dropcircles-server/internal/service"
	"github.com/dropcircles/dropcircles-server/internal/store"
)

func (s *Server) registerFeedbackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "submitFeedback",
		Method:      http.MethodPost,
		Path:        "/api/v1/drops/{circleID}/feedback",
		Summary:     "Submit feedback",
		Description: "Records a fan's reaction to the drop or one of its tracks. Requires a fan session token.",
		Tags:        []string{"Feedback"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSubmitFeedback)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFeedbackReport",
		Method:      http.MethodGet,
		Path:        "/api/v1/feedback",
		Summary:     "Get feedback report",
		Description: "Filtered feedback across the artist's circles with summary stats over the same set.",
		Tags:        []string{"Feedback"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetFeedbackReport)
}

// === DTOs ===

// SubmitFeedbackRequest carries a fan's reaction. Identity comes from
// the session token, never from the body.
type SubmitFeedbackRequest struct {
	ArtifactID string `json:"artifact_id,omitempty" doc:"Track the reaction is about, empty for the whole drop"`
	Thumbs     string `json:"thumbs,omitempty" enum:"up,down" doc:"Thumbs reaction"`
	StarRating int    `json:"star_rating,omitempty" minimum:"1" maximum:"5" doc:"Star rating, 1-5"`
	Comment    string `json:"comment,omitempty" validate:"max=2000" doc:"Free-form comment"`
	FanName    string `json:"fan_name,omitempty" validate:"max=100" doc:"Display name to show the artist"`
}

// SubmitFeedbackInput wraps the submission for Huma.
type SubmitFeedbackInput struct {
	CircleID      string `path:"circleID" doc:"Circle ID"`
	Authorization string `header:"Authorization"`
	Body          SubmitFeedbackRequest
}

// FeedbackResponse is a stored feedback record.
type FeedbackResponse struct {
	ID            string    `json:"id"`
	CircleID      string    `json:"circle_id"`
	ArtifactID    string    `json:"artifact_id,omitempty"`
	ArtifactTitle string    `json:"artifact_title,omitempty"`
	Thumbs        string    `json:"thumbs,omitempty"`
	StarRating    int       `json:"star_rating,omitempty"`
	Comment       string    `json:"comment,omitempty"`
	FanEmail      string    `json:"fan_email"`
	FanName       string    `json:"fan_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmitFeedbackOutput wraps the stored record for Huma.
type SubmitFeedbackOutput struct {
	Status int
	Body   FeedbackResponse
}

// FeedbackReportInput carries the dashboard filters.
type FeedbackReportInput struct {
	Authorization string `header:"Authorization"`
	CircleID      string `query:"circle_id" doc:"Limit to one circle"`
	Thumbs        string `query:"thumbs" enum:"up,down" doc:"Only records with this thumbs value"`
	MinStars      int    `query:"min_stars" minimum:"1" maximum:"5" doc:"Only records rated at least this"`
}

// FeedbackReportResponse is the dashboard payload.
type FeedbackReportResponse struct {
	Records []FeedbackResponse   `json:"records"`
	Stats   *store.FeedbackStats `json:"stats"`
}

// FeedbackReportOutput wraps the report for Huma.
type FeedbackReportOutput struct {
	Body FeedbackReportResponse
}

// === Handlers ===

func (s *Server) handleSubmitFeedback(ctx context.Context, input *SubmitFeedbackInput) (*SubmitFeedbackOutput, error) {
	claims, err := s.fanSession(input.Authorization)
	if err != nil {
		return nil, err
	}

	if claims.CircleID != input.CircleID {
		return nil, domainerrors.Forbidden("session belongs to a different circle")
	}

	feedback, err := s.services.Feedback.Submit(ctx, claims, service.SubmitFeedbackRequest{
		ArtifactID: input.Body.ArtifactID,
		Thumbs:     input.Body.Thumbs,
		StarRating: input.Body.StarRating,
		Comment:    input.Body.Comment,
		FanName:    input.Body.FanName,
	})
	if err != nil {
		return nil, err
	}

	return &SubmitFeedbackOutput{
		Status: http.StatusCreated,
		Body:   mapFeedbackResponse(feedback),
	}, nil
}

func (s *Server) handleGetFeedbackReport(ctx context.Context, input *FeedbackReportInput) (*FeedbackReportOutput, error) {
	artistID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Feedback.Report(ctx, artistID, service.FeedbackFilter{
		CircleID: input.CircleID,
		Thumbs:   domain.Thumbs(input.Thumbs),
		MinStars: input.MinStars,
	})
	if err != nil {
		return nil, err
	}

	records := make([]FeedbackResponse, 0, len(report.Records))
	for _, record := range report.Records {
		records = append(records, mapFeedbackResponse(record))
	}

	return &FeedbackReportOutput{Body: FeedbackReportResponse{
		Records: records,
		Stats:   report.Stats,
	}}, nil
}

func mapFeedbackResponse(feedback *domain.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:            feedback.ID,
		CircleID:      feedback.CircleID,
		ArtifactID:    feedback.ArtifactID,
		ArtifactTitle: feedback.ArtifactTitle,
		Thumbs:        string(feedback.Thumbs),
		StarRating:    feedback.StarRating,
		Comment:       feedback.Comment,
		FanEmail:      feedback.FanEmail,
		FanName:       feedback.FanName,
		CreatedAt:     feedback.CreatedAt,
	}
}
