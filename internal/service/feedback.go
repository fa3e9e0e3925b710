package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dropcircles/dropcircles-server/internal/auth"
	"github.com/dropcircles/dropcircles-server/internal/domain"
	domainerrors "github.com/dropcircles/dropcircles-server/internal/errors"
	"github.com/dropcircles/dropcircles-server/internal/id"
	"github.com/dropcircles/dropcircles-server/internal/store"
)

// FeedbackService handles fan reactions and the artist's feedback
// dashboard data.
type FeedbackService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(store *store.Store, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{store: store, logger: logger}
}

// SubmitFeedbackRequest is a fan reaction. Everything besides the
// session identity is optional, but an entirely empty reaction is
// rejected.
type SubmitFeedbackRequest struct {
	ArtifactID string `json:"artifact_id"`
	Thumbs     string `json:"thumbs" validate:"omitempty,oneof=up down"`
	StarRating int    `json:"star_rating" validate:"omitempty,gte=1,lte=5"`
	Comment    string `json:"comment" validate:"max=2000"`
	FanName    string `json:"fan_name" validate:"max=100"`
}

// FeedbackFilter narrows the artist's dashboard listing.
type FeedbackFilter struct {
	CircleID string
	Thumbs   domain.Thumbs
	MinStars int
}

// FeedbackReport is the dashboard payload: filtered records plus
// summary stats computed over the same filtered set.
type FeedbackReport struct {
	Records []*domain.Feedback   `json:"records"`
	Stats   *store.FeedbackStats `json:"stats"`
}

// Submit records a fan's reaction. The identity comes from the fan
// session token, never from the request body.
func (s *FeedbackService) Submit(ctx context.Context, claims *auth.FanClaims, req SubmitFeedbackRequest) (*domain.Feedback, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if req.Thumbs == "" && req.StarRating == 0 && req.Comment == "" {
		return nil, domainerrors.Validation("feedback needs a reaction, rating, or comment")
	}

	feedback := &domain.Feedback{
		CircleID:   claims.CircleID,
		Thumbs:     domain.Thumbs(req.Thumbs),
		StarRating: req.StarRating,
		Comment:    req.Comment,
		FanEmail:   claims.Email,
		FanName:    req.FanName,
	}

	if req.ArtifactID != "" {
		artifact, err := s.store.GetArtifact(ctx, req.ArtifactID)
		if err != nil {
			if errors.Is(err, store.ErrArtifactNotFound) {
				return nil, domainerrors.NotFound("artifact not found")
			}
			return nil, fmt.Errorf("get artifact: %w", err)
		}
		if artifact.CircleID != claims.CircleID {
			return nil, domainerrors.Forbidden("artifact belongs to a different circle")
		}
		feedback.ArtifactID = artifact.ID
		feedback.ArtifactTitle = artifact.DisplayTitle()
	}

	feedbackID, err := id.Generate("fb")
	if err != nil {
		return nil, fmt.Errorf("generate feedback ID: %w", err)
	}
	feedback.ID = feedbackID
	feedback.InitTimestamps()

	if err := s.store.CreateFeedback(ctx, feedback); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Feedback submitted",
			"circle_id", claims.CircleID,
			"artifact_id", req.ArtifactID,
			"thumbs", req.Thumbs,
			"stars", req.StarRating,
		)
	}

	return feedback, nil
}

// Report returns the artist's feedback dashboard: records across one
// or all of their circles, filtered, newest first, with stats.
func (s *FeedbackService) Report(ctx context.Context, artistID string, filter FeedbackFilter) (*FeedbackReport, error) {
	circleIDs, err := s.circleIDsFor(ctx, artistID, filter.CircleID)
	if err != nil {
		return nil, err
	}

	var records []*domain.Feedback
	for _, circleID := range circleIDs {
		circleRecords, err := s.store.ListFeedbackByCircle(ctx, circleID)
		if err != nil {
			return nil, fmt.Errorf("list feedback: %w", err)
		}
		records = append(records, circleRecords...)
	}

	records = applyFeedbackFilter(records, filter)

	return &FeedbackReport{
		Records: records,
		Stats:   store.ComputeFeedbackStats(records),
	}, nil
}

func (s *FeedbackService) circleIDsFor(ctx context.Context, artistID, circleID string) ([]string, error) {
	if circleID != "" {
		circle, err := s.store.GetCircle(ctx, circleID)
		if err != nil {
			if errors.Is(err, store.ErrCircleNotFound) {
				return nil, domainerrors.NotFound("circle not found")
			}
			return nil, fmt.Errorf("get circle: %w", err)
		}
		if circle.ArtistID != artistID {
			return nil, domainerrors.NotFound("circle not found")
		}
		return []string{circleID}, nil
	}

	circles, err := s.store.ListCirclesByArtist(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}

	ids := make([]string, len(circles))
	for i, c := range circles {
		ids[i] = c.ID
	}
	return ids, nil
}

func applyFeedbackFilter(records []*domain.Feedback, filter FeedbackFilter) []*domain.Feedback {
	if filter.Thumbs == domain.ThumbsNone && filter.MinStars == 0 {
		return records
	}

	filtered := records[:0:0]
	for _, f := range records {
		if filter.Thumbs != domain.ThumbsNone && f.Thumbs != filter.Thumbs {
			continue
		}
		if filter.MinStars > 0 && f.StarRating < filter.MinStars {
			continue
		}
		filtered = append(filtered, f)
	}
	return filtered
}
