package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dropcircles/dropcircles-server/internal/domain"
	domainerrors "github.com/dropcircles/dropcircles-server/internal/errors"
	"github.com/dropcircles/dropcircles-server/internal/id"
	"github.com/dropcircles/dropcircles-server/internal/store"
)

// WaitlistService handles waitlist signups for full circles.
type WaitlistService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewWaitlistService creates a new waitlist service.
func NewWaitlistService(store *store.Store, logger *slog.Logger) *WaitlistService {
	return &WaitlistService{store: store, logger: logger}
}

// JoinWaitlistRequest is a public waitlist signup.
type JoinWaitlistRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Source string `json:"source" validate:"max=100"`
}

// Join puts an email on a circle's waitlist. Signing up twice is a
// silent success; the original entry stands.
func (s *WaitlistService) Join(ctx context.Context, circleID string, req JoinWaitlistRequest) error {
	// Normalize before validating so a padded email is the same signup.
	email := domain.NormalizeEmail(req.Email)
	req.Email = email

	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	if _, err := s.store.GetCircle(ctx, circleID); err != nil {
		if errors.Is(err, store.ErrCircleNotFound) {
			return domainerrors.NotFound("circle not found")
		}
		return fmt.Errorf("get circle: %w", err)
	}

	entryID, err := id.Generate("wait")
	if err != nil {
		return fmt.Errorf("generate waitlist entry ID: %w", err)
	}

	source := req.Source
	if source == "" {
		source = "drop_page"
	}

	entry := &domain.WaitlistEntry{
		Syncable: domain.Syncable{
			ID: entryID,
		},
		CircleID: circleID,
		Email:    email,
		Source:   source,
	}
	entry.InitTimestamps()

	created, err := s.store.JoinWaitlist(ctx, entry)
	if err != nil {
		return fmt.Errorf("join waitlist: %w", err)
	}

	if created && s.logger != nil {
		s.logger.Info("Waitlist signup",
			"circle_id", circleID,
			"source", source,
		)
	}

	return nil
}

// List returns a circle's waitlist for its owner, oldest first.
func (s *WaitlistService) List(ctx context.Context, artistID, circleID string) ([]*domain.WaitlistEntry, error) {
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

	entries, err := s.store.ListWaitlist(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return entries, nil
}
