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
	"github.com/dropcircles/dropcircles-server/internal/vault"
)

// CircleService handles circle CRUD and the guestlist, all owner-scoped.
type CircleService struct {
	store           *store.Store
	vault           *vault.Storage
	logger          *slog.Logger
	maxPerArtist    int
	defaultCapacity int
}

// NewCircleService creates a new circle service.
func NewCircleService(
	store *store.Store,
	vaultStorage *vault.Storage,
	maxPerArtist, defaultCapacity int,
	logger *slog.Logger,
) *CircleService {
	return &CircleService{
		store:           store,
		vault:           vaultStorage,
		logger:          logger,
		maxPerArtist:    maxPerArtist,
		defaultCapacity: defaultCapacity,
	}
}

// CreateCircleRequest contains the data for a new circle.
type CreateCircleRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Capacity    int    `json:"capacity" validate:"omitempty,gte=1"`
}

// UpdateCircleRequest contains partial circle updates. Nil fields are
// left untouched.
type UpdateCircleRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Capacity    *int    `json:"capacity" validate:"omitempty,gte=1"`
	IsLive      *bool   `json:"is_live"`
}

// RosterResponse is the guestlist view for a circle.
type RosterResponse struct {
	Entries        []*domain.RosterEntry `json:"entries"`
	SpotsRemaining int                   `json:"spots_remaining"`
	Capacity       int                   `json:"capacity"`
}

// CreateCircle creates a circle for an artist. New circles start
// offline; the per-artist quota is enforced in the store transaction.
func (s *CircleService) CreateCircle(ctx context.Context, artistID string, req CreateCircleRequest) (*domain.Circle, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	circleID, err := id.Generate("cir")
	if err != nil {
		return nil, fmt.Errorf("generate circle ID: %w", err)
	}

	capacity := req.Capacity
	if capacity <= 0 {
		capacity = s.defaultCapacity
	}

	circle := &domain.Circle{
		Syncable: domain.Syncable{
			ID: circleID,
		},
		ArtistID:    artistID,
		Title:       req.Title,
		Description: req.Description,
		Capacity:    capacity,
	}
	circle.InitTimestamps()

	if err := s.store.CreateCircle(ctx, circle, s.maxPerArtist); err != nil {
		if errors.Is(err, store.ErrCircleQuota) {
			return nil, domainerrors.CircleLimit(fmt.Sprintf("you can run at most %d circles", s.maxPerArtist))
		}
		return nil, fmt.Errorf("create circle: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Circle created",
			"circle_id", circleID,
			"artist_id", artistID,
			"capacity", capacity,
		)
	}

	return circle, nil
}

// GetCircle returns one of the artist's circles.
func (s *CircleService) GetCircle(ctx context.Context, artistID, circleID string) (*domain.Circle, error) {
	return s.ownedCircle(ctx, artistID, circleID)
}

// ListCircles returns the artist's circles, newest first.
func (s *CircleService) ListCircles(ctx context.Context, artistID string) ([]*domain.Circle, error) {
	circles, err := s.store.ListCirclesByArtist(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}
	return circles, nil
}

// UpdateCircle applies partial updates. Toggling is_live seals or
// opens the gate; a sealed circle denies new claims but existing
// roster members keep access.
func (s *CircleService) UpdateCircle(ctx context.Context, artistID, circleID string, req UpdateCircleRequest) (*domain.Circle, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	circle, err := s.ownedCircle(ctx, artistID, circleID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		circle.Title = *req.Title
	}
	if req.Description != nil {
		circle.Description = *req.Description
	}
	if req.Capacity != nil {
		if *req.Capacity < circle.ClaimedCount {
			return nil, domainerrors.Validationf("capacity cannot drop below the %d claimed spots", circle.ClaimedCount)
		}
		circle.Capacity = *req.Capacity
	}
	if req.IsLive != nil && *req.IsLive != circle.IsLive {
		if *req.IsLive {
			circle.Open()
		} else {
			circle.Seal()
		}
	}

	if err := s.store.UpdateCircle(ctx, circle); err != nil {
		return nil, fmt.Errorf("update circle: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Circle updated",
			"circle_id", circleID,
			"is_live", circle.IsLive,
		)
	}

	return circle, nil
}

// DeleteCircle removes a circle with its roster, waitlist, and
// artifacts. Vault files are removed best-effort.
func (s *CircleService) DeleteCircle(ctx context.Context, artistID, circleID string) error {
	if _, err := s.ownedCircle(ctx, artistID, circleID); err != nil {
		return err
	}

	artifacts, err := s.store.ListArtifactsByCircle(ctx, circleID)
	if err != nil {
		return fmt.Errorf("list artifacts: %w", err)
	}

	for _, artifact := range artifacts {
		if err := s.store.DeleteArtifact(ctx, artifact.ID); err != nil {
			return fmt.Errorf("delete artifact %s: %w", artifact.ID, err)
		}
		if err := s.vault.Delete(artifact.StoragePath); err != nil && s.logger != nil {
			s.logger.Warn("Failed to remove vault file",
				"artifact_id", artifact.ID,
				"path", artifact.StoragePath,
				"error", err,
			)
		}
	}

	if err := s.store.DeleteCircle(ctx, circleID); err != nil {
		return fmt.Errorf("delete circle: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Circle deleted",
			"circle_id", circleID,
			"artist_id", artistID,
			"artifacts_removed", len(artifacts),
		)
	}

	return nil
}

// GetRoster returns the circle's guestlist, oldest claims first.
func (s *CircleService) GetRoster(ctx context.Context, artistID, circleID string) (*RosterResponse, error) {
	circle, err := s.ownedCircle(ctx, artistID, circleID)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.ListRoster(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	return &RosterResponse{
		Entries:        entries,
		SpotsRemaining: circle.SpotsLeft(),
		Capacity:       circle.Capacity,
	}, nil
}

// RemoveRosterEntry drops an email from the guestlist, freeing a spot.
func (s *CircleService) RemoveRosterEntry(ctx context.Context, artistID, circleID, email string) error {
	if _, err := s.ownedCircle(ctx, artistID, circleID); err != nil {
		return err
	}

	if err := s.store.RemoveRosterEntry(ctx, circleID, email); err != nil {
		if errors.Is(err, store.ErrNotOnRoster) {
			return domainerrors.NotFound("email is not on the roster")
		}
		return fmt.Errorf("remove roster entry: %w", err)
	}

	return nil
}

// ownedCircle loads a circle and verifies the caller owns it.
// A circle owned by someone else reads as not found.
func (s *CircleService) ownedCircle(ctx context.Context, artistID, circleID string) (*domain.Circle, error) {
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
	return circle, nil
}
