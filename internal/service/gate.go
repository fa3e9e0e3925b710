package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dropcircles/dropcircles-server/internal/auth"
	"github.com/dropcircles/dropcircles-server/internal/domain"
	domainerrors "github.com/dropcircles/dropcircles-server/internal/errors"
	"github.com/dropcircles/dropcircles-server/internal/id"
	"github.com/dropcircles/dropcircles-server/internal/notify"
	"github.com/dropcircles/dropcircles-server/internal/playback"
	"github.com/dropcircles/dropcircles-server/internal/store"
)

// Gate result statuses. Fans see these verbatim.
const (
	StatusGranted = "GRANTED"
	StatusDenied  = "DENIED"
)

// GateService runs the access gate: the state machine deciding whether
// a fan may enter a circle. Every decision is made server-side; the
// client only renders the result.
type GateService struct {
	store    *store.Store
	tokens   *auth.TokenService
	delivery *DeliveryService
	guard    *playback.Guard
	mailer   notify.Mailer
	logger   *slog.Logger
}

// NewGateService creates a new gate service.
func NewGateService(
	store *store.Store,
	tokens *auth.TokenService,
	delivery *DeliveryService,
	guard *playback.Guard,
	mailer notify.Mailer,
	logger *slog.Logger,
) *GateService {
	return &GateService{
		store:    store,
		tokens:   tokens,
		delivery: delivery,
		guard:    guard,
		mailer:   mailer,
		logger:   logger,
	}
}

// ClaimRequest is a fan's attempt to claim a spot.
type ClaimRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Device string `json:"device" validate:"max=100"`
}

// GateResult is the gate's verdict. Denials carry a reason; grants
// carry a session token and the delivered artifacts.
type GateResult struct {
	Status         string              `json:"status"`
	Reason         domain.DenialReason `json:"reason,omitempty"`
	SessionToken   string              `json:"session_token,omitempty"`
	Artifacts      []DeliveredArtifact `json:"artifacts,omitempty"`
	SpotsRemaining int                 `json:"spots_remaining"`
	CircleTitle    string              `json:"circle_title,omitempty"`
}

// DropSummary is the public gate view of a circle.
type DropSummary struct {
	Status         string              `json:"status"`
	Reason         domain.DenialReason `json:"reason,omitempty"`
	Title          string              `json:"title,omitempty"`
	ArtistName     string              `json:"artist_name,omitempty"`
	SpotsRemaining int                 `json:"spots_remaining"`
	ArtifactCount  int                 `json:"artifact_count"`
}

func denied(reason domain.DenialReason) *GateResult {
	return &GateResult{Status: StatusDenied, Reason: reason}
}

// RequestAccess runs the claim state machine: live check, capacity
// check, one-claim-per-email check, then the atomic roster insert. A
// denial writes nothing. Infrastructure failures return an error,
// which the transport reports as TRANSMISSION_FAILED.
func (s *GateService) RequestAccess(ctx context.Context, circleID string, req ClaimRequest) (*GateResult, error) {
	// Normalize before validating: "  Fan@Example.COM  " is the same
	// identity as "fan@example.com", and the email rule rejects padding.
	email := domain.NormalizeEmail(req.Email)
	req.Email = email

	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		if errors.Is(err, store.ErrCircleNotFound) {
			// A missing circle is indistinguishable from a sealed one.
			return denied(domain.DenialSealed), nil
		}
		return nil, fmt.Errorf("get circle: %w", err)
	}

	entryID, err := id.Generate("roster")
	if err != nil {
		return nil, fmt.Errorf("generate roster entry ID: %w", err)
	}

	entry := &domain.RosterEntry{
		Syncable: domain.Syncable{
			ID: entryID,
		},
		CircleID:  circleID,
		Email:     email,
		ClaimedAt: time.Now(),
	}
	entry.InitTimestamps()

	if err := s.store.ClaimSpot(ctx, circleID, entry); err != nil {
		switch {
		case errors.Is(err, store.ErrCircleSealed):
			return denied(domain.DenialSealed), nil
		case errors.Is(err, store.ErrCircleFull):
			return denied(domain.DenialCapacityReached), nil
		case errors.Is(err, store.ErrSpotAlreadyClaimed):
			return denied(domain.DenialSessionExpired), nil
		}
		return nil, fmt.Errorf("claim spot: %w", err)
	}

	// Re-read for the post-claim counter.
	circle, err = s.store.GetCircle(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("reload circle: %w", err)
	}

	result, err := s.admit(ctx, circle, email, false)
	if err != nil {
		return nil, err
	}

	s.notifyOwner(circle, email)

	if s.logger != nil {
		s.logger.Info("Spot claimed",
			"circle_id", circleID,
			"spots_remaining", result.SpotsRemaining,
		)
	}

	return result, nil
}

// Preview lets the circle's owner walk through the fan view without
// touching the roster. Works on sealed circles; the issued session is
// never registered with the playback guard.
func (s *GateService) Preview(ctx context.Context, artistID, circleID string) (*GateResult, error) {
	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		if errors.Is(err, store.ErrCircleNotFound) {
			return nil, domainerrors.NotFound("circle not found")
		}
		return nil, fmt.Errorf("get circle: %w", err)
	}
	if circle.ArtistID != artistID {
		return nil, domainerrors.Forbidden("only the circle's owner can preview it")
	}

	return s.admit(ctx, circle, domain.NormalizeEmail(artistEmailForPreview(circle)), true)
}

// Summary returns the public gate view. Missing or sealed circles
// produce the SEALED denial shape so the gate page renders it as-is.
func (s *GateService) Summary(ctx context.Context, circleID string) (*DropSummary, error) {
	circle, err := s.store.GetCircle(ctx, circleID)
	if err != nil {
		if errors.Is(err, store.ErrCircleNotFound) {
			return &DropSummary{Status: StatusDenied, Reason: domain.DenialSealed}, nil
		}
		return nil, fmt.Errorf("get circle: %w", err)
	}
	if !circle.IsLive {
		return &DropSummary{Status: StatusDenied, Reason: domain.DenialSealed}, nil
	}

	artifacts, err := s.store.ListArtifactsByCircle(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	summary := &DropSummary{
		Status:         "LIVE",
		Title:          circle.Title,
		SpotsRemaining: circle.SpotsLeft(),
		ArtifactCount:  len(artifacts),
	}

	if artist, err := s.store.Users.Get(ctx, circle.ArtistID); err == nil {
		summary.ArtistName = artist.Name()
	}

	return summary, nil
}

// PlaybackEvent feeds a fan's player state into the playback guard.
// Preview sessions are exempt.
func (s *GateService) PlaybackEvent(_ context.Context, claims *auth.FanClaims, event string) error {
	if claims.Preview {
		return nil
	}

	var err error
	switch event {
	case "paused":
		err = s.guard.Pause(claims.SessionID)
	case "playing", "ended":
		err = s.guard.Resume(claims.SessionID)
	default:
		return domainerrors.Validationf("unknown playback event %q", event)
	}

	if errors.Is(err, playback.ErrSessionLocked) {
		return domainerrors.SessionLocked("session locked out by the playback guard")
	}
	return err
}

// admit builds a granted result: fan session token plus delivered
// artifacts with signed stream URLs.
func (s *GateService) admit(ctx context.Context, circle *domain.Circle, email string, preview bool) (*GateResult, error) {
	token, sessionID, err := s.tokens.GenerateFanToken(circle.ID, email, preview)
	if err != nil {
		return nil, fmt.Errorf("generate fan token: %w", err)
	}

	artifacts, err := s.store.ListArtifactsByCircle(ctx, circle.ID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	return &GateResult{
		Status:         StatusGranted,
		SessionToken:   token,
		Artifacts:      s.delivery.IssueStreamURLs(sessionID, email, artifacts),
		SpotsRemaining: circle.SpotsLeft(),
		CircleTitle:    circle.Title,
	}, nil
}

// notifyOwner emails the artist about a new claim, fire-and-forget.
func (s *GateService) notifyOwner(circle *domain.Circle, email string) {
	if s.mailer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		artist, err := s.store.Users.Get(ctx, circle.ArtistID)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("Claim notification skipped, owner lookup failed",
					"circle_id", circle.ID,
					"error", err,
				)
			}
			return
		}

		subject := fmt.Sprintf("New claim on %s", circle.Title)
		body := fmt.Sprintf("%s claimed a spot in %s. %d spots remaining.",
			email, circle.Title, circle.SpotsLeft())

		if err := s.mailer.Send(ctx, artist.Email, subject, body); err != nil && s.logger != nil {
			s.logger.Warn("Claim notification failed",
				"circle_id", circle.ID,
				"error", err,
			)
		}
	}()
}

// artistEmailForPreview labels the preview session. The artist's real
// email is not needed; the token identity just has to be stable.
func artistEmailForPreview(circle *domain.Circle) string {
	return "preview+" + circle.ArtistID + "@dropcircles.local"
}
