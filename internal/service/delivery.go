package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dropcircles/dropcircles-server/internal/domain"
	domainerrors "github.com/dropcircles/dropcircles-server/internal/errors"
	"github.com/dropcircles/dropcircles-server/internal/playback"
	"github.com/dropcircles/dropcircles-server/internal/store"
	"github.com/dropcircles/dropcircles-server/internal/vault"
)

// DeliveryService mints signed stream URLs for granted sessions and
// redeems them at stream time.
type DeliveryService struct {
	store   *store.Store
	signer  *vault.Signer
	vault   *vault.Storage
	guard   *playback.Guard
	baseURL string
	logger  *slog.Logger
}

// NewDeliveryService creates a new delivery service. baseURL is the
// server's public URL; empty produces relative stream URLs.
func NewDeliveryService(
	store *store.Store,
	signer *vault.Signer,
	vaultStorage *vault.Storage,
	guard *playback.Guard,
	baseURL string,
	logger *slog.Logger,
) *DeliveryService {
	return &DeliveryService{
		store:   store,
		signer:  signer,
		vault:   vaultStorage,
		guard:   guard,
		baseURL: baseURL,
		logger:  logger,
	}
}

// DeliveredArtifact is an artifact as handed to a fan: identity plus a
// time-boxed stream URL. An empty stream URL means signing failed for
// that artifact; the rest of the batch is unaffected.
type DeliveredArtifact struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	FileType  string  `json:"file_type"`
	Duration  float64 `json:"duration,omitempty"`
	Position  int     `json:"position"`
	StreamURL string  `json:"stream_url"`
}

// IssueStreamURLs signs a stream URL per artifact, concurrently.
// Order and identity are preserved; per-artifact failures degrade to
// an empty URL rather than failing the batch.
func (s *DeliveryService) IssueStreamURLs(sessionID, email string, artifacts []*domain.Artifact) []DeliveredArtifact {
	delivered := make([]DeliveredArtifact, len(artifacts))

	var wg sync.WaitGroup
	for i, artifact := range artifacts {
		delivered[i] = DeliveredArtifact{
			ID:       artifact.ID,
			Title:    artifact.DisplayTitle(),
			FileType: artifact.MimeType,
			Duration: artifact.Duration,
			Position: artifact.Position,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			token, err := s.signer.Sign(artifact.ID, artifact.CircleID, email, sessionID)
			if err != nil {
				if s.logger != nil {
					s.logger.Error("Failed to sign stream URL",
						"artifact_id", artifact.ID,
						"error", err,
					)
				}
				return
			}
			delivered[i].StreamURL = vault.StreamURL(s.baseURL, artifact.ID, token)
		}()
	}
	wg.Wait()

	return delivered
}

// Redeem verifies a stream token and resolves the artifact and its
// on-disk path. The token must be for this artifact, unexpired, and
// the fan session must not be locked out.
func (s *DeliveryService) Redeem(ctx context.Context, artifactID, token string) (*domain.Artifact, string, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, "", domainerrors.TokenExpired("stream link is invalid or expired").WithCause(err)
	}
	if claims.ArtifactID != artifactID {
		return nil, "", domainerrors.Forbidden("stream token does not match this artifact")
	}
	if s.guard.LockedOut(claims.SessionID) {
		return nil, "", domainerrors.SessionLocked("session locked out by the playback guard")
	}

	artifact, err := s.store.GetArtifact(ctx, artifactID)
	if err != nil {
		if errors.Is(err, store.ErrArtifactNotFound) {
			return nil, "", domainerrors.NotFound("artifact not found")
		}
		return nil, "", fmt.Errorf("get artifact: %w", err)
	}

	diskPath, err := s.vault.Path(artifact.StoragePath)
	if err != nil {
		return nil, "", fmt.Errorf("resolve vault path: %w", err)
	}

	return artifact, diskPath, nil
}
