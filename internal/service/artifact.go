package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/dropcircles/dropcircles-server/internal/domain"
	domainerrors "github.com/dropcircles/dropcircles-server/internal/errors"
	"github.com/dropcircles/dropcircles-server/internal/id"
	"github.com/dropcircles/dropcircles-server/internal/probe"
	"github.com/dropcircles/dropcircles-server/internal/store"
	"github.com/dropcircles/dropcircles-server/internal/vault"
)

// ArtifactService handles media upload into the vault and artifact
// metadata. Artifacts are immutable after upload.
type ArtifactService struct {
	store  *store.Store
	vault  *vault.Storage
	logger *slog.Logger
}

// NewArtifactService creates a new artifact service.
func NewArtifactService(store *store.Store, vaultStorage *vault.Storage, logger *slog.Logger) *ArtifactService {
	return &ArtifactService{
		store:  store,
		vault:  vaultStorage,
		logger: logger,
	}
}

// Upload stores an uploaded file in the vault and creates the artifact
// record. The title prefers the embedded audio tag, falling back to
// the upload filename minus extension; probing failures never fail
// the upload.
func (s *ArtifactService) Upload(ctx context.Context, artistID, circleID, filename string, r io.Reader) (*domain.Artifact, error) {
	circle, err := s.circleOwnedBy(ctx, artistID, circleID)
	if err != nil {
		return nil, err
	}

	storagePath, size, err := s.vault.Save(filename, r)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	title := titleFromFilename(filename)
	duration := 0.0

	diskPath, err := s.vault.Path(storagePath)
	if err == nil {
		if result, probeErr := probe.File(ctx, diskPath); probeErr == nil {
			if result.Title != "" {
				title = result.Title
			}
			duration = result.Duration
		} else if s.logger != nil {
			s.logger.Debug("Probe failed, using filename",
				"filename", filename,
				"error", probeErr,
			)
		}
	}

	existing, err := s.store.ListArtifactsByCircle(ctx, circleID)
	if err != nil {
		s.cleanupVaultFile(storagePath)
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	artifactID, err := id.Generate("art")
	if err != nil {
		s.cleanupVaultFile(storagePath)
		return nil, fmt.Errorf("generate artifact ID: %w", err)
	}

	artifact := &domain.Artifact{
		Syncable: domain.Syncable{
			ID: artifactID,
		},
		CircleID:    circle.ID,
		ArtistID:    artistID,
		Title:       title,
		Filename:    filename,
		StoragePath: storagePath,
		MimeType:    mimeTypeFor(filename),
		SizeBytes:   size,
		Duration:    duration,
		Position:    len(existing),
	}
	artifact.InitTimestamps()

	if err := s.store.CreateArtifact(ctx, artifact); err != nil {
		s.cleanupVaultFile(storagePath)
		return nil, fmt.Errorf("create artifact: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Artifact uploaded",
			"artifact_id", artifactID,
			"circle_id", circleID,
			"title", title,
			"size_bytes", size,
		)
	}

	return artifact, nil
}

// List returns a circle's artifacts in playback order.
func (s *ArtifactService) List(ctx context.Context, artistID, circleID string) ([]*domain.Artifact, error) {
	if _, err := s.circleOwnedBy(ctx, artistID, circleID); err != nil {
		return nil, err
	}

	artifacts, err := s.store.ListArtifactsByCircle(ctx, circleID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return artifacts, nil
}

// Delete removes an artifact record and its vault file.
func (s *ArtifactService) Delete(ctx context.Context, artistID, artifactID string) error {
	artifact, err := s.store.GetArtifact(ctx, artifactID)
	if err != nil {
		if errors.Is(err, store.ErrArtifactNotFound) {
			return domainerrors.NotFound("artifact not found")
		}
		return fmt.Errorf("get artifact: %w", err)
	}
	if artifact.ArtistID != artistID {
		return domainerrors.NotFound("artifact not found")
	}

	if err := s.store.DeleteArtifact(ctx, artifactID); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}

	if err := s.vault.Delete(artifact.StoragePath); err != nil && s.logger != nil {
		s.logger.Warn("Failed to remove vault file",
			"artifact_id", artifactID,
			"path", artifact.StoragePath,
			"error", err,
		)
	}

	return nil
}

func (s *ArtifactService) circleOwnedBy(ctx context.Context, artistID, circleID string) (*domain.Circle, error) {
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

func (s *ArtifactService) cleanupVaultFile(storagePath string) {
	if err := s.vault.Delete(storagePath); err != nil && s.logger != nil {
		s.logger.Warn("Failed to clean up vault file", "path", storagePath, "error", err)
	}
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func mimeTypeFor(filename string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); t != "" {
		return t
	}
	return "application/octet-stream"
}
