package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dropcircles/dropcircles-server/internal/domain"
)

const (
	artifactPrefix         = "artifact:"
	artifactByCirclePrefix = "idx:artifacts:circle:" // For listing a circle's artifacts
)

// ErrArtifactNotFound is returned when an artifact cannot be found.
var ErrArtifactNotFound = errors.New("artifact not found")

// CreateArtifact stores a new artifact record.
func (s *Store) CreateArtifact(_ context.Context, artifact *domain.Artifact) error {
	key := []byte(artifactPrefix + artifact.ID)
	circleKey := []byte(artifactByCirclePrefix + artifact.CircleID + ":" + artifact.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check artifact exists: %w", err)
	}
	if exists {
		return fmt.Errorf("artifact ID already exists")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(artifact)
		if err != nil {
			return fmt.Errorf("marshal artifact: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		return txn.Set(circleKey, []byte{})
	})
}

// GetArtifact retrieves an artifact by ID.
func (s *Store) GetArtifact(_ context.Context, id string) (*domain.Artifact, error) {
	key := []byte(artifactPrefix + id)

	var artifact domain.Artifact
	if err := s.get(key, &artifact); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("get artifact: %w", err)
	}

	return &artifact, nil
}

// UpdateArtifact updates an existing artifact record.
func (s *Store) UpdateArtifact(_ context.Context, artifact *domain.Artifact) error {
	key := []byte(artifactPrefix + artifact.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check artifact exists: %w", err)
	}
	if !exists {
		return ErrArtifactNotFound
	}

	artifact.Touch()

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(artifact)
		if err != nil {
			return fmt.Errorf("marshal artifact: %w", err)
		}

		return txn.Set(key, data)
	})
}

// DeleteArtifact removes an artifact record and its circle index.
func (s *Store) DeleteArtifact(_ context.Context, artifactID string) error {
	key := []byte(artifactPrefix + artifactID)

	var artifact domain.Artifact
	if err := s.get(key, &artifact); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Already gone
		}
		return fmt.Errorf("get artifact for deletion: %w", err)
	}

	circleKey := []byte(artifactByCirclePrefix + artifact.CircleID + ":" + artifactID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key); err != nil {
			return err
		}

		if err := txn.Delete(circleKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		return nil
	})
}

// ListArtifactsByCircle returns a circle's artifacts in playback order.
func (s *Store) ListArtifactsByCircle(ctx context.Context, circleID string) ([]*domain.Artifact, error) {
	prefix := []byte(artifactByCirclePrefix + circleID + ":")
	var artifacts []*domain.Artifact

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Key format: idx:artifacts:circle:circleID:artifactID
			key := string(it.Item().Key())
			parts := strings.Split(key, ":")
			if len(parts) < 5 {
				continue
			}
			artifactID := parts[4]

			artifact, err := s.GetArtifact(ctx, artifactID)
			if err != nil {
				if errors.Is(err, ErrArtifactNotFound) {
					continue
				}
				return err
			}

			artifacts = append(artifacts, artifact)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list artifacts by circle: %w", err)
	}

	sort.Slice(artifacts, func(i, j int) bool {
		if artifacts[i].Position != artifacts[j].Position {
			return artifacts[i].Position < artifacts[j].Position
		}
		return artifacts[i].CreatedAt.Before(artifacts[j].CreatedAt)
	})

	return artifacts, nil
}
