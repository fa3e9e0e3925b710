// Package vault stores artifact audio files on disk and issues the signed,
// short-lived tokens that gate streaming access to them.
package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const artifactsSubdir = "artifacts"

// Storage manages artifact files under the vault directory.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a new Storage rooted at basePath.
// Artifact files are stored in {basePath}/artifacts/.
func NewStorage(basePath string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	storagePath := filepath.Join(basePath, artifactsSubdir)

	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}

	return &Storage{basePath: basePath}, nil
}

// Save streams an upload into the vault and returns its storage path
// (relative to the vault root) and the number of bytes written.
// Filename format: artifacts/{unix-ms}-{uuid}{ext}, so two uploads of the
// same file never collide.
func (s *Storage) Save(originalFilename string, r io.Reader) (string, int64, error) {
	if r == nil {
		return "", 0, fmt.Errorf("reader cannot be nil")
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
	relPath := filepath.Join(artifactsSubdir, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(filepath.Join(s.basePath, relPath))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create artifact file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", 0, fmt.Errorf("failed to write artifact file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", 0, fmt.Errorf("failed to close artifact file: %w", err)
	}

	return relPath, written, nil
}

// Path resolves a storage path to an absolute filesystem path.
// Rejects paths that escape the vault root.
func (s *Storage) Path(storagePath string) (string, error) {
	cleaned := filepath.Clean(storagePath)
	if cleaned == "" || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage path: %s", storagePath)
	}
	return filepath.Join(s.basePath, cleaned), nil
}

// Exists checks if an artifact file is present in the vault.
func (s *Storage) Exists(storagePath string) bool {
	path, err := s.Path(storagePath)
	if err != nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err = os.Stat(path)
	return err == nil
}

// Delete removes an artifact file. Deleting a missing file is not an error.
func (s *Storage) Delete(storagePath string) error {
	path, err := s.Path(storagePath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete artifact file: %w", err)
	}

	return nil
}
