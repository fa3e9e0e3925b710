// Package backup writes periodic snapshots of the database so an operator
// can recover rosters and accounts after disk loss. Snapshots use Badger's
// native backup stream; restore is `badger restore` or a fresh DB fed the
// stream.
package backup

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const snapshotExt = ".bak"

// Snapshotter is the part of the store backups need.
type Snapshotter interface {
	Backup(w io.Writer) (uint64, error)
}

// Service writes and prunes database snapshots.
type Service struct {
	store  Snapshotter
	dir    string
	keep   int
	logger *slog.Logger
}

// NewService creates a backup service writing to dir, keeping the newest
// keep snapshots.
func NewService(store Snapshotter, dir string, keep int, logger *slog.Logger) (*Service, error) {
	if keep < 1 {
		return nil, fmt.Errorf("keep must be at least 1, got %d", keep)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	return &Service{
		store:  store,
		dir:    dir,
		keep:   keep,
		logger: logger,
	}, nil
}

// Run writes one snapshot and prunes old ones. The snapshot is written to
// a temp file and renamed so a crash never leaves a half-written .bak.
func (s *Service) Run() (string, error) {
	name := time.Now().UTC().Format("20060102-150405") + snapshotExt
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create snapshot file: %w", err)
	}

	version, err := s.store.Backup(f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalize snapshot: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Database snapshot written", "path", path, "version", version)
	}

	if err := s.prune(); err != nil {
		return path, fmt.Errorf("prune snapshots: %w", err)
	}

	return path, nil
}

// List returns snapshot filenames, newest first.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotExt) {
			continue
		}
		names = append(names, entry.Name())
	}

	// Timestamped names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s *Service) prune() error {
	names, err := s.List()
	if err != nil {
		return err
	}

	for _, name := range names[min(s.keep, len(names)):] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return fmt.Errorf("remove old snapshot %s: %w", name, err)
		}
		if s.logger != nil {
			s.logger.Info("Pruned old snapshot", "name", name)
		}
	}

	return nil
}
