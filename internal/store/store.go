// Package store persists all DropCircles state in a Badger key-value database.
//
// Simple entities (users, access keys) go through the generic Entity type.
// Anything that needs a multi-key transaction (claims, key redemption,
// session rotation) gets a hand-written method so the whole mutation commits
// or none of it does.
package store

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/dropcircles/dropcircles-server/internal/domain"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Generic entities
	Users      *Entity[domain.User]
	AccessKeys *Entity[domain.AccessKey]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	store.initUsers()
	store.initAccessKeys()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Backup streams a full backup of the database to w using Badger's
// native backup format. Returns the version timestamp of the backup.
func (s *Store) Backup(w io.Writer) (uint64, error) {
	return s.db.Backup(w, 0)
}

// Helper methods for database operations.

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// initUsers initializes the Users entity on the store.
// Uses case-insensitive email indexing via domain.NormalizeEmail.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithIndexTransform("email",
			func(u *domain.User) []string {
				return []string{domain.NormalizeEmail(u.Email)}
			},
			domain.NormalizeEmail, // Transform lookups to be case-insensitive
		)
}

// initAccessKeys initializes the AccessKeys entity on the store.
// Codes are stored and looked up uppercase.
func (s *Store) initAccessKeys() {
	s.AccessKeys = NewEntity[domain.AccessKey](s, "accesskey:").
		WithIndexTransform("code",
			func(k *domain.AccessKey) []string {
				return []string{normalizeCode(k.Code)}
			},
			normalizeCode,
		)
}
