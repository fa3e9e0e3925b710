package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/dropcircles/dropcircles-server/internal/domain"
)

const waitlistPrefix = "waitlist:" // waitlist:<circleID>:<email>

func waitlistKey(circleID, email string) []byte {
	return []byte(waitlistPrefix + circleID + ":" + domain.NormalizeEmail(email))
}

// JoinWaitlist records an email waiting for a spot in a full circle.
// Joining twice is not an error: the existing entry is returned and
// created is false.
func (s *Store) JoinWaitlist(_ context.Context, entry *domain.WaitlistEntry) (created bool, err error) {
	key := waitlistKey(entry.CircleID, entry.Email)

	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == nil {
			// Already waiting; hand back the stored entry.
			created = false
			return item.Value(func(val []byte) error {
				return json.Unmarshal(val, entry)
			})
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check waitlist entry: %w", err)
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal waitlist entry: %w", err)
		}

		created = true
		return txn.Set(key, data)
	})

	return created, err
}

// ListWaitlist returns all waitlist entries for a circle, oldest first.
func (s *Store) ListWaitlist(_ context.Context, circleID string) ([]*domain.WaitlistEntry, error) {
	prefix := []byte(waitlistPrefix + circleID + ":")
	var entries []*domain.WaitlistEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry domain.WaitlistEntry
				if unmarshalErr := json.Unmarshal(val, &entry); unmarshalErr != nil {
					// Skip malformed entries
					return nil
				}

				entries = append(entries, &entry)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	return entries, nil
}

// RemoveFromWaitlist drops an email from a circle's waitlist.
// Idempotent: removing an absent entry is not an error.
func (s *Store) RemoveFromWaitlist(_ context.Context, circleID, email string) error {
	key := waitlistKey(circleID, email)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}
