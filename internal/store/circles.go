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
	circlePrefix         = "circle:"
	circleByArtistPrefix = "idx:circles:artist:" // For listing an artist's circles
	rosterPrefix         = "roster:"             // roster:<circleID>:<email>
)

var (
	// ErrCircleNotFound is returned when a circle cannot be found.
	ErrCircleNotFound = errors.New("circle not found")
	// ErrCircleQuota is returned when an artist already has the maximum number of circles.
	ErrCircleQuota = errors.New("circle quota reached")
	// ErrCircleSealed is returned when claiming a spot in a circle that is not live.
	ErrCircleSealed = errors.New("circle is sealed")
	// ErrCircleFull is returned when claiming a spot in a circle at capacity.
	ErrCircleFull = errors.New("circle is full")
	// ErrSpotAlreadyClaimed is returned when an email already holds a spot.
	ErrSpotAlreadyClaimed = errors.New("spot already claimed")
	// ErrNotOnRoster is returned when an email has no spot in the circle.
	ErrNotOnRoster = errors.New("not on roster")
)

func rosterKey(circleID, email string) []byte {
	return []byte(rosterPrefix + circleID + ":" + domain.NormalizeEmail(email))
}

// CreateCircle creates a new circle, enforcing the per-artist quota.
// The quota check and the insert happen in one transaction so two
// concurrent creates cannot both slip under the limit.
func (s *Store) CreateCircle(_ context.Context, circle *domain.Circle, maxPerArtist int) error {
	key := []byte(circlePrefix + circle.ID)
	artistKey := []byte(circleByArtistPrefix + circle.ArtistID + ":" + circle.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		// Check if circle ID already exists
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("circle ID already exists")
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check circle exists: %w", err)
		}

		// Count the artist's existing circles inside the transaction
		prefix := []byte(circleByArtistPrefix + circle.ArtistID + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		count := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		it.Close()

		if count >= maxPerArtist {
			return ErrCircleQuota
		}

		data, err := json.Marshal(circle)
		if err != nil {
			return fmt.Errorf("marshal circle: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		return txn.Set(artistKey, []byte{})
	})
}

// GetCircle retrieves a circle by ID.
func (s *Store) GetCircle(_ context.Context, id string) (*domain.Circle, error) {
	key := []byte(circlePrefix + id)

	var circle domain.Circle
	if err := s.get(key, &circle); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrCircleNotFound
		}
		return nil, fmt.Errorf("get circle: %w", err)
	}

	return &circle, nil
}

// UpdateCircle updates an existing circle.
func (s *Store) UpdateCircle(_ context.Context, circle *domain.Circle) error {
	key := []byte(circlePrefix + circle.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check circle exists: %w", err)
	}
	if !exists {
		return ErrCircleNotFound
	}

	circle.Touch()

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(circle)
		if err != nil {
			return fmt.Errorf("marshal circle: %w", err)
		}

		return txn.Set(key, data)
	})
}

// DeleteCircle deletes a circle along with its roster and waitlist.
func (s *Store) DeleteCircle(_ context.Context, circleID string) error {
	key := []byte(circlePrefix + circleID)

	var circle domain.Circle
	if err := s.get(key, &circle); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Already gone
		}
		return fmt.Errorf("get circle for deletion: %w", err)
	}

	artistKey := []byte(circleByArtistPrefix + circle.ArtistID + ":" + circleID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key); err != nil {
			return err
		}

		if err := txn.Delete(artistKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		// Sweep roster and waitlist entries
		for _, prefix := range [][]byte{
			[]byte(rosterPrefix + circleID + ":"),
			[]byte(waitlistPrefix + circleID + ":"),
		} {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = false

			it := txn.NewIterator(opts)
			var keys [][]byte
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()

			for _, k := range keys {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// ListCirclesByArtist returns all circles owned by an artist, newest first.
func (s *Store) ListCirclesByArtist(ctx context.Context, artistID string) ([]*domain.Circle, error) {
	prefix := []byte(circleByArtistPrefix + artistID + ":")
	var circles []*domain.Circle

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Key format: idx:circles:artist:artistID:circleID
			key := string(it.Item().Key())
			parts := strings.Split(key, ":")
			if len(parts) < 5 {
				continue
			}
			circleID := parts[4]

			circle, err := s.GetCircle(ctx, circleID)
			if err != nil {
				if errors.Is(err, ErrCircleNotFound) {
					continue
				}
				return err
			}

			circles = append(circles, circle)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list circles by artist: %w", err)
	}

	sort.Slice(circles, func(i, j int) bool {
		return circles[i].CreatedAt.After(circles[j].CreatedAt)
	})

	return circles, nil
}

// ClaimSpot admits an email to a circle's roster.
//
// The live check, the capacity check, the duplicate check, the roster
// insert, and the counter increment are one Badger transaction: a denied
// claim writes nothing, and the counter can never drift from the roster.
func (s *Store) ClaimSpot(_ context.Context, circleID string, entry *domain.RosterEntry) error {
	circleKey := []byte(circlePrefix + circleID)
	entryKey := rosterKey(circleID, entry.Email)

	return s.db.Update(func(txn *badger.Txn) error {
		// Load the circle
		item, err := txn.Get(circleKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCircleNotFound
		}
		if err != nil {
			return fmt.Errorf("get circle: %w", err)
		}

		var circle domain.Circle
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &circle)
		})
		if err != nil {
			return fmt.Errorf("unmarshal circle: %w", err)
		}

		// Ordered checks: live, then capacity, then duplicate
		if !circle.IsLive {
			return ErrCircleSealed
		}
		if circle.IsFull() {
			return ErrCircleFull
		}

		_, err = txn.Get(entryKey)
		if err == nil {
			return ErrSpotAlreadyClaimed
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check roster entry: %w", err)
		}

		// Insert the roster entry
		entryData, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal roster entry: %w", err)
		}
		if err := txn.Set(entryKey, entryData); err != nil {
			return err
		}

		// Increment the claimed counter on the same commit
		circle.ClaimedCount++
		circle.Touch()

		circleData, err := json.Marshal(&circle)
		if err != nil {
			return fmt.Errorf("marshal circle: %w", err)
		}

		return txn.Set(circleKey, circleData)
	})
}

// GetRosterEntry retrieves a roster entry by circle and email.
func (s *Store) GetRosterEntry(_ context.Context, circleID, email string) (*domain.RosterEntry, error) {
	var entry domain.RosterEntry
	if err := s.get(rosterKey(circleID, email), &entry); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotOnRoster
		}
		return nil, fmt.Errorf("get roster entry: %w", err)
	}

	return &entry, nil
}

// IsOnRoster reports whether an email holds a spot in the circle.
func (s *Store) IsOnRoster(_ context.Context, circleID, email string) (bool, error) {
	return s.exists(rosterKey(circleID, email))
}

// ListRoster returns all roster entries for a circle, oldest claim first.
func (s *Store) ListRoster(_ context.Context, circleID string) ([]*domain.RosterEntry, error) {
	prefix := []byte(rosterPrefix + circleID + ":")
	var entries []*domain.RosterEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry domain.RosterEntry
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
		return nil, fmt.Errorf("list roster: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ClaimedAt.Before(entries[j].ClaimedAt)
	})

	return entries, nil
}

// RemoveRosterEntry evicts an email from the roster and frees its spot.
// The delete and the counter decrement are one transaction.
func (s *Store) RemoveRosterEntry(_ context.Context, circleID, email string) error {
	circleKey := []byte(circlePrefix + circleID)
	entryKey := rosterKey(circleID, email)

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(entryKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotOnRoster
		}
		if err != nil {
			return fmt.Errorf("check roster entry: %w", err)
		}

		if err := txn.Delete(entryKey); err != nil {
			return err
		}

		item, err := txn.Get(circleKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrCircleNotFound
		}
		if err != nil {
			return fmt.Errorf("get circle: %w", err)
		}

		var circle domain.Circle
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &circle)
		})
		if err != nil {
			return fmt.Errorf("unmarshal circle: %w", err)
		}

		if circle.ClaimedCount > 0 {
			circle.ClaimedCount--
		}
		circle.Touch()

		circleData, err := json.Marshal(&circle)
		if err != nil {
			return fmt.Errorf("marshal circle: %w", err)
		}

		return txn.Set(circleKey, circleData)
	})
}
