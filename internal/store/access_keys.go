package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dropcircles/dropcircles-server/internal/domain"
)

// Access key CRUD goes through the generic AccessKeys entity; redemption
// needs its own transaction so the exhaustion check and the use increment
// cannot race.

var (
	// ErrAccessKeyNotFound is returned when no key matches the given code.
	ErrAccessKeyNotFound = errors.New("access key not found")
	// ErrAccessKeyExhausted is returned when a key has no uses left.
	ErrAccessKeyExhausted = errors.New("access key exhausted")
)

// normalizeCode uppercases and trims an access key code.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RedeemAccessKey spends one use of the key with the given code.
// The lookup, the exhaustion check, and the increment are one transaction.
// Returns the key after the increment.
func (s *Store) RedeemAccessKey(_ context.Context, code string) (*domain.AccessKey, error) {
	// Keys live under the generic AccessKeys entity layout.
	codeKey := []byte("accesskey:idx:code:" + normalizeCode(code))

	var redeemed domain.AccessKey

	err := s.db.Update(func(txn *badger.Txn) error {
		// Resolve code to key ID
		item, err := txn.Get(codeKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAccessKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup access key by code: %w", err)
		}

		var keyID string
		err = item.Value(func(val []byte) error {
			keyID = string(val)
			return nil
		})
		if err != nil {
			return err
		}

		// Load the key record
		recordKey := []byte("accesskey:" + keyID)
		item, err = txn.Get(recordKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrAccessKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("get access key: %w", err)
		}

		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &redeemed)
		})
		if err != nil {
			return fmt.Errorf("unmarshal access key: %w", err)
		}

		if redeemed.IsDeleted() {
			return ErrAccessKeyNotFound
		}
		if redeemed.IsExhausted() {
			return ErrAccessKeyExhausted
		}

		redeemed.CurrentUses++
		redeemed.Touch()

		data, err := json.Marshal(&redeemed)
		if err != nil {
			return fmt.Errorf("marshal access key: %w", err)
		}

		return txn.Set(recordKey, data)
	})

	if err != nil {
		return nil, err
	}

	return &redeemed, nil
}
