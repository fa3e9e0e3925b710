// Package main provides a read-only inspection tool for a DropCircles
// database: entity counts, per-circle roster fill, and key usage.
//
// Usage:
//
//	DB_PATH=~/dropcircles/db go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/dropcircles/dropcircles-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/dropcircles/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	fmt.Printf("Artists:      %d\n", countPrefix(db, "user:"))
	fmt.Printf("Access keys:  %d\n", countPrefix(db, "accesskey:"))
	fmt.Printf("Sessions:     %d\n", countPrefix(db, "session:"))
	fmt.Printf("Artifacts:    %d\n", countPrefix(db, "artifact:"))
	fmt.Printf("Feedback:     %d\n", countPrefix(db, "feedback:"))
	fmt.Println()

	inspectCircles(db)
}

// countPrefix counts value records under a prefix, skipping index keys.
func countPrefix(db *badger.DB, prefix string) int {
	count := 0
	_ = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			count++
		}
		return nil
	})
	return count
}

func inspectCircles(db *badger.DB) {
	fmt.Println("=== Circles ===")

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("circle:")

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte("circle:")); it.ValidForPrefix([]byte("circle:")); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var circle domain.Circle
				if err := json.Unmarshal(val, &circle); err != nil {
					return nil // Skip malformed records
				}

				state := "sealed"
				if circle.IsLive {
					state = "LIVE"
				}
				fmt.Printf("%-24s %-40s %-7s %d/%d claimed\n",
					circle.ID, circle.Title, state, circle.ClaimedCount, circle.Capacity)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to inspect circles: %v", err)
	}
}
