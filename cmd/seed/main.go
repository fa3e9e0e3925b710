// Package main provides a tool to provision artist access keys.
//
// Registration is gated on pre-provisioned keys, so an operator runs this
// against the server's database before handing a code to an artist.
//
// Usage:
//
//	DB_PATH=~/dropcircles/db go run ./cmd/seed -code DROP-2026 -max-uses 5
//	DB_PATH=~/dropcircles/db go run ./cmd/seed -list
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dropcircles/dropcircles-server/internal/domain"
	"github.com/dropcircles/dropcircles-server/internal/id"
	"github.com/dropcircles/dropcircles-server/internal/store"
)

var (
	code    = flag.String("code", "", "Access key code to provision (stored uppercase)")
	maxUses = flag.Int("max-uses", 1, "How many registrations the key covers")
	note    = flag.String("note", "", "Operator note, e.g. who the key is for")
	list    = flag.Bool("list", false, "List existing keys instead of creating one")
)

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/dropcircles/db")
	}

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store at %s: %v", dbPath, err)
	}
	defer s.Close()

	ctx := context.Background()

	if *list {
		listKeys(ctx, s)
		return
	}

	if *code == "" {
		log.Fatal("-code is required (or use -list)")
	}
	if *maxUses < 1 {
		log.Fatal("-max-uses must be at least 1")
	}

	key := &domain.AccessKey{
		Code:    strings.ToUpper(strings.TrimSpace(*code)),
		MaxUses: *maxUses,
		Note:    *note,
	}
	key.ID = id.MustGenerate("key")
	key.InitTimestamps()

	if err := s.AccessKeys.Create(ctx, key.ID, key); err != nil {
		log.Fatalf("Failed to create access key: %v", err)
	}

	fmt.Printf("Provisioned key %s (%d uses)\n", key.Code, key.MaxUses)
}

func listKeys(ctx context.Context, s *store.Store) {
	found := false
	for key, err := range s.AccessKeys.List(ctx) {
		if err != nil {
			log.Fatalf("Failed to list keys: %v", err)
		}

		found = true
		status := fmt.Sprintf("%d/%d used", key.CurrentUses, key.MaxUses)
		if key.IsExhausted() {
			status = "exhausted"
		}
		fmt.Printf("%-20s %-12s %s\n", key.Code, status, key.Note)
	}

	if !found {
		fmt.Println("No access keys provisioned.")
	}
}
