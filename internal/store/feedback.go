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
	feedbackPrefix         = "feedback:"
	feedbackByCirclePrefix = "idx:feedback:circle:" // For listing a circle's feedback
)

// ErrFeedbackNotFound is returned when a feedback record cannot be found.
var ErrFeedbackNotFound = errors.New("feedback not found")

// FeedbackStats summarizes a set of feedback records.
type FeedbackStats struct {
	Total         int     `json:"total"`
	ThumbsUp      int     `json:"thumbs_up"`
	ThumbsDown    int     `json:"thumbs_down"`
	RatedCount    int     `json:"rated_count"`
	AverageRating float64 `json:"average_rating"`
	StarCounts    [5]int  `json:"star_counts"` // Index 0 holds 1-star counts
	WithComments  int     `json:"with_comments"`
}

// CreateFeedback stores a new feedback record.
func (s *Store) CreateFeedback(_ context.Context, feedback *domain.Feedback) error {
	key := []byte(feedbackPrefix + feedback.ID)
	circleKey := []byte(feedbackByCirclePrefix + feedback.CircleID + ":" + feedback.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check feedback exists: %w", err)
	}
	if exists {
		return fmt.Errorf("feedback ID already exists")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(feedback)
		if err != nil {
			return fmt.Errorf("marshal feedback: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		return txn.Set(circleKey, []byte{})
	})
}

// GetFeedback retrieves a feedback record by ID.
func (s *Store) GetFeedback(_ context.Context, id string) (*domain.Feedback, error) {
	key := []byte(feedbackPrefix + id)

	var feedback domain.Feedback
	if err := s.get(key, &feedback); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}

	return &feedback, nil
}

// DeleteFeedback removes a feedback record and its circle index.
func (s *Store) DeleteFeedback(_ context.Context, feedbackID string) error {
	key := []byte(feedbackPrefix + feedbackID)

	var feedback domain.Feedback
	if err := s.get(key, &feedback); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Already gone
		}
		return fmt.Errorf("get feedback for deletion: %w", err)
	}

	circleKey := []byte(feedbackByCirclePrefix + feedback.CircleID + ":" + feedbackID)

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

// ListFeedbackByCircle returns all feedback on a circle, newest first.
func (s *Store) ListFeedbackByCircle(ctx context.Context, circleID string) ([]*domain.Feedback, error) {
	prefix := []byte(feedbackByCirclePrefix + circleID + ":")
	var records []*domain.Feedback

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false // We only need keys

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// Key format: idx:feedback:circle:circleID:feedbackID
			key := string(it.Item().Key())
			parts := strings.Split(key, ":")
			if len(parts) < 5 {
				continue
			}
			feedbackID := parts[4]

			feedback, err := s.GetFeedback(ctx, feedbackID)
			if err != nil {
				if errors.Is(err, ErrFeedbackNotFound) {
					continue
				}
				return err
			}

			records = append(records, feedback)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list feedback by circle: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records, nil
}

// ComputeFeedbackStats summarizes the given records. It is a pure
// function so callers can filter before aggregating.
func ComputeFeedbackStats(records []*domain.Feedback) *FeedbackStats {
	stats := &FeedbackStats{Total: len(records)}

	sum := 0
	for _, f := range records {
		switch f.Thumbs {
		case domain.ThumbsUp:
			stats.ThumbsUp++
		case domain.ThumbsDown:
			stats.ThumbsDown++
		}
		if f.HasRating() {
			stats.RatedCount++
			sum += f.StarRating
			if f.StarRating <= 5 {
				stats.StarCounts[f.StarRating-1]++
			}
		}
		if strings.TrimSpace(f.Comment) != "" {
			stats.WithComments++
		}
	}

	if stats.RatedCount > 0 {
		stats.AverageRating = float64(sum) / float64(stats.RatedCount)
	}

	return stats
}
