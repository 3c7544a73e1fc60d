package memory

import (
	"context"
	"sync"

	"course-progress-service/internal/domain"
)

// FeedbackStore is an in-memory implementation of app.FeedbackStore.
// Merges overwrite the stored record, last write wins.
type FeedbackStore struct {
	mu      sync.RWMutex
	records map[string]domain.Feedback
}

func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{records: make(map[string]domain.Feedback)}
}

func (s *FeedbackStore) Merge(_ context.Context, userID, conceptID string, feedback domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key(userID, conceptID)] = feedback
	return nil
}

// Get is a test helper exposing the stored record.
func (s *FeedbackStore) Get(userID, conceptID string) (domain.Feedback, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fb, ok := s.records[key(userID, conceptID)]
	return fb, ok
}
