package memory

import (
	"context"
	"sync"

	"course-progress-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore. Get
// returns a deep copy so callers hold a stable snapshot, matching the
// document-store semantics the progress core assumes.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]domain.CourseProgress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{records: make(map[string]domain.CourseProgress)}
}

func (s *ProgressStore) Get(_ context.Context, userID, courseID string) (domain.CourseProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProgress(s.records[key(userID, courseID)]), nil
}

func (s *ProgressStore) Merge(_ context.Context, userID, courseID string, patch domain.ProgressPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.records[key(userID, courseID)]
	for lessonID, concepts := range patch.Lessons {
		for conceptID, cp := range concepts {
			current := record.Concept(lessonID, conceptID)
			if cp.StartedAt != nil {
				current.StartedAt = cp.StartedAt
			}
			if cp.CompletedAt != nil {
				current.CompletedAt = cp.CompletedAt
			}
			record.SetConcept(lessonID, conceptID, current)
		}
	}
	s.records[key(userID, courseID)] = record
	return nil
}

func (s *ProgressStore) AppendQuizResult(_ context.Context, userID, courseID, lessonID, conceptID string, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.records[key(userID, courseID)]
	current := record.Concept(lessonID, conceptID)
	current.Quizzes = append(current.Quizzes, result)
	record.SetConcept(lessonID, conceptID, current)
	s.records[key(userID, courseID)] = record
	return nil
}

func key(userID, courseID string) string {
	return userID + "/" + courseID
}

func cloneProgress(record domain.CourseProgress) domain.CourseProgress {
	clone := domain.CourseProgress{}
	for lessonID, lesson := range record.Lessons {
		for conceptID, cp := range lesson.Concepts {
			copied := cp
			copied.Quizzes = append([]domain.QuizResult(nil), cp.Quizzes...)
			clone.SetConcept(lessonID, conceptID, copied)
		}
	}
	return clone
}
