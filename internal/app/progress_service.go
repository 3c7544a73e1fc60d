package app

import (
	"context"
	"log"
	"time"

	"course-progress-service/internal/domain"
)

// ProgressStore abstracts the persisted progress document for a (user,
// course) pair (in-memory, Redis, etc). Merge applies partial updates
// field-by-field; AppendQuizResult has atomic append semantics.
type ProgressStore interface {
	Get(ctx context.Context, userID, courseID string) (domain.CourseProgress, error)
	Merge(ctx context.Context, userID, courseID string, patch domain.ProgressPatch) error
	AppendQuizResult(ctx context.Context, userID, courseID, lessonID, conceptID string, result domain.QuizResult) error
}

// FeedbackStore persists per-concept feedback; merges overwrite.
type FeedbackStore interface {
	Merge(ctx context.Context, userID, conceptID string, feedback domain.Feedback) error
}

// ContentRepository loads concept pages (from cache/backing store).
type ContentRepository interface {
	GetConceptPage(ctx context.Context, courseID, lessonID, conceptID string) (domain.ConceptPage, error)
}

// NotifyKind distinguishes success toasts from error toasts.
type NotifyKind string

const (
	NotifySuccess NotifyKind = "success"
	NotifyError   NotifyKind = "error"
)

// Notifier surfaces user-facing notifications. Calls are fire-and-forget;
// the progress core never consumes a return value.
type Notifier interface {
	Notify(kind NotifyKind, title, description string)
}

// LogNotifier writes notifications to the process log. It backs the service
// default and any transport that has no live channel to the user.
type LogNotifier struct{}

func (LogNotifier) Notify(kind NotifyKind, title, description string) {
	log.Printf("notify [%s] %s: %s", kind, title, description)
}

// ProgressService contains the concept-progress use cases.
type ProgressService struct {
	content  ContentRepository
	progress ProgressStore
	feedback FeedbackStore
	notifier Notifier
	now      func() time.Time
}

func NewProgressService(content ContentRepository, progress ProgressStore, feedback FeedbackStore, notifier Notifier) *ProgressService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ProgressService{
		content:  content,
		progress: progress,
		feedback: feedback,
		notifier: notifier,
		now:      time.Now,
	}
}

// NewProgressServiceWithClock is test-only for deterministic timestamps.
func NewProgressServiceWithClock(content ContentRepository, progress ProgressStore, feedback FeedbackStore, notifier Notifier, now func() time.Time) *ProgressService {
	s := NewProgressService(content, progress, feedback, notifier)
	s.now = now
	return s
}

// OpenConcept loads and validates the concept page, reads the user's progress
// snapshot, and builds the gate for this page visit. The started_at write is
// issued here, once, when the snapshot shows no prior visit. notifier may be
// nil to use the service default.
func (s *ProgressService) OpenConcept(ctx context.Context, userID, courseID, lessonID, conceptID string, notifier Notifier) (*ConceptGate, error) {
	page, err := s.content.GetConceptPage(ctx, courseID, lessonID, conceptID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateConceptPage(page); err != nil {
		return nil, err
	}

	progress, err := s.progress.Get(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	if notifier == nil {
		notifier = s.notifier
	}
	gate := newConceptGate(page, userID, progress, s.progress, s.feedback, notifier, s.now)
	gate.markStarted(ctx)
	return gate, nil
}
