package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-progress-service/internal/domain"
)

func TestContentRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		ConceptPageLoader: NewStaticPageLoader([]domain.ConceptPage{samplePage()}),
	}
	repo := NewContentRepository(loader, time.Minute)

	if _, err := repo.GetConceptPage(context.Background(), "course-1", "lesson-1", "concept-1"); err != nil {
		t.Fatalf("get page: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetConceptPage(context.Background(), "course-1", "lesson-1", "concept-1"); err != nil {
		t.Fatalf("get page 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestContentRepositoryMiss(t *testing.T) {
	repo := NewContentRepository(NewStaticPageLoader(nil), time.Minute)
	if _, err := repo.GetConceptPage(context.Background(), "course-1", "lesson-1", "nope"); !errors.Is(err, domain.ErrConceptNotFound) {
		t.Fatalf("expected ErrConceptNotFound, got %v", err)
	}
}

type countingLoader struct {
	ConceptPageLoader
	calls int
}

func (l *countingLoader) LoadConceptPage(ctx context.Context, courseID, lessonID, conceptID string) (domain.ConceptPage, error) {
	l.calls++
	return l.ConceptPageLoader.LoadConceptPage(ctx, courseID, lessonID, conceptID)
}

func samplePage() domain.ConceptPage {
	return domain.ConceptPage{
		CourseID:   "course-1",
		LessonID:   "lesson-1",
		ConceptID:  "concept-1",
		Title:      "Intro",
		BlockTypes: []domain.ContentBlockType{domain.BlockText},
		ConceptIDs: []string{"concept-1"},
	}
}
