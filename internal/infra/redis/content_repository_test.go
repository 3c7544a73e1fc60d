package redis

import (
	"context"
	"testing"
	"time"

	"course-progress-service/internal/domain"
	"course-progress-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestContentRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		ConceptPageLoader: memory.NewStaticPageLoader([]domain.ConceptPage{samplePage()}),
	}
	repo := NewContentRepository(newClient(mr), loader, time.Minute)

	page, err := repo.GetConceptPage(context.Background(), "course-1", "lesson-1", "concept-1")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if page.Title != "Intro" {
		t.Fatalf("unexpected page %+v", page)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("content:course-1:lesson-1:concept-1") {
		t.Fatalf("expected cached page key")
	}

	// Second call should hit cache, loader not incremented.
	_, _ = repo.GetConceptPage(context.Background(), "course-1", "lesson-1", "concept-1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.ConceptPageLoader
	calls int
}

func (l *countingLoader) LoadConceptPage(ctx context.Context, courseID, lessonID, conceptID string) (domain.ConceptPage, error) {
	l.calls++
	return l.ConceptPageLoader.LoadConceptPage(ctx, courseID, lessonID, conceptID)
}

func samplePage() domain.ConceptPage {
	return domain.ConceptPage{
		CourseID:    "course-1",
		LessonID:    "lesson-1",
		ConceptID:   "concept-1",
		Title:       "Intro",
		LessonTitle: "Getting started",
		BlockTypes:  []domain.ContentBlockType{domain.BlockText},
		ConceptIDs:  []string{"concept-1"},
	}
}
