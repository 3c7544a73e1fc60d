package domain

import (
	"errors"
	"testing"
	"time"
)

func validPage() ConceptPage {
	return ConceptPage{
		CourseID:   "course-1",
		LessonID:   "lesson-1",
		ConceptID:  "concept-1",
		Title:      "Intro",
		BlockTypes: []ContentBlockType{BlockText},
		ConceptIDs: []string{"concept-1", "concept-2"},
		Quizzes: []Quiz{
			{
				ID: "quiz-1",
				Questions: []Question{
					{
						Prompt: "Pick one",
						Answers: []Answer{
							{Text: "wrong"},
							{Text: "right", Correct: true},
						},
					},
				},
			},
		},
	}
}

func TestValidateConceptPageAcceptsWellFormedContent(t *testing.T) {
	if err := ValidateConceptPage(validPage()); err != nil {
		t.Fatalf("expected valid page, got %v", err)
	}
}

func TestValidateConceptPageRejectsQuestionWithoutAnswers(t *testing.T) {
	page := validPage()
	page.Quizzes[0].Questions[0].Answers = nil
	if err := ValidateConceptPage(page); !errors.Is(err, ErrMalformedContent) {
		t.Fatalf("expected ErrMalformedContent, got %v", err)
	}
}

func TestValidateConceptPageRejectsWrongCorrectCount(t *testing.T) {
	noCorrect := validPage()
	noCorrect.Quizzes[0].Questions[0].Answers[1].Correct = false
	if err := ValidateConceptPage(noCorrect); !errors.Is(err, ErrMalformedContent) {
		t.Fatalf("expected ErrMalformedContent for zero correct answers, got %v", err)
	}

	twoCorrect := validPage()
	twoCorrect.Quizzes[0].Questions[0].Answers[0].Correct = true
	if err := ValidateConceptPage(twoCorrect); !errors.Is(err, ErrMalformedContent) {
		t.Fatalf("expected ErrMalformedContent for two correct answers, got %v", err)
	}
}

func TestValidateConceptPageRejectsConceptMissingFromOrdering(t *testing.T) {
	page := validPage()
	page.ConceptIDs = []string{"concept-2", "concept-3"}
	if err := ValidateConceptPage(page); !errors.Is(err, ErrMalformedContent) {
		t.Fatalf("expected ErrMalformedContent, got %v", err)
	}
}

func TestConceptNavigation(t *testing.T) {
	page := validPage()
	if prev := page.PrevConceptID(); prev != "" {
		t.Fatalf("expected no previous concept, got %q", prev)
	}
	if next := page.NextConceptID(); next != "concept-2" {
		t.Fatalf("expected concept-2 next, got %q", next)
	}

	page.ConceptID = "concept-2"
	if prev := page.PrevConceptID(); prev != "concept-1" {
		t.Fatalf("expected concept-1 previous, got %q", prev)
	}
	if next := page.NextConceptID(); next != "complete" {
		t.Fatalf("expected complete marker, got %q", next)
	}
}

func TestStatusOf(t *testing.T) {
	started := time.Now()
	progress := CourseProgress{}
	progress.SetConcept("lesson-1", "concept-1", ConceptProgress{StartedAt: &started, CompletedAt: &started})
	progress.SetConcept("lesson-1", "concept-2", ConceptProgress{StartedAt: &started})

	if got := StatusOf(progress, "lesson-1", "concept-1", 0); got != ConceptCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
	if got := StatusOf(progress, "lesson-1", "concept-2", 1); got != ConceptAvailable {
		t.Fatalf("expected available, got %s", got)
	}
	if got := StatusOf(progress, "lesson-1", "concept-3", 2); got != ConceptUnavailable {
		t.Fatalf("expected unavailable, got %s", got)
	}
	if got := StatusOf(progress, "lesson-1", "concept-3", 0); got != ConceptAvailable {
		t.Fatalf("expected first concept always available, got %s", got)
	}
}
