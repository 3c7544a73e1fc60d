package app_test

import (
	"context"
	"math"
	"testing"

	"course-progress-service/internal/app"
	"course-progress-service/internal/domain"
)

func threeQuestionQuiz() domain.Quiz {
	question := func(prompt string) domain.Question {
		return domain.Question{
			Prompt: prompt,
			Answers: []domain.Answer{
				{Text: "wrong one"},
				{Text: "right", Correct: true},
				{Text: "wrong two"},
			},
		}
	}
	return domain.Quiz{
		ID:        "quiz-1",
		Questions: []domain.Question{question("q1"), question("q2"), question("q3")},
	}
}

func TestQuizScoringScenario(t *testing.T) {
	ctx := context.Background()
	var results []domain.QuizResult
	session := app.NewQuizSession(threeQuestionQuiz(), func(_ context.Context, r domain.QuizResult) {
		results = append(results, r)
	})

	// correct, incorrect, correct, without re-selection
	steps := []int{1, 0, 1}
	for _, answer := range steps {
		if err := session.SelectAnswer(answer); err != nil {
			t.Fatalf("select: %v", err)
		}
		if err := session.Advance(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	if !session.Finished() {
		t.Fatalf("expected finished session")
	}
	if len(results) != 1 {
		t.Fatalf("expected one completion callback, got %d", len(results))
	}
	got := results[0]
	if got.Correct != 2 || got.Total != 3 {
		t.Fatalf("expected 2/3, got %d/%d", got.Correct, got.Total)
	}
	if math.Abs(got.Percentage-200.0/3) > 1e-9 {
		t.Fatalf("expected percentage 66.666..., got %v", got.Percentage)
	}
}

func TestReselectionNeverChangesCredit(t *testing.T) {
	session := app.NewQuizSession(threeQuestionQuiz(), nil)

	// wrong, then right, then wrong again: credited once on the first
	// correct selection, never changed after.
	for _, answer := range []int{0, 1, 2, 1} {
		if err := session.SelectAnswer(answer); err != nil {
			t.Fatalf("select %d: %v", answer, err)
		}
	}
	if got := session.Result().Correct; got != 1 {
		t.Fatalf("expected single credit, got %d", got)
	}
}

func TestAdvanceRequiresSelection(t *testing.T) {
	ctx := context.Background()
	session := app.NewQuizSession(threeQuestionQuiz(), nil)
	if err := session.Advance(ctx); err != domain.ErrNoSelection {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
}

func TestSelectionResetsOnAdvance(t *testing.T) {
	ctx := context.Background()
	session := app.NewQuizSession(threeQuestionQuiz(), nil)
	if err := session.SelectAnswer(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := session.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	snap := session.Snapshot()
	if snap.Selection != -1 {
		t.Fatalf("expected selection reset, got %d", snap.Selection)
	}
	if snap.QuestionIndex != 1 {
		t.Fatalf("expected question 1, got %d", snap.QuestionIndex)
	}
}

func TestFinishFiresCallbackExactlyOnce(t *testing.T) {
	ctx := context.Background()
	calls := 0
	quiz := threeQuestionQuiz()
	quiz.Questions = quiz.Questions[:1]
	session := app.NewQuizSession(quiz, func(context.Context, domain.QuizResult) { calls++ })

	if err := session.SelectAnswer(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := session.Advance(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := session.Advance(ctx); err != domain.ErrQuizFinished {
		t.Fatalf("expected ErrQuizFinished, got %v", err)
	}
	if err := session.SelectAnswer(0); err != domain.ErrQuizFinished {
		t.Fatalf("expected ErrQuizFinished on select, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one callback, got %d", calls)
	}
}

func TestPercentageBounds(t *testing.T) {
	ctx := context.Background()

	allWrong := app.NewQuizSession(threeQuestionQuiz(), nil)
	for i := 0; i < 3; i++ {
		if err := allWrong.SelectAnswer(0); err != nil {
			t.Fatalf("select: %v", err)
		}
		if err := allWrong.Advance(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if got := allWrong.Result(); got.Correct != 0 || got.Percentage != 0 {
		t.Fatalf("expected 0%%, got %+v", got)
	}

	allRight := app.NewQuizSession(threeQuestionQuiz(), nil)
	for i := 0; i < 3; i++ {
		if err := allRight.SelectAnswer(1); err != nil {
			t.Fatalf("select: %v", err)
		}
		if err := allRight.Advance(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if got := allRight.Result(); got.Correct != 3 || got.Percentage != 100 {
		t.Fatalf("expected 100%%, got %+v", got)
	}
}

func TestSnapshotRevealsOnlySelectedAnswer(t *testing.T) {
	session := app.NewQuizSession(threeQuestionQuiz(), nil)
	if err := session.SelectAnswer(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	snap := session.Snapshot()
	if snap.Answers[0].State != app.AnswerSelectedIncorrect {
		t.Fatalf("expected selected-incorrect, got %s", snap.Answers[0].State)
	}
	if snap.Answers[1].State != app.AnswerUnselected || snap.Answers[1].Explanation != "" {
		t.Fatalf("expected unselected answers to stay hidden, got %+v", snap.Answers[1])
	}
}
