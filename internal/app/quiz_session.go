package app

import (
	"context"

	"course-progress-service/internal/domain"
)

// AnswerState is the visual/interaction state of one answer in the active
// question: unselected, or selected with the correctness revealed.
type AnswerState string

const (
	AnswerUnselected        AnswerState = "unselected"
	AnswerSelectedCorrect   AnswerState = "selectedCorrect"
	AnswerSelectedIncorrect AnswerState = "selectedIncorrect"
)

// AnswerView is a render-ready answer. The explanation is only populated once
// the answer has been selected, so correctness never leaks ahead of a pick.
type AnswerView struct {
	Text        string      `json:"text"`
	Explanation string      `json:"explanation,omitempty"`
	State       AnswerState `json:"state"`
}

// QuizSnapshot is the render-ready state of one quiz session.
type QuizSnapshot struct {
	QuizID          string       `json:"quizId"`
	QuestionIndex   int          `json:"questionIndex"`
	TotalQuestions  int          `json:"totalQuestions"`
	Prompt          string       `json:"prompt,omitempty"`
	Answers         []AnswerView `json:"answers,omitempty"`
	Selection       int          `json:"selection"`
	CorrectCount    int          `json:"correctCount"`
	Finished        bool         `json:"finished"`
	ProgressPercent float64      `json:"progressPercent"`
}

// QuizSession owns the state of one quiz attempt: the active question, the
// current selection, the running correct count, and the terminal finished
// flag. A question is credited on the first correct selection made for it,
// at most once; later selections on the same question never change the count.
//
// Sessions are not safe for concurrent use; the owning gate serializes access.
type QuizSession struct {
	quiz      domain.Quiz
	current   int
	selection int
	credited  bool
	correct   int
	finished  bool
	onFinish  func(context.Context, domain.QuizResult)
}

// NewQuizSession creates a session for quiz. onFinish is invoked exactly once,
// when the final question is advanced past; it may be nil.
func NewQuizSession(quiz domain.Quiz, onFinish func(context.Context, domain.QuizResult)) *QuizSession {
	return &QuizSession{quiz: quiz, selection: -1, onFinish: onFinish}
}

// SelectAnswer records a selection for the active question. Re-selection is
// always allowed until the session finishes, so learners can explore other
// answers after their first pick without further score changes.
func (s *QuizSession) SelectAnswer(index int) error {
	if s.finished {
		return domain.ErrQuizFinished
	}
	question := s.quiz.Questions[s.current]
	if index < 0 || index >= len(question.Answers) {
		return domain.ErrAnswerOutOfRange
	}
	s.selection = index
	if question.Answers[index].Correct && !s.credited {
		s.correct++
		s.credited = true
	}
	return nil
}

// Advance moves to the next question, or finishes the session when the active
// question is the last one. It requires a selection for the active question.
// Finishing fires the completion callback and is terminal: repeated calls
// return ErrQuizFinished and never re-fire the callback.
func (s *QuizSession) Advance(ctx context.Context) error {
	if s.finished {
		return domain.ErrQuizFinished
	}
	if s.selection < 0 {
		return domain.ErrNoSelection
	}
	if s.current+1 >= len(s.quiz.Questions) {
		s.finished = true
		if s.onFinish != nil {
			s.onFinish(ctx, s.Result())
		}
		return nil
	}
	s.current++
	s.selection = -1
	s.credited = false
	return nil
}

// Finished reports whether the session reached its terminal state.
func (s *QuizSession) Finished() bool {
	return s.finished
}

// Result computes the persisted outcome for the session so far.
func (s *QuizSession) Result() domain.QuizResult {
	total := len(s.quiz.Questions)
	return domain.QuizResult{
		Correct:    s.correct,
		Total:      total,
		Percentage: float64(s.correct) / float64(total) * 100,
	}
}

// Snapshot renders the current state. For an active question every answer is
// clickable; the selected one reveals whether it was correct.
func (s *QuizSession) Snapshot() QuizSnapshot {
	total := len(s.quiz.Questions)
	snap := QuizSnapshot{
		QuizID:         s.quiz.ID,
		QuestionIndex:  s.current,
		TotalQuestions: total,
		Selection:      s.selection,
		CorrectCount:   s.correct,
		Finished:       s.finished,
	}
	if s.finished {
		snap.ProgressPercent = 100
		return snap
	}
	snap.ProgressPercent = float64(s.current) / float64(total) * 100
	question := s.quiz.Questions[s.current]
	snap.Prompt = question.Prompt
	snap.Answers = make([]AnswerView, len(question.Answers))
	for i, a := range question.Answers {
		view := AnswerView{Text: a.Text, State: AnswerUnselected}
		if i == s.selection {
			view.Explanation = a.Explanation
			if a.Correct {
				view.State = AnswerSelectedCorrect
			} else {
				view.State = AnswerSelectedIncorrect
			}
		}
		snap.Answers[i] = view
	}
	return snap
}
