package domain

import "errors"

var (
	// ErrConceptNotFound indicates the concept page could not be loaded.
	ErrConceptNotFound = errors.New("concept not found")
	// ErrMalformedContent indicates content from the CMS failed boundary validation.
	ErrMalformedContent = errors.New("malformed content")
	// ErrQuizFinished is returned for interactions with a finished quiz session.
	ErrQuizFinished = errors.New("quiz already finished")
	// ErrNoSelection is returned when advancing without a selected answer.
	ErrNoSelection = errors.New("no answer selected")
	// ErrQuizIndexOutOfRange indicates a quiz index outside the page's quizzes.
	ErrQuizIndexOutOfRange = errors.New("quiz index out of range")
	// ErrAnswerOutOfRange indicates an answer index outside the current question.
	ErrAnswerOutOfRange = errors.New("answer index out of range")
)
