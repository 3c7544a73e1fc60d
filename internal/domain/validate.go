package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator instances cache struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(questionStructLevel, Question{})
	return v
}

// questionStructLevel enforces the single-correct-answer invariant that the
// struct tags cannot express.
func questionStructLevel(sl validator.StructLevel) {
	q := sl.Current().Interface().(Question)
	correct := 0
	for _, a := range q.Answers {
		if a.Correct {
			correct++
		}
	}
	if correct != 1 {
		sl.ReportError(q.Answers, "Answers", "answers", "onecorrect", "")
	}
}

// ValidateConceptPage checks a page fetched from the content source. Content
// is untrusted at this boundary; anything that fails validation surfaces as
// ErrMalformedContent instead of reaching the progress core.
func ValidateConceptPage(page ConceptPage) error {
	if err := validate.Struct(page); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	if page.ConceptIndex() < 0 {
		return fmt.Errorf("%w: concept %q missing from lesson ordering", ErrMalformedContent, page.ConceptID)
	}
	return nil
}

// ValidateQuiz checks a standalone quiz definition.
func ValidateQuiz(quiz Quiz) error {
	if err := validate.Struct(quiz); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	return nil
}
