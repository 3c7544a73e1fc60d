package domain

import "time"

// Answer is one selectable answer within a quiz question.
type Answer struct {
	Text        string `json:"text" validate:"required"`
	Explanation string `json:"explanation"`
	Correct     bool   `json:"correct"`
}

// Question is a single-choice question with exactly one correct answer.
type Question struct {
	Prompt  string   `json:"prompt" validate:"required"`
	Answers []Answer `json:"answers" validate:"min=1,dive"`
}

// Quiz is the immutable definition of one embedded quiz.
type Quiz struct {
	ID        string     `json:"id" validate:"required"`
	Questions []Question `json:"questions" validate:"min=1,dive"`
}

// ContentBlockType identifies the kind of a content block on a concept page.
// Only the first block's type matters for gating: video-first pages do not
// require scrolling to the bottom.
type ContentBlockType string

const (
	BlockText  ContentBlockType = "text"
	BlockVideo ContentBlockType = "video"
	BlockImage ContentBlockType = "image"
	BlockQuiz  ContentBlockType = "quiz"
	BlockTasks ContentBlockType = "tasks"
)

// Resource is an external link shown alongside a concept.
type Resource struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// ConceptPage is the content-source view of one concept: its metadata, the
// ordered block types, the embedded quizzes, and the ordering of all concepts
// in the lesson (used for navigation and the concept drawer).
type ConceptPage struct {
	CourseID    string             `json:"courseId" validate:"required"`
	LessonID    string             `json:"lessonId" validate:"required"`
	ConceptID   string             `json:"conceptId" validate:"required"`
	Title       string             `json:"title" validate:"required"`
	LessonTitle string             `json:"lessonTitle"`
	BlockTypes  []ContentBlockType `json:"blockTypes" validate:"min=1"`
	Quizzes     []Quiz             `json:"quizzes" validate:"dive"`
	ConceptIDs  []string           `json:"conceptIds" validate:"min=1"`
	Resources   []Resource         `json:"resources"`
}

// FirstBlockType returns the type of the first content block.
func (p ConceptPage) FirstBlockType() ContentBlockType {
	if len(p.BlockTypes) == 0 {
		return ""
	}
	return p.BlockTypes[0]
}

// ConceptIndex returns the position of this concept within its lesson, or -1.
func (p ConceptPage) ConceptIndex() int {
	for i, id := range p.ConceptIDs {
		if id == p.ConceptID {
			return i
		}
	}
	return -1
}

// PrevConceptID returns the id of the previous concept, or "" when this is
// the first concept of the lesson.
func (p ConceptPage) PrevConceptID() string {
	i := p.ConceptIndex()
	if i <= 0 {
		return ""
	}
	return p.ConceptIDs[i-1]
}

// NextConceptID returns the id of the next concept, or "complete" when this
// is the last concept of the lesson.
func (p ConceptPage) NextConceptID() string {
	i := p.ConceptIndex()
	if i < 0 || i+1 >= len(p.ConceptIDs) {
		return "complete"
	}
	return p.ConceptIDs[i+1]
}

// QuizResult is one persisted quiz outcome, appended once per completed quiz.
type QuizResult struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ConceptProgress is the persisted per-concept progress state.
type ConceptProgress struct {
	StartedAt   *time.Time   `json:"startedAt,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Quizzes     []QuizResult `json:"quizzes,omitempty"`
}

// LessonProgress maps concept ids to their progress.
type LessonProgress struct {
	Concepts map[string]ConceptProgress `json:"concepts"`
}

// CourseProgress is the persisted progress record for one (user, course)
// pair. It is read once per page open and treated as a stable snapshot.
type CourseProgress struct {
	Lessons map[string]LessonProgress `json:"lessons"`
}

// Concept returns the progress entry for (lessonID, conceptID); the zero
// value when absent.
func (p CourseProgress) Concept(lessonID, conceptID string) ConceptProgress {
	lesson, ok := p.Lessons[lessonID]
	if !ok {
		return ConceptProgress{}
	}
	return lesson.Concepts[conceptID]
}

// HasStarted reports whether started_at has been recorded for the concept.
func (p CourseProgress) HasStarted(lessonID, conceptID string) bool {
	return p.Concept(lessonID, conceptID).StartedAt != nil
}

// HasCompleted reports whether completed_at has been recorded for the concept.
func (p CourseProgress) HasCompleted(lessonID, conceptID string) bool {
	return p.Concept(lessonID, conceptID).CompletedAt != nil
}

// SetConcept stores a concept entry, allocating nested maps as needed.
func (p *CourseProgress) SetConcept(lessonID, conceptID string, cp ConceptProgress) {
	if p.Lessons == nil {
		p.Lessons = make(map[string]LessonProgress)
	}
	lesson, ok := p.Lessons[lessonID]
	if !ok {
		lesson = LessonProgress{Concepts: make(map[string]ConceptProgress)}
	}
	if lesson.Concepts == nil {
		lesson.Concepts = make(map[string]ConceptProgress)
	}
	lesson.Concepts[conceptID] = cp
	p.Lessons[lessonID] = lesson
}

// ConceptPatch is a partial concept update; nil fields are left untouched by
// the store's merge.
type ConceptPatch struct {
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// ProgressPatch is a partial progress record, merged field-by-field into the
// persisted document.
type ProgressPatch struct {
	Lessons map[string]map[string]ConceptPatch
}

// NewConceptPatch builds a patch touching a single concept.
func NewConceptPatch(lessonID, conceptID string, patch ConceptPatch) ProgressPatch {
	return ProgressPatch{
		Lessons: map[string]map[string]ConceptPatch{
			lessonID: {conceptID: patch},
		},
	}
}

// Feedback is a per-concept feedback record; merges overwrite, last write wins.
type Feedback struct {
	Value   int    `json:"value"`
	Comment string `json:"feedback,omitempty"`
	Type    string `json:"type"`
}

// FeedbackTypeConcept marks feedback records written by concept pages.
const FeedbackTypeConcept = "concept"

// ConceptStatus is the drawer-facing availability state of a concept.
type ConceptStatus string

const (
	ConceptUnavailable ConceptStatus = "unavailable"
	ConceptAvailable   ConceptStatus = "available"
	ConceptCompleted   ConceptStatus = "completed"
)

// StatusOf derives the drawer status of the concept at position index within
// the lesson: completed once both timestamps exist, available once started or
// when it is the lesson's first concept, unavailable otherwise.
func StatusOf(progress CourseProgress, lessonID, conceptID string, index int) ConceptStatus {
	if progress.HasStarted(lessonID, conceptID) {
		if progress.HasCompleted(lessonID, conceptID) {
			return ConceptCompleted
		}
		return ConceptAvailable
	}
	if index == 0 {
		return ConceptAvailable
	}
	return ConceptUnavailable
}
