package app

import (
	"context"
	"sync"
	"time"

	"course-progress-service/internal/domain"
)

// Availability is the derived, render-ready gating state of a concept page.
type Availability struct {
	ScrollPercent    float64 `json:"scrollPercent"`
	ScrolledToBottom bool    `json:"scrolledToBottom"`
	QuizzesDone      bool    `json:"quizzesDone"`
	NextAvailable    bool    `json:"nextAvailable"`
	Completed        bool    `json:"completed"`
}

// ConceptStatusEntry is one row of the concept drawer.
type ConceptStatusEntry struct {
	ConceptID string               `json:"conceptId"`
	Status    domain.ConceptStatus `json:"status"`
}

// ConceptGate aggregates the independent completion signals of one concept
// page visit (scroll position, quiz completion, the persisted record) into a
// single navigation-availability flag, and drives the one-time
// started_at/completed_at writes.
//
// The gate closes over the progress snapshot read when the page was opened;
// concurrent edits from other sessions are not reconciled. All derived flags
// are monotonic for the lifetime of the gate: once a signal is true it never
// reverts, even if the write recording it fails.
type ConceptGate struct {
	page     domain.ConceptPage
	userID   string
	store    ProgressStore
	feedback FeedbackStore
	notifier Notifier
	now      func() time.Time

	mu               sync.Mutex
	progress         domain.CourseProgress
	sessions         []*QuizSession
	quizDone         []bool
	scrollPercent    float64
	scrolledToBottom bool
	quizzesDone      bool
	nextAvailable    bool
	subscribers      map[chan Availability]struct{}
}

func newConceptGate(page domain.ConceptPage, userID string, progress domain.CourseProgress, store ProgressStore, feedback FeedbackStore, notifier Notifier, now func() time.Time) *ConceptGate {
	g := &ConceptGate{
		page:        page,
		userID:      userID,
		store:       store,
		feedback:    feedback,
		notifier:    notifier,
		now:         now,
		progress:    progress,
		quizDone:    make([]bool, len(page.Quizzes)),
		quizzesDone: len(page.Quizzes) == 0,
		subscribers: make(map[chan Availability]struct{}),
	}
	g.sessions = make([]*QuizSession, len(page.Quizzes))
	for i, quiz := range page.Quizzes {
		index := i
		g.sessions[i] = NewQuizSession(quiz, func(ctx context.Context, result domain.QuizResult) {
			g.quizFinishedLocked(ctx, index, result)
		})
	}
	g.recomputeLocked()
	return g
}

// markStarted issues the one-time started_at write when the snapshot shows no
// prior visit. Failures are notified and do not block the page.
func (g *ConceptGate) markStarted(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.progress.HasStarted(g.page.LessonID, g.page.ConceptID) {
		return
	}
	ts := g.now()
	patch := domain.NewConceptPatch(g.page.LessonID, g.page.ConceptID, domain.ConceptPatch{StartedAt: &ts})
	if err := g.store.Merge(ctx, g.userID, g.page.CourseID, patch); err != nil {
		g.notifier.Notify(NotifyError, "Unable to save your progress", err.Error())
		return
	}
	cp := g.progress.Concept(g.page.LessonID, g.page.ConceptID)
	cp.StartedAt = &ts
	g.progress.SetConcept(g.page.LessonID, g.page.ConceptID, cp)
}

// UpdateScroll folds a scroll sample into the gate. The percent is clamped to
// [0, 100] and reported as 100 when the document is not scrollable. Hitting
// 100 latches scrolledToBottom for the remainder of the page's lifetime.
func (g *ConceptGate) UpdateScroll(scrollY, documentHeight, viewportHeight float64) Availability {
	g.mu.Lock()
	defer g.mu.Unlock()

	conceptHeight := documentHeight - viewportHeight
	percent := 100.0
	if conceptHeight > 0 {
		percent = scrollY / conceptHeight * 100
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
	}
	g.scrollPercent = percent
	if percent == 100 && !g.scrolledToBottom {
		g.scrolledToBottom = true
	}
	g.recomputeLocked()
	return g.broadcastLocked()
}

// SelectAnswer forwards a selection to the indexed quiz session.
func (g *ConceptGate) SelectAnswer(quizIndex, answerIndex int) (QuizSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if quizIndex < 0 || quizIndex >= len(g.sessions) {
		return QuizSnapshot{}, domain.ErrQuizIndexOutOfRange
	}
	session := g.sessions[quizIndex]
	if err := session.SelectAnswer(answerIndex); err != nil {
		return QuizSnapshot{}, err
	}
	return session.Snapshot(), nil
}

// Advance forwards an advance to the indexed quiz session. Finishing the
// session records its result and folds completion into the gate.
func (g *ConceptGate) Advance(ctx context.Context, quizIndex int) (QuizSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if quizIndex < 0 || quizIndex >= len(g.sessions) {
		return QuizSnapshot{}, domain.ErrQuizIndexOutOfRange
	}
	session := g.sessions[quizIndex]
	if err := session.Advance(ctx); err != nil {
		return QuizSnapshot{}, err
	}
	return session.Snapshot(), nil
}

// quizFinishedLocked runs inside the session's completion callback, which the
// gate only ever invokes while holding its own lock.
func (g *ConceptGate) quizFinishedLocked(ctx context.Context, quizIndex int, result domain.QuizResult) {
	g.quizDone[quizIndex] = true
	done := true
	for _, d := range g.quizDone {
		if !d {
			done = false
			break
		}
	}
	if done {
		g.quizzesDone = true
	}

	// At-most-once-per-concept-batch guard: only append while fewer results
	// are recorded than quizzes are embedded.
	cp := g.progress.Concept(g.page.LessonID, g.page.ConceptID)
	if len(cp.Quizzes) < len(g.page.Quizzes) {
		if err := g.store.AppendQuizResult(ctx, g.userID, g.page.CourseID, g.page.LessonID, g.page.ConceptID, result); err != nil {
			g.notifier.Notify(NotifyError, "Unable to save your quiz score", err.Error())
		} else {
			cp.Quizzes = append(cp.Quizzes, result)
			g.progress.SetConcept(g.page.LessonID, g.page.ConceptID, cp)
		}
	}

	g.recomputeLocked()
	g.broadcastLocked()
}

// CompleteConcept records completed_at once. Calls after the first
// acknowledged write resolve without a second write; the error of a failed
// write is returned to the caller and surfaced through the notifier.
func (g *ConceptGate) CompleteConcept(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.progress.HasCompleted(g.page.LessonID, g.page.ConceptID) {
		return nil
	}
	ts := g.now()
	patch := domain.NewConceptPatch(g.page.LessonID, g.page.ConceptID, domain.ConceptPatch{CompletedAt: &ts})
	if err := g.store.Merge(ctx, g.userID, g.page.CourseID, patch); err != nil {
		g.notifier.Notify(NotifyError, "Unable to complete this concept", err.Error())
		return err
	}
	cp := g.progress.Concept(g.page.LessonID, g.page.ConceptID)
	cp.CompletedAt = &ts
	g.progress.SetConcept(g.page.LessonID, g.page.ConceptID, cp)
	g.recomputeLocked()
	g.broadcastLocked()
	return nil
}

// SubmitFeedback merge-writes a feedback record keyed by the concept id;
// repeated submissions overwrite, last write wins.
func (g *ConceptGate) SubmitFeedback(ctx context.Context, value int, comment string) error {
	fb := domain.Feedback{Value: value, Comment: comment, Type: domain.FeedbackTypeConcept}
	if err := g.feedback.Merge(ctx, g.userID, g.page.ConceptID, fb); err != nil {
		g.notifier.Notify(NotifyError, "Unable to submit your feedback", err.Error())
		return err
	}
	g.notifier.Notify(NotifySuccess, "Feedback submitted", "Thanks for helping us improve this concept")
	return nil
}

// Availability returns the current derived state.
func (g *ConceptGate) Availability() Availability {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.availabilityLocked()
}

// Quizzes renders all quiz sessions.
func (g *ConceptGate) Quizzes() []QuizSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snaps := make([]QuizSnapshot, len(g.sessions))
	for i, session := range g.sessions {
		snaps[i] = session.Snapshot()
	}
	return snaps
}

// Page returns the immutable page the gate was opened for.
func (g *ConceptGate) Page() domain.ConceptPage {
	return g.page
}

// Statuses renders the drawer status of every concept in the lesson.
func (g *ConceptGate) Statuses() []ConceptStatusEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	entries := make([]ConceptStatusEntry, len(g.page.ConceptIDs))
	for i, id := range g.page.ConceptIDs {
		entries[i] = ConceptStatusEntry{
			ConceptID: id,
			Status:    domain.StatusOf(g.progress, g.page.LessonID, id, i),
		}
	}
	return entries
}

// Subscribe returns a channel receiving availability updates for the page.
// The caller must invoke the returned cancel function to avoid leaks.
func (g *ConceptGate) Subscribe() (<-chan Availability, func()) {
	ch := make(chan Availability, 8)

	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	initial := g.availabilityLocked()
	g.mu.Unlock()

	ch <- initial

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

// recomputeLocked applies the availability formula. The flag is monotonic:
// once true it is never forced back to false within the page's lifetime.
func (g *ConceptGate) recomputeLocked() {
	if g.nextAvailable {
		return
	}
	completed := g.progress.HasCompleted(g.page.LessonID, g.page.ConceptID)
	videoFirst := g.page.FirstBlockType() == domain.BlockVideo
	if completed || (g.quizzesDone && (videoFirst || g.scrolledToBottom)) {
		g.nextAvailable = true
	}
}

func (g *ConceptGate) availabilityLocked() Availability {
	return Availability{
		ScrollPercent:    g.scrollPercent,
		ScrolledToBottom: g.scrolledToBottom,
		QuizzesDone:      g.quizzesDone,
		NextAvailable:    g.nextAvailable,
		Completed:        g.progress.HasCompleted(g.page.LessonID, g.page.ConceptID),
	}
}

func (g *ConceptGate) broadcastLocked() Availability {
	av := g.availabilityLocked()
	for ch := range g.subscribers {
		select {
		case ch <- av:
		default:
			// Drop the stale update so a slow subscriber never blocks the page.
			select {
			case <-ch:
			default:
			}
			ch <- av
		}
	}
	return av
}
