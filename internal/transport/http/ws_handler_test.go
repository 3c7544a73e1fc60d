package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"course-progress-service/internal/app"
	"course-progress-service/internal/domain"
	"course-progress-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketConceptFlow(t *testing.T) {
	content := memory.NewContentRepository(memory.NewStaticPageLoader([]domain.ConceptPage{samplePage()}), time.Minute)
	service := app.NewProgressService(content, memory.NewProgressStore(), memory.NewFeedbackStore(), nil)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?userId=u1&courseId=course-1&lessonId=lesson-1&conceptId=concept-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The page snapshot and the initial availability arrive in either order.
	page := readUntil(conn, t, "page")
	if page["title"] != "Intro" {
		t.Fatalf("unexpected page payload %+v", page)
	}
	if page["conceptNum"] != float64(1) || page["conceptTotal"] != float64(2) {
		t.Fatalf("unexpected concept position %+v", page)
	}
	if page["isBackAvailable"] != false {
		t.Fatalf("expected back unavailable on first concept")
	}
	if page["nextLink"] != "/courses/course-1/lesson-1/concept-2" {
		t.Fatalf("unexpected next link %v", page["nextLink"])
	}

	// Scroll to the bottom of the page.
	writeMsg(conn, t, "scroll", map[string]any{
		"scrollY":        1000,
		"documentHeight": 1500,
		"viewportHeight": 500,
	})
	av := readUntil(conn, t, "availability")
	for av["scrolledToBottom"] != true {
		av = readUntil(conn, t, "availability")
	}
	if av["nextAvailable"] != false {
		t.Fatalf("expected next gated on quiz, got %+v", av)
	}

	// Answer the quiz correctly and advance past the only question.
	writeMsg(conn, t, "select", map[string]any{"quiz": 0, "answer": 1})
	snap := readUntil(conn, t, "quiz")
	if snap["correctCount"] != float64(1) {
		t.Fatalf("expected credit for correct selection, got %+v", snap)
	}

	writeMsg(conn, t, "advance", map[string]any{"quiz": 0})
	snap = readUntil(conn, t, "quiz")
	if snap["finished"] != true {
		t.Fatalf("expected finished quiz, got %+v", snap)
	}

	av = readUntil(conn, t, "availability")
	for av["nextAvailable"] != true {
		av = readUntil(conn, t, "availability")
	}

	// Mark the concept completed.
	writeMsg(conn, t, "complete", nil)
	readUntil(conn, t, "completed")
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	content := memory.NewContentRepository(memory.NewStaticPageLoader(nil), time.Minute)
	service := app.NewProgressService(content, memory.NewProgressStore(), memory.NewFeedbackStore(), nil)
	wsHandler := NewWSHandler(service)

	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "?userId=u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func writeMsg(conn *websocket.Conn, t *testing.T, msgType string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// readUntil skips messages of other types until one of the expected type
// arrives, so interleaved availability broadcasts never break the flow.
func readUntil(conn *websocket.Conn, t *testing.T, expect string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == "error" {
			t.Fatalf("unexpected error message: %+v", msg.Payload)
		}
		if msg.Type == expect {
			return msg.Payload
		}
	}
	t.Fatalf("no %s message within 10 reads", expect)
	return nil
}

func samplePage() domain.ConceptPage {
	return domain.ConceptPage{
		CourseID:    "course-1",
		LessonID:    "lesson-1",
		ConceptID:   "concept-1",
		Title:       "Intro",
		LessonTitle: "Getting started",
		BlockTypes:  []domain.ContentBlockType{domain.BlockText, domain.BlockQuiz},
		ConceptIDs:  []string{"concept-1", "concept-2"},
		Quizzes: []domain.Quiz{
			{
				ID: "quiz-1",
				Questions: []domain.Question{
					{
						Prompt: "What is 2 + 2?",
						Answers: []domain.Answer{
							{Text: "3", Explanation: "Off by one"},
							{Text: "4", Explanation: "Correct!", Correct: true},
							{Text: "5", Explanation: "Off by one"},
						},
					},
				},
			},
		},
	}
}
