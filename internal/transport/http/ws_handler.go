package http

import (
	"encoding/json"
	"log"
	"net/http"

	"course-progress-service/internal/app"
	"course-progress-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler drives one concept-page visit per connection: it opens the gate,
// streams availability updates, and applies quiz/scroll/completion events
// sent by the client.
type WSHandler struct {
	service  *app.ProgressService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ProgressService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Quiz   int `json:"quiz"`
	Answer int `json:"answer"`
}

type advancePayload struct {
	Quiz int `json:"quiz"`
}

type scrollPayload struct {
	ScrollY        float64 `json:"scrollY"`
	DocumentHeight float64 `json:"documentHeight"`
	ViewportHeight float64 `json:"viewportHeight"`
}

type feedbackPayload struct {
	Value   int    `json:"value"`
	Comment string `json:"comment"`
}

type pagePayload struct {
	Title           string                   `json:"title"`
	LessonTitle     string                   `json:"lessonTitle"`
	ConceptNum      int                      `json:"conceptNum"`
	ConceptTotal    int                      `json:"conceptTotal"`
	FirstBlockType  domain.ContentBlockType  `json:"firstBlockType"`
	IsBackAvailable bool                     `json:"isBackAvailable"`
	BackLink        string                   `json:"backLink"`
	NextLink        string                   `json:"nextLink"`
	Statuses        []app.ConceptStatusEntry `json:"statuses"`
	Resources       []domain.Resource        `json:"resources"`
	Quizzes         []app.QuizSnapshot       `json:"quizzes"`
	Availability    app.Availability         `json:"availability"`
}

type notificationPayload struct {
	Kind        app.NotifyKind `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// connNotifier forwards notifications to the client, falling back to the log
// when the connection's send queue is full.
type connNotifier struct {
	send chan outboundMessage[any]
}

func (n *connNotifier) Notify(kind app.NotifyKind, title, description string) {
	msg := outboundMessage[any]{Type: "notification", Payload: notificationPayload{
		Kind:        kind,
		Title:       title,
		Description: description,
	}}
	select {
	case n.send <- msg:
	default:
		log.Printf("notify [%s] %s: %s", kind, title, description)
	}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// concept-progress use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	courseID := r.URL.Query().Get("courseId")
	lessonID := r.URL.Query().Get("lessonId")
	conceptID := r.URL.Query().Get("conceptId")
	if userID == "" || courseID == "" || lessonID == "" || conceptID == "" {
		http.Error(w, "missing userId, courseId, lessonId, or conceptId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	notifier := &connNotifier{send: send}

	gate, err := h.service.OpenConcept(r.Context(), userID, courseID, lessonID, conceptID, notifier)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel := gate.Subscribe()
	defer cancel()

	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "availability", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "page", Payload: buildPagePayload(gate, courseID, lessonID)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}}
				continue
			}
			snap, err := gate.SelectAnswer(payload.Quiz, payload.Answer)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "quiz", Payload: snap}
		case "advance":
			var payload advancePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid advance payload"}}
				continue
			}
			snap, err := gate.Advance(r.Context(), payload.Quiz)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "quiz", Payload: snap}
		case "scroll":
			var payload scrollPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid scroll payload"}}
				continue
			}
			gate.UpdateScroll(payload.ScrollY, payload.DocumentHeight, payload.ViewportHeight)
		case "complete":
			if err := gate.CompleteConcept(r.Context()); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "completed", Payload: struct{}{}}
		case "feedback":
			var payload feedbackPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid feedback payload"}}
				continue
			}
			if err := gate.SubmitFeedback(r.Context(), payload.Value, payload.Comment); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func buildPagePayload(gate *app.ConceptGate, courseID, lessonID string) pagePayload {
	page := gate.Page()
	index := page.ConceptIndex()
	prefix := "/courses/" + courseID + "/" + lessonID + "/"
	return pagePayload{
		Title:           page.Title,
		LessonTitle:     page.LessonTitle,
		ConceptNum:      index + 1,
		ConceptTotal:    len(page.ConceptIDs),
		FirstBlockType:  page.FirstBlockType(),
		IsBackAvailable: index > 0,
		BackLink:        prefix + page.PrevConceptID(),
		NextLink:        prefix + page.NextConceptID(),
		Statuses:        gate.Statuses(),
		Resources:       page.Resources,
		Quizzes:         gate.Quizzes(),
		Availability:    gate.Availability(),
	}
}
