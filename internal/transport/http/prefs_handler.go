package http

import (
	"encoding/json"
	"net/http"

	"course-progress-service/internal/prefs"
)

// PrefsHandler exposes the mentor-mode preference over plain HTTP.
type PrefsHandler struct {
	store *prefs.Store
}

func NewPrefsHandler(store *prefs.Store) *PrefsHandler {
	return &PrefsHandler{store: store}
}

type mentorModeBody struct {
	Enabled bool `json:"enabled"`
}

// ServeMentorMode handles GET (read) and PUT (toggle and persist).
func (h *PrefsHandler) ServeMentorMode(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, mentorModeBody{Enabled: h.store.MentorMode()})
	case http.MethodPut:
		var body mentorModeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if err := h.store.SetMentorMode(body.Enabled); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, mentorModeBody{Enabled: h.store.MentorMode()})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
