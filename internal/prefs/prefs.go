package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Store holds small durable UI preferences that must survive restarts but do
// not belong in the main progress store. It is loaded once at startup and
// rewritten on every change.
type Store struct {
	path  string
	mu    sync.Mutex
	state state
}

type state struct {
	MentorMode bool `json:"mentorMode"`
}

// Load reads preferences from path. A missing file yields defaults.
func Load(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load prefs: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("parse prefs: %w", err)
	}
	return s, nil
}

// MentorMode reports whether the mentor-mode toggle is enabled.
func (s *Store) MentorMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.MentorMode
}

// SetMentorMode updates the toggle and persists the change.
func (s *Store) SetMentorMode(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.MentorMode == enabled {
		return nil
	}
	s.state.MentorMode = enabled
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	return nil
}
