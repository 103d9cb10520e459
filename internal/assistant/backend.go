// Package assistant connects a conversational model to the issue tracker.
// A Backend holds chat sessions; an Integration passes each model reply
// through the command interpreter so tracker commands in the reply run.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Roles of conversation entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrSessionNotFound is returned for an unknown or ended session id.
var ErrSessionNotFound = errors.New("session not found")

// Reply is one message produced by a backend.
type Reply struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Entry is one message of a session history.
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Backend is a conversation service.
type Backend interface {
	StartSession(ctx context.Context, userID string) (string, error)
	Send(ctx context.Context, sessionID, message string) (Reply, error)
	History(ctx context.Context, sessionID string) ([]Entry, error)
	EndSession(ctx context.Context, sessionID string) error
}

// Preferences are per-user settings applied to new sessions.
type Preferences struct {
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
}

type session struct {
	userID  string
	system  string
	history []Entry
}

// sessions is the in-memory session table shared by the backends.
type sessions struct {
	mu    sync.Mutex
	byID  map[string]*session
	prefs map[string]Preferences
	now   func() time.Time
}

func newSessions() *sessions {
	return &sessions{
		byID:  make(map[string]*session),
		prefs: make(map[string]Preferences),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *sessions) setPreferences(userID string, p Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[userID] = p
}

func (s *sessions) start(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.byID[id] = &session{userID: userID, system: s.prefs[userID].SystemPrompt}
	return id
}

// snapshot returns the system prompt and a copy of the history.
func (s *sessions) snapshot(id string) (string, []Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return "", nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	return sess.system, append([]Entry(nil), sess.history...), nil
}

func (s *sessions) appendEntry(id, role, content string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	e := Entry{Role: role, Content: content, Timestamp: s.now()}
	sess.history = append(sess.history, e)
	return e, nil
}

func (s *sessions) end(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	delete(s.byID, id)
	return nil
}

func replyFrom(e Entry) Reply {
	return Reply{ID: uuid.NewString(), Role: e.Role, Content: e.Content, Timestamp: e.Timestamp}
}
