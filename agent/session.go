package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

// ErrSessionNotFound is returned when a session does not exist
var ErrSessionNotFound = errors.New("session not found")

// Session is one conversation between a user and an app.
type Session struct {
	ID      string
	AppName string
	UserID  string
	State   *State

	mu      sync.Mutex
	history []llms.MessageContent
}

// History returns a copy of the conversation so far
func (s *Session) History() []llms.MessageContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// Append adds messages to the history
func (s *Session) Append(msgs ...llms.MessageContent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)
}

type sessionKey struct {
	app, user, id string
}

// InMemorySessionService keeps sessions in memory.
type InMemorySessionService struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*Session
}

// NewInMemorySessionService creates an empty session service
func NewInMemorySessionService() *InMemorySessionService {
	return &InMemorySessionService{sessions: make(map[sessionKey]*Session)}
}

// Create creates a session with initial state. An empty id gets a random one.
func (s *InMemorySessionService) Create(ctx context.Context, app, user, id string, initial map[string]any) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	key := sessionKey{app, user, id}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; ok {
		return nil, fmt.Errorf("session %s already exists", id)
	}
	sess := &Session{ID: id, AppName: app, UserID: user, State: NewState(initial)}
	s.sessions[key] = sess
	return sess, nil
}

// Get returns an existing session
func (s *InMemorySessionService) Get(ctx context.Context, app, user, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionKey{app, user, id}]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}
