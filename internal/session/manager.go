// Package session owns the live conversation instances. Each session wraps
// one chat.Conversation behind a mutex so its turns are processed strictly
// sequentially; the default session backs the single-user HTTP surface, but
// every mutation goes through an explicit session handle so additional
// sessions cost nothing.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marruell/daybook/internal/chat"
)

var ErrNotFound = errors.New("session not found")

// Session is one live conversation with its serialization lock.
type Session struct {
	ID        string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`

	mu   sync.Mutex
	conv *chat.Conversation
}

// Step runs one conversation turn. Turns on the same session never
// interleave.
func (s *Session) Step(ctx context.Context, input string) (chat.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Step(ctx, input)
}

// State reports the current dialogue phase.
func (s *Session) State() chat.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.State()
}

// Manager tracks sessions by id.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	defaultID string

	newConversation func() *chat.Conversation
	onCreate        func(*Session)
}

// NewManager builds a manager. newConversation constructs the state machine
// for each session; onCreate, if set, runs once per created session (the
// async profile rebuild hangs off it).
func NewManager(newConversation func() *chat.Conversation, onCreate func(*Session)) *Manager {
	return &Manager{
		sessions:        make(map[string]*Session),
		newConversation: newConversation,
		onCreate:        onCreate,
	}
}

// Create starts a new conversation session.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		conv:      m.newConversation(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	if m.defaultID == "" {
		m.defaultID = s.ID
	}
	m.mu.Unlock()

	if m.onCreate != nil {
		m.onCreate(s)
	}
	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Default returns the session backing the plain HTTP API, creating it on
// first use.
func (m *Manager) Default() *Session {
	m.mu.RLock()
	s := m.sessions[m.defaultID]
	m.mu.RUnlock()
	if s != nil {
		return s
	}
	return m.Create()
}

// ActiveCount reports the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
