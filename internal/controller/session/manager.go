// Package session keeps per-user dialog contexts in memory. A session
// lives only while its booking dialog is open; once the dialog reaches a
// terminal state the front-ends drop it.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/campus-advising/advising_bot/internal/conversation"
)

// Manager maps session IDs to live dialog contexts.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*conversation.Context
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*conversation.Context),
	}
}

// Open registers a fresh context and returns its session ID.
func (m *Manager) Open(c *conversation.Context) string {
	id := uuid.New().String()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = c

	return id
}

// Get returns the context for a session, nil when unknown.
func (m *Manager) Get(sessionID string) *conversation.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessions[sessionID]
}

// Put stores a context under a caller-chosen key. Telegram front-ends key
// sessions by chat ID instead of generated IDs.
func (m *Manager) Put(sessionID string, c *conversation.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sessionID] = c
}

// Close drops the session.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
}
