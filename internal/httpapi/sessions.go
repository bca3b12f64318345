package httpapi

import (
	"sync"

	"github.com/google/uuid"

	"github.com/eduzen-bot/server/internal/agent/direct"
)

// Agent variants a session can be pinned to.
const (
	VariantDirect = "direct"
	VariantStaged = "staged"
)

// Session pins one conversation to an agent variant. The variant is chosen
// on first contact and sticky afterwards; there is no process-global
// current-agent switch.
type Session struct {
	ID      string
	Variant string

	mu            sync.Mutex
	directHistory []direct.Turn
}

// WithDirectHistory runs fn under the session lock with the direct-variant
// history, storing whatever fn returns as the new history.
func (s *Session) WithDirectHistory(fn func(history []direct.Turn) []direct.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directHistory = fn(s.directHistory)
}

// ClearDirectHistory drops the direct-variant history.
func (s *Session) ClearDirectHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directHistory = nil
}

// SessionManager tracks sessions by opaque uuid.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it with the given
// variant when unknown. An empty id creates a fresh session with a new
// uuid. An empty variant defaults to the staged agent.
func (sm *SessionManager) GetOrCreate(id, variant string) *Session {
	if variant == "" {
		variant = VariantStaged
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	} else if s, ok := sm.sessions[id]; ok {
		return s
	}

	s := &Session{ID: id, Variant: variant}
	sm.sessions[id] = s
	return s
}

// Get returns the session for id, or nil when unknown.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}
