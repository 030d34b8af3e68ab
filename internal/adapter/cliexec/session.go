package cliexec

import (
	"path/filepath"
	"sync"
)

// SessionStore remembers backend session ids per working directory so a
// later invocation for the same project continues the same backend-side
// conversation.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]string)}
}

// Get returns the remembered session id for the working directory.
func (s *SessionStore) Get(workDir string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.sessions[ProjectKey(workDir)]
	return id, ok
}

// Set records the session id for the working directory, replacing any
// previous one.
func (s *SessionStore) Set(workDir, sessionID string) {
	if sessionID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ProjectKey(workDir)] = sessionID
}

// ProjectKey derives a stable project identifier from a working directory
// path. Different spellings of the same directory map to one key.
func ProjectKey(workDir string) string {
	return filepath.Base(filepath.Clean(workDir))
}
