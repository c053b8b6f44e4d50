// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package server

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// SessionManager tracks live sessions by session id and, once
// authenticated, by user id. One session per user: a second login for
// the same user displaces the first.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[ulid.ULID]*Session // keyed by session id
	byUser   map[ulid.ULID]*Session // keyed by user id
}

// NewSessionManager creates an empty session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[ulid.ULID]*Session),
		byUser:   make(map[ulid.ULID]*Session),
	}
}

// Add registers a fresh, unauthenticated session.
func (sm *SessionManager) Add(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[s.ID] = s
}

// Bind associates an authenticated user with the session. Returns the
// displaced session if the user was already connected elsewhere.
func (sm *SessionManager) Bind(userID ulid.ULID, s *Session) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	displaced := sm.byUser[userID]
	if displaced == s {
		displaced = nil
	}
	sm.byUser[userID] = s
	return displaced
}

// Remove drops the session and its user binding.
func (sm *SessionManager) Remove(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, s.ID)
	if u := s.User(); u != nil && sm.byUser[u.ID] == s {
		delete(sm.byUser, u.ID)
	}
}

// ByUser returns the session currently bound to the user.
func (sm *SessionManager) ByUser(userID ulid.ULID) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.byUser[userID]
	return s, ok
}

// All returns every live session.
func (sm *SessionManager) All() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
