package app

import (
	"sync"

	"nextgen-quiz-service/internal/attempt"
)

// Session holds one user's quiz selection and current attempt. All intents
// for a session are serialized through its mutex: one action is fully
// processed, producing new state, before the next is accepted.
type Session struct {
	id string

	mu      sync.Mutex
	title   string
	attempt *attempt.Attempt
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string) *Session {
	return &Session{id: id}
}

func (s *Session) ID() string { return s.id }

// IsEmpty reports whether the session has no quiz selected.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt == nil
}
