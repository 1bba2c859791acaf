package collector

import (
	"fmt"
	"sort"
	"sync"
)

// Registry tracks the open session of every student.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Start opens a fresh session for the student, replacing any previous one.
func (r *Registry) Start(studentID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := NewSession(studentID)
	r.sessions[studentID] = s
	return s
}

// Get returns the student's open session. Finalized sessions are not
// returned.
func (r *Registry) Get(studentID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[studentID]
	if !ok || s.Finalized() {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, studentID)
	}
	return s, nil
}

// Discard drops the student's session, if any.
func (r *Registry) Discard(studentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, studentID)
}

// Reset drops every session.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}

// Open lists the students with an open, non-empty session in id order.
func (r *Registry) Open() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id, s := range r.sessions {
		if !s.Finalized() && s.Len() > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
