package stream

import (
	"sync"
)

// Registry keeps track of open sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Remove forgets the session. It does not close it.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
}

// Count returns the number of open sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Active returns the number of unfinished requests across all sessions.
func (r *Registry) Active() int {
	n := 0

	for _, s := range r.snapshot() {
		n += s.Active()
	}

	return n
}

// Close closes and removes every session.
func (r *Registry) Close() {
	sessions := r.snapshot()

	for _, s := range sessions {
		s.Close()
		r.Remove(s.ID)
	}
}

func (r *Registry) snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*Session, 0, len(r.sessions))

	for _, s := range r.sessions {
		result = append(result, s)
	}

	return result
}
