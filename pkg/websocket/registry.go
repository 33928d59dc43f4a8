package websocketPkg

import (
	"sync"
)

// Registry keeps at most one relay session per stream tab. Registering a new
// session for a tab closes the one it replaces.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Register(tab string, s *Session) bool {
	r.mu.Lock()
	prev, replaced := r.sessions[tab]
	r.sessions[tab] = s
	r.mu.Unlock()

	if replaced && prev != s {
		prev.Close()
	}
	return replaced
}

// Release drops the tab entry only if it still points at s.
func (r *Registry) Release(tab string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.sessions[tab]; ok && cur == s {
		delete(r.sessions, tab)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
