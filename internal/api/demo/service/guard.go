package demoService

import (
	"sync"

	"HelmetGuard/internal/api/demo"
)

// uploadGuard allows one outstanding upload per browser session.
type uploadGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newUploadGuard() *uploadGuard {
	return &uploadGuard{inFlight: make(map[string]struct{})}
}

func (g *uploadGuard) acquire(sessionID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[sessionID]; busy {
		return nil, demo.ErrUploadInProgress
	}
	g.inFlight[sessionID] = struct{}{}

	return func() {
		g.mu.Lock()
		delete(g.inFlight, sessionID)
		g.mu.Unlock()
	}, nil
}
