package demoService

import (
	"context"
	"fmt"

	"HelmetGuard/internal/api/demo"
	websocketPkg "HelmetGuard/pkg/websocket"

	"github.com/sirupsen/logrus"
)

func (s *demoService) Endpoint(name string) (websocketPkg.Endpoint, bool) {
	ep, ok := s.streams.Endpoints[name]
	return ep, ok
}

// OpenStream starts a relay session for one tab of one browser session. A
// session already open on that tab is closed first.
func (s *demoService) OpenStream(ctx context.Context, sessionID, name string, src websocketPkg.FrameSource) (*websocketPkg.Session, error) {
	ep, ok := s.Endpoint(name)
	if !ok {
		return nil, demo.ErrUnknownEndpoint
	}

	session := websocketPkg.NewSession(s.streams.BaseURL, ep,
		websocketPkg.WithLogger(s.log),
		websocketPkg.WithMetrics(s.metrics),
		websocketPkg.WithMaxFPS(s.streams.MaxFPS),
	)

	if src != nil {
		if err := session.Attach(src); err != nil {
			return nil, err
		}
	}

	tab := sessionID + ":" + name
	s.registry.Register(tab, session)

	if err := session.Start(ctx); err != nil {
		s.registry.Release(tab, session)
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"endpoint":   name,
			"error":      err.Error(),
		}).Warn("Failed to open relay session")
		return nil, fmt.Errorf("%w: %v", demo.ErrStreamFailed, err)
	}

	go func() {
		<-session.Done()
		s.registry.Release(tab, session)
	}()

	return session, nil
}

func (s *demoService) CloseStreams() {
	s.registry.CloseAll()
}
