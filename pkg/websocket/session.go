package websocketPkg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"HelmetGuard/internal/entity"
	"HelmetGuard/pkg/metrics"
	"HelmetGuard/pkg/render"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	ErrAlreadyStarted = errors.New("relay session already started")
	ErrNotStreaming   = errors.New("relay session is not streaming")
	ErrPushDisabled   = errors.New("endpoint does not accept captured frames")
)

type Option func(*Session)

func WithLogger(log *logrus.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithMaxFPS caps how often captured frames are pushed upstream.
func WithMaxFPS(fps int) Option {
	return func(s *Session) {
		if fps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(fps), 1)
		}
	}
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.dialer.HandshakeTimeout = d
	}
}

// Session is one live frame relay connection to a backend stream endpoint.
// It moves Idle -> Connecting -> Streaming -> Closed and never reconnects.
type Session struct {
	id       string
	endpoint Endpoint
	url      string
	dialer   websocket.Dialer
	log      *logrus.Logger
	metrics  *metrics.Metrics
	limiter  *rate.Limiter

	writeTimeout time.Duration

	mu      sync.Mutex
	writeMu sync.Mutex
	state   State
	conn    *websocket.Conn
	source  FrameSource
	reading bool
	err     error

	surface *render.Surface
	frames  chan entity.StreamFrame
	done    chan struct{}
}

func NewSession(baseURL string, endpoint Endpoint, opts ...Option) *Session {
	s := &Session{
		id:           uuid.NewString(),
		endpoint:     endpoint,
		url:          strings.TrimRight(baseURL, "/") + endpoint.Path,
		dialer:       *websocket.DefaultDialer,
		log:          logrus.StandardLogger(),
		writeTimeout: 5 * time.Second,
		surface:      render.NewSurface(),
		frames:       make(chan entity.StreamFrame, 8),
		done:         make(chan struct{}),
	}
	s.dialer.HandshakeTimeout = 10 * time.Second

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Endpoint() Endpoint {
	return s.endpoint
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the reason the session closed, nil for an explicit Close.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Frames delivers decoded inbound frames; it is closed once the session is Closed.
func (s *Session) Frames() <-chan entity.StreamFrame {
	return s.frames
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Surface() *render.Surface {
	return s.surface
}

// Start dials the backend. The session is Streaming when Start returns nil.
// Cancelling ctx later closes the session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.state = StateConnecting
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"session_id": s.id,
		"endpoint":   s.endpoint.Name,
		"url":        s.url,
	}).Info("Connecting relay session")

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		err = fmt.Errorf("failed to connect to %s: %w", s.url, err)
		s.closeWith(err)
		return err
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		// Closed while dialing.
		s.mu.Unlock()
		conn.Close()
		return ErrNotStreaming
	}
	s.conn = conn
	s.state = StateStreaming
	s.reading = true
	source := s.source
	s.mu.Unlock()

	s.metrics.SessionOpened()
	s.log.WithFields(logrus.Fields{
		"session_id": s.id,
		"endpoint":   s.endpoint.Name,
		"mode":       s.endpoint.Mode.String(),
	}).Info("Relay session streaming")

	go s.readLoop(conn)
	if source != nil {
		go s.captureLoop(conn, source)
	}
	go func() {
		select {
		case <-ctx.Done():
			s.closeWith(nil)
		case <-s.done:
		}
	}()

	return nil
}

// Attach binds a capture source. Frames are pushed only while Streaming and
// the source is stopped when the session closes.
func (s *Session) Attach(src FrameSource) error {
	if !s.endpoint.PushFrames {
		return ErrPushDisabled
	}

	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		src.Stop()
		return ErrNotStreaming
	case StateStreaming:
		if s.source != nil {
			s.source.Stop()
		}
		s.source = src
		conn := s.conn
		s.mu.Unlock()
		go s.captureLoop(conn, src)
		return nil
	default:
		if s.source != nil {
			s.source.Stop()
		}
		s.source = src
		s.mu.Unlock()
		return nil
	}
}

// Close tears the session down immediately. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeWith(nil)
	return nil
}

func (s *Session) closeWith(cause error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	wasStreaming := s.state == StateStreaming
	s.state = StateClosed
	s.err = cause

	conn := s.conn
	s.conn = nil
	source := s.source
	s.source = nil
	reading := s.reading
	s.mu.Unlock()

	if source != nil {
		source.Stop()
	}
	if conn != nil {
		s.writeMu.Lock()
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()
		conn.Close()
	}
	close(s.done)

	// The read loop owns the frames channel once it has been started.
	if !reading {
		close(s.frames)
	}

	if wasStreaming {
		s.metrics.SessionClosed()
	}

	entry := s.log.WithFields(logrus.Fields{
		"session_id": s.id,
		"endpoint":   s.endpoint.Name,
	})
	if cause != nil {
		entry.WithField("error", cause.Error()).Warn("Relay session closed with error")
	} else {
		entry.Info("Relay session closed")
	}
}

func (s *Session) readLoop(conn *websocket.Conn) {
	defer close(s.frames)

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if s.State() == StateClosed {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.closeWith(nil)
			} else {
				s.closeWith(fmt.Errorf("relay read failed: %w", err))
			}
			return
		}

		if messageType != websocket.TextMessage {
			s.log.WithField("session_id", s.id).Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		s.metrics.FrameIn(s.endpoint.Name)

		frame, err := DecodeFrame(s.endpoint.Mode, message)
		if err != nil {
			frame = entity.StreamFrame{Kind: entity.FrameError, Message: err.Error()}
		} else if frame.Image != "" {
			if err := s.surface.Draw(frame.Image); err != nil {
				s.log.WithFields(logrus.Fields{
					"session_id": s.id,
					"error":      err.Error(),
				}).Debug("Failed to draw relay frame")
			} else {
				frame.Width, frame.Height = s.surface.Size()
			}
		}

		s.deliver(frame)
	}
}

// deliver drops the frame when the consumer is behind; there is no backpressure upstream.
func (s *Session) deliver(frame entity.StreamFrame) {
	select {
	case <-s.done:
	case s.frames <- frame:
	default:
		s.metrics.FrameDropped(s.endpoint.Name)
	}
}

func (s *Session) captureLoop(conn *websocket.Conn, src FrameSource) {
	for {
		select {
		case <-s.done:
			return
		case frame, ok := <-src.Frames():
			if !ok {
				return
			}
			if s.limiter != nil && !s.limiter.Allow() {
				s.metrics.FrameDropped(s.endpoint.Name)
				continue
			}
			if err := s.write(conn, frame); err != nil {
				s.closeWith(fmt.Errorf("relay write failed: %w", err))
				return
			}
			s.metrics.FrameOut(s.endpoint.Name)
		}
	}
}

func (s *Session) write(conn *websocket.Conn, frame string) error {
	if !strings.HasPrefix(frame, "data:") {
		frame = render.DataURL(frame)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(frame))
}
