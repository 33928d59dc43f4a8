package websocketPkg

import (
	"sync"
)

// FrameSource feeds captured frames (data URLs) into a streaming session.
// Stop releases the capture; after Stop the Frames channel is closed.
type FrameSource interface {
	Frames() <-chan string
	Stop()
	Active() bool
}

// PushSource is a FrameSource fed by the caller, typically frames the browser
// captured from its camera. Push never blocks: a frame is dropped when the
// previous one has not been consumed yet.
type PushSource struct {
	mu      sync.Mutex
	frames  chan string
	stopped bool
}

func NewPushSource() *PushSource {
	return &PushSource{frames: make(chan string, 1)}
}

func (p *PushSource) Push(frame string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return false
	}

	select {
	case p.frames <- frame:
		return true
	default:
		return false
	}
}

func (p *PushSource) Frames() <-chan string {
	return p.frames
}

func (p *PushSource) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	close(p.frames)
}

func (p *PushSource) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.stopped
}
