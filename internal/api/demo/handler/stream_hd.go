package demoHandler

import (
	"context"
	"time"

	"HelmetGuard/internal/entity"
	"HelmetGuard/internal/middleware"
	contextPkg "HelmetGuard/pkg/context"
	"HelmetGuard/pkg/log"
	websocketPkg "HelmetGuard/pkg/websocket"

	"github.com/gofiber/websocket/v2"
)

// handleRelay bridges one browser socket to one backend relay session.
// Browser text messages are captured frames; backend frames go back as JSON.
func (h *DemoHandler) handleRelay(c *websocket.Conn) {
	name := c.Params("endpoint")
	sessionID, _ := c.Locals(middleware.SessionIDKey).(string)
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)

	fields := log.Fields{
		"request_id": requestID,
		"session_id": sessionID,
		"endpoint":   name,
	}
	h.log.WithFields(fields).Info("Stream client connected")
	defer h.log.WithFields(fields).Info("Stream client disconnected")

	ctx, cancel := context.WithCancel(contextPkg.WithSessionID(contextPkg.WithRequestID(context.Background(), requestID), sessionID))
	defer cancel()

	ep, _ := h.demoService.Endpoint(name)

	var src websocketPkg.FrameSource
	var push *websocketPkg.PushSource
	if ep.PushFrames {
		push = websocketPkg.NewPushSource()
		src = push
	}

	session, err := h.demoService.OpenStream(ctx, sessionID, name, src)
	if err != nil {
		h.writeFrame(c, entity.StreamFrame{Kind: entity.FrameError, Message: err.Error()})
		h.writeFrame(c, entity.StreamFrame{Kind: entity.FrameClosed})
		return
	}
	defer session.Close()

	go func() {
		defer cancel()
		for {
			messageType, message, err := c.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.TextMessage {
				h.log.WithFields(fields).Warnf("Received unexpected message type: %d", messageType)
				continue
			}
			if push != nil {
				push.Push(string(message))
			}
		}
	}()

	for frame := range session.Frames() {
		if err := h.writeFrame(c, frame); err != nil {
			session.Close()
			break
		}
	}

	closed := entity.StreamFrame{Kind: entity.FrameClosed}
	if err := session.Err(); err != nil {
		closed.Message = err.Error()
	}
	h.writeFrame(c, closed)
}

func (h *DemoHandler) writeFrame(c *websocket.Conn, frame entity.StreamFrame) error {
	if err := c.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	if err := c.WriteJSON(frame); err != nil {
		h.log.Debugf("Error writing stream frame: %v", err)
		return err
	}
	return nil
}
