package entity

type FrameKind string

const (
	FrameImage  FrameKind = "frame"
	FrameResult FrameKind = "result"
	FrameAlert  FrameKind = "alert"
	FrameError  FrameKind = "error"
	FrameClosed FrameKind = "closed"
)

// StreamFrame is one inbound message from a backend stream socket.
// Image always carries the base64 payload when one is present.
type StreamFrame struct {
	Kind    FrameKind        `json:"type"`
	Image   string           `json:"image,omitempty"`
	Result  *DetectionResult `json:"result,omitempty"`
	Message string           `json:"message,omitempty"`
	Width   int              `json:"width,omitempty"`
	Height  int              `json:"height,omitempty"`
}

// StreamEnvelope is the JSON shape used by endpoints that wrap frames.
type StreamEnvelope struct {
	Alert   bool   `json:"alert"`
	Message string `json:"message"`
	Error   string `json:"error"`
	DetectionResult
}
