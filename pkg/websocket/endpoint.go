package websocketPkg

import (
	"fmt"
	"strings"

	"HelmetGuard/internal/entity"
	"HelmetGuard/pkg/render"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PayloadMode declares how an endpoint frames its messages. Backend builds
// disagree on this, so it is configured per endpoint and never sniffed.
type PayloadMode int

const (
	PayloadBase64 PayloadMode = iota
	PayloadJSON
)

func (m PayloadMode) String() string {
	switch m {
	case PayloadBase64:
		return "base64"
	case PayloadJSON:
		return "json"
	default:
		return "unknown"
	}
}

func ParsePayloadMode(s string) (PayloadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base64", "raw":
		return PayloadBase64, nil
	case "json":
		return PayloadJSON, nil
	default:
		return PayloadBase64, fmt.Errorf("unknown payload mode: %q", s)
	}
}

type Endpoint struct {
	Name string
	Path string
	Mode PayloadMode
	// PushFrames endpoints expect captured frames from the client; the others only listen.
	PushFrames bool
}

func DefaultEndpoints() map[string]Endpoint {
	return map[string]Endpoint{
		"detect": {Name: "detect", Path: "/ws", Mode: PayloadJSON, PushFrames: true},
		"stream": {Name: "stream", Path: "/ws/stream", Mode: PayloadBase64},
		"webcam": {Name: "webcam", Path: "/ws/webcam", Mode: PayloadBase64},
		"cctv":   {Name: "cctv", Path: "/ws/cctv", Mode: PayloadBase64},
	}
}

// DecodeFrame turns one inbound text message into a StreamFrame according to mode.
func DecodeFrame(mode PayloadMode, msg []byte) (entity.StreamFrame, error) {
	switch mode {
	case PayloadBase64:
		payload := render.StripDataURL(strings.TrimSpace(string(msg)))
		if payload == "" {
			return entity.StreamFrame{}, render.ErrEmptyPayload
		}
		return entity.StreamFrame{Kind: entity.FrameImage, Image: payload}, nil

	case PayloadJSON:
		var env entity.StreamEnvelope
		if err := json.Unmarshal(msg, &env); err != nil {
			return entity.StreamFrame{}, fmt.Errorf("invalid stream envelope: %w", err)
		}
		if env.Error != "" {
			return entity.StreamFrame{Kind: entity.FrameError, Message: env.Error}, nil
		}
		if env.Alert {
			return entity.StreamFrame{Kind: entity.FrameAlert, Message: env.Message}, nil
		}

		result := env.DetectionResult
		result.Normalize()
		return entity.StreamFrame{
			Kind:   entity.FrameResult,
			Image:  render.StripDataURL(result.Image),
			Result: &result,
		}, nil

	default:
		return entity.StreamFrame{}, fmt.Errorf("unsupported payload mode %d", mode)
	}
}
