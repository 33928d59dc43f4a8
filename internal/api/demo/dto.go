package demo

import (
	"strings"

	"HelmetGuard/internal/entity"
	"HelmetGuard/internal/views"
	"HelmetGuard/pkg/content"
)

const (
	TabImage  = "image"
	TabVideo  = "video"
	TabWebcam = "webcam"
	TabStream = "stream"
)

// DetectionSummary is what the demo page shows next to an annotated image.
type DetectionSummary struct {
	HelmetCount   int    `json:"helmet_count"`
	NoHelmetCount int    `json:"no_helmet_count"`
	Warning       string `json:"warning,omitempty"`
	ShowWarning   bool   `json:"show_warning"`
	SafeNotice    string `json:"safe_notice,omitempty"`
}

// NewSummary counts helmet results. The warning banner is shown only when the
// backend warning starts with warningPrefix; a warning starting with
// safePrefix becomes a safe notice instead.
func NewSummary(result *entity.DetectionResult, warningPrefix, safePrefix string) *DetectionSummary {
	if result == nil {
		return nil
	}

	summary := &DetectionSummary{
		HelmetCount:   result.CountStatus(entity.HelmetStatus),
		NoHelmetCount: result.CountStatus(entity.NoHelmetStatus),
		Warning:       result.Warning,
	}

	// The prefix must lead the raw text; " 경고" is not a warning.
	switch warning := result.Warning; {
	case warning == "":
	case warningPrefix != "" && strings.HasPrefix(warning, warningPrefix):
		summary.ShowWarning = true
	case safePrefix != "" && strings.HasPrefix(warning, safePrefix):
		summary.SafeNotice = warning
	}

	return summary
}

type DetectResponse struct {
	Result  *entity.DetectionResult `json:"result"`
	Summary *DetectionSummary       `json:"summary"`
}

type PageQuery struct {
	Tab string `query:"tab" validate:"omitempty,oneof=image video webcam stream"`
}

type StreamParams struct {
	Endpoint string `params:"endpoint" validate:"required,alphanum,max=32"`
}

type Tab struct {
	Name  string
	Label string
}

func Tabs() []Tab {
	return []Tab{
		{Name: TabImage, Label: "이미지"},
		{Name: TabVideo, Label: "영상"},
		{Name: TabWebcam, Label: "웹캠"},
		{Name: TabStream, Label: "스트림"},
	}
}

// StreamView wires a stream tab to its relay socket.
type StreamView struct {
	Socket string
	Push   bool
}

type DemoPage struct {
	views.Page
	Demo    content.Demo
	Tabs    []Tab
	Tab     string
	Error   string
	Result  *entity.DetectionResult
	Summary *DetectionSummary
	Stream  *StreamView
}
