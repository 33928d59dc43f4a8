package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var ErrEmptyPayload = errors.New("empty image payload")

// Surface is the drawing target for annotated frames. Each Draw resizes it
// to the incoming image before painting.
type Surface struct {
	mu     sync.RWMutex
	width  int
	height int
	frame  *image.RGBA
	format string
	draws  uint64
}

func NewSurface() *Surface {
	return &Surface{}
}

func (s *Surface) Draw(payload string) error {
	img, format, err := DecodeImage(payload)
	if err != nil {
		return err
	}

	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)

	s.mu.Lock()
	s.width = b.Dx()
	s.height = b.Dy()
	s.frame = canvas
	s.format = format
	s.draws++
	s.mu.Unlock()

	return nil
}

func (s *Surface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

func (s *Surface) Format() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.format
}

func (s *Surface) Draws() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draws
}

func (s *Surface) Frame() image.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frame == nil {
		return nil
	}
	return s.frame
}

func (s *Surface) Clear() {
	s.mu.Lock()
	s.width, s.height = 0, 0
	s.frame = nil
	s.format = ""
	s.mu.Unlock()
}

// DecodeImage accepts raw base64 or a data URL and decodes jpeg, png or webp.
func DecodeImage(payload string) (image.Image, string, error) {
	raw, err := DecodePayload(payload)
	if err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	return img, format, nil
}

func DecodePayload(payload string) ([]byte, error) {
	payload = StripDataURL(strings.TrimSpace(payload))
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload: %w", err)
		}
	}

	return raw, nil
}

func StripDataURL(payload string) string {
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if i := strings.Index(payload, ","); i >= 0 {
		return payload[i+1:]
	}
	return ""
}

// DataURL wraps a base64 jpeg the way the demo page embeds it.
func DataURL(b64 string) string {
	if b64 == "" || strings.HasPrefix(b64, "data:") {
		return b64
	}
	return "data:image/jpeg;base64," + b64
}

// Thumbnail scales the payload to fit within maxW x maxH and returns base64 jpeg.
func Thumbnail(payload string, maxW, maxH int) (string, error) {
	img, _, err := DecodeImage(payload)
	if err != nil {
		return "", err
	}

	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxW, maxH)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}

	ratio := float64(w) / float64(h)
	if float64(maxW)/float64(maxH) < ratio {
		return maxW, max(1, int(float64(maxW)/ratio))
	}
	return max(1, int(float64(maxH)*ratio)), maxH
}
