package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

const (
	MinWidth      = 120
	MaxWidth      = 2000
	MinHeight     = 100
	MaxHeight     = 1200
	DefaultWidth  = 800
	DefaultHeight = 300

	padLeft   = 40.0
	padRight  = 20.0
	padTop    = 20.0
	padBottom = 30.0
)

var (
	ErrNoData         = errors.New("chart has no data points")
	ErrSeriesMismatch = errors.New("series length does not match labels")
)

type Series struct {
	Name   string
	Values []float64
	Color  string
	Fill   bool
}

type LineChart struct {
	Labels []string
	Series []Series
}

// ClampSize keeps a requested canvas size inside the drawable range.
// Zero means "use the default".
func ClampSize(width, height int) (int, int) {
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	return clamp(width, MinWidth, MaxWidth), clamp(height, MinHeight, MaxHeight)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Render draws the chart for the given size and returns PNG bytes. The
// layout is recomputed from scratch for every size.
func Render(c LineChart, width, height int) ([]byte, error) {
	if len(c.Labels) == 0 || len(c.Series) == 0 {
		return nil, ErrNoData
	}
	for _, s := range c.Series {
		if len(s.Values) != len(c.Labels) {
			return nil, fmt.Errorf("%w: %s has %d values for %d labels", ErrSeriesMismatch, s.Name, len(s.Values), len(c.Labels))
		}
	}

	width, height = ClampSize(width, height)
	w, h := float64(width), float64(height)

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	xAt := func(i int) float64 {
		if len(c.Labels) == 1 {
			return padLeft + (w-padLeft-padRight)/2
		}
		return padLeft + float64(i)*((w-padLeft-padRight)/float64(len(c.Labels)-1))
	}

	maxValue := 0.0
	for _, s := range c.Series {
		for _, v := range s.Values {
			if v > maxValue {
				maxValue = v
			}
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}
	yAt := func(v float64) float64 {
		return h - padBottom - (v/maxValue)*(h-padBottom-padTop)
	}

	// grid
	dc.SetHexColor("#e5e7eb")
	dc.SetLineWidth(1)
	for i := 0; i <= 4; i++ {
		y := h - float64(i)*(h-padBottom-padTop)/4 - padBottom
		dc.DrawLine(padLeft, y, w-padRight, y)
	}
	for i := range c.Labels {
		x := xAt(i)
		dc.DrawLine(x, padTop, x, h-padBottom)
	}
	dc.Stroke()

	dc.SetHexColor("#6b7280")
	for i, label := range c.Labels {
		dc.DrawStringAnchored(label, xAt(i), h-10, 0.5, 0)
	}

	for _, s := range c.Series {
		if !s.Fill {
			continue
		}
		dc.MoveTo(xAt(0), h-padBottom)
		for i, v := range s.Values {
			dc.LineTo(xAt(i), yAt(v))
		}
		dc.LineTo(xAt(len(s.Values)-1), h-padBottom)
		dc.ClosePath()
		r, g, b := hexRGB(s.Color)
		dc.SetRGBA255(r, g, b, 51)
		dc.Fill()
	}

	for _, s := range c.Series {
		dc.SetHexColor(s.Color)
		dc.SetLineWidth(2)
		for i, v := range s.Values {
			if i == 0 {
				dc.MoveTo(xAt(i), yAt(v))
			} else {
				dc.LineTo(xAt(i), yAt(v))
			}
		}
		dc.Stroke()
	}

	drawLegend(dc, c.Series, padLeft+10, padTop+4)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func drawLegend(dc *gg.Context, series []Series, x, y float64) {
	for _, s := range series {
		dc.SetHexColor(s.Color)
		dc.DrawRectangle(x, y, 12, 12)
		dc.Fill()

		dc.SetHexColor("#374151")
		dc.DrawStringAnchored(s.Name, x+18, y+6, 0, 0.5)

		tw, _ := dc.MeasureString(s.Name)
		x += 18 + tw + 20
	}
}

func hexRGB(hex string) (int, int, int) {
	var r, g, b int
	if len(hex) == 7 && hex[0] == '#' {
		if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err == nil {
			return r, g, b
		}
	}
	return 0, 0, 0
}
