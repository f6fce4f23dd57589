// Package spectrum maps scalar performance values onto terminal color pairs.
package spectrum

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorPair is a background plus a readable foreground for one cell.
type ColorPair struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
}

// Spectrum maps values from a bounded domain onto a purple-white-red
// gradient. The first domain endpoint saturates to purple (best), the
// second to red (worst), with white at the arithmetic middle. Values
// outside the domain clamp to the end colors; Map never fails.
type Spectrum struct {
	from float64
	to   float64
}

var (
	colorBest  = mustHex("#800080")
	colorMid   = mustHex("#FFFFFF")
	colorWorst = mustHex("#FF0000")
)

// New returns a spectrum over the given domain. The domain may run in
// either direction; from is always the purple end.
func New(from, to float64) Spectrum {
	return Spectrum{from: from, to: to}
}

// Absolute returns a spectrum over raw latency milliseconds, purple at or
// below fastMs and red at or above slowMs. Fixed breakpoints keep the
// coloring comparable across sessions.
func Absolute(fastMs, slowMs float64) Spectrum {
	return New(fastMs, slowMs)
}

// Relative returns a spectrum over the normalized 0-100 heat scale, purple
// at 100 (fastest) and red at 0 (slowest).
func Relative() Spectrum {
	return New(100, 0)
}

// Map converts a value to its color pair. Pure and total: out-of-domain
// values saturate, a degenerate domain maps everything to the midpoint.
func (s Spectrum) Map(value float64) ColorPair {
	span := s.to - s.from
	t := 0.5
	if span != 0 {
		t = (value - s.from) / span
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	var c colorful.Color
	if t <= 0.5 {
		c = colorBest.BlendRgb(colorMid, t*2)
	} else {
		c = colorMid.BlendRgb(colorWorst, (t-0.5)*2)
	}
	return ColorPair{
		Background: lipgloss.Color(c.Hex()),
		Foreground: contrastFor(c),
	}
}

// HeatValue normalizes a latency to the 0-100 heat scale: at or below
// fastMs yields 100, at or above slowMs yields 0, linear in between.
func HeatValue(latencyMs, fastMs, slowMs float64) float64 {
	if slowMs <= fastMs {
		return 100
	}
	if latencyMs <= fastMs {
		return 100
	}
	if latencyMs >= slowMs {
		return 0
	}
	return 100 * (slowMs - latencyMs) / (slowMs - fastMs)
}

// contrastFor picks black or white text by perceived brightness.
func contrastFor(c colorful.Color) lipgloss.Color {
	r, g, b := c.RGB255()
	brightness := (float64(r)*299 + float64(g)*587 + float64(b)*114) / 1000
	if brightness > 128 {
		return lipgloss.Color("#000000")
	}
	return lipgloss.Color("#FFFFFF")
}

func mustHex(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		panic(err)
	}
	return c
}
