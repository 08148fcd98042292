package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

// Hex renders the color as #RRGGBB with uppercase digits.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHex parses #RRGGBB.
func ParseHex(s string) (RGB, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(v) != 6 {
		return RGB{}, fmt.Errorf("color %q is not #RRGGBB", s)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q is not #RRGGBB: %w", s, err)
	}
	return RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

// Palette holds the highlight color and the gradient anchors used for ranked bars.
type Palette struct {
	Highlight RGB
	Start     RGB
	End       RGB
}

// DefaultPalette is red for the top station followed by deep blue fading to pale sky blue.
var DefaultPalette = Palette{
	Highlight: RGB{R: 0xFF},
	Start:     RGB{R: 0, G: 90, B: 255},
	End:       RGB{R: 180, G: 220, B: 255},
}

// Gradient returns n colors interpolated per channel from start to end.
// Channels are truncated toward zero. A single color is the start anchor.
func Gradient(n int, start, end RGB) []string {
	if n <= 0 {
		return []string{}
	}

	colors := make([]string, n)
	for i := 0; i < n; i++ {
		ratio := 0.0
		if n > 1 {
			ratio = float64(i) / float64(n-1)
		}
		colors[i] = RGB{
			R: lerp(start.R, end.R, ratio),
			G: lerp(start.G, end.G, ratio),
			B: lerp(start.B, end.B, ratio),
		}.Hex()
	}
	return colors
}

func lerp(a, b uint8, ratio float64) uint8 {
	return uint8(int(float64(a) + (float64(b)-float64(a))*ratio))
}

// Assign returns n colors for n ranked entries: the highlight for rank 0 and
// the gradient over the remaining n-1 ranks. Only n matters, never the values.
func (p Palette) Assign(n int) []string {
	if n <= 0 {
		return []string{}
	}
	return append([]string{p.Highlight.Hex()}, Gradient(n-1, p.Start, p.End)...)
}

// AssignColors applies DefaultPalette.
func AssignColors(n int) []string {
	return DefaultPalette.Assign(n)
}
