package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	hueStart = 236.0 // blue at take-off
	hueEnd   = 0.0   // red at landing
)

// pathColor returns the stroke colour at position t in [0, 1] along the
// rendered path.
func pathColor(t float64) color.Color {
	t = max(0, min(t, 1))
	hue := hueStart + t*(hueEnd-hueStart)
	return colorful.Hsv(hue, 1, 0.90)
}
