// Package render draws parameter sets. The terminal renderers produce a
// string for a bubbletea view; the layout helpers are shared with the
// desktop window renderer.
package render

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/olivier-w/spectra/internal/visualizer"
)

// Renderer draws one parameter set per frame. Resize changes the drawing
// surface and never affects mapping.
type Renderer interface {
	Render(visualizer.ParameterSet) error
	Resize(width, height int)
}

type Point struct{ X, Y float64 }

// Rect is an axis-aligned screen rectangle, Y growing downward.
type Rect struct {
	X, Y, W, H float64
	Color      colorful.Color
}

// Face is a projected convex quad.
type Face struct {
	Points [4]Point
	Color  colorful.Color
}

// Bounds returns the quad's bounding box.
func (f Face) Bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = f.Points[0].X, f.Points[0].Y
	maxX, maxY = minX, minY
	for _, p := range f.Points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	return
}

const barGap = 0.2 // fraction of a slot left empty between bars

// BarRects appends one rectangle per unit to dst. Units share the width
// evenly and grow up from the bottom edge in proportion to
// Intensity/maxIntensity, capped at the full height.
func BarRects(dst []Rect, set visualizer.ParameterSet, maxIntensity, width, height float64) []Rect {
	if len(set) == 0 || width <= 0 || height <= 0 || maxIntensity <= 0 {
		return dst
	}
	slot := width / float64(len(set))
	w := slot * (1 - barGap)
	for i, u := range set {
		h := min(u.Intensity/maxIntensity, 1) * height
		dst = append(dst, Rect{
			X:     float64(i)*slot + (slot-w)/2,
			Y:     height - h,
			W:     w,
			H:     h,
			Color: u.Color(),
		})
	}
	return dst
}
