package visualizer

import colorful "github.com/lucasb-eyer/go-colorful"

// Snapshot is one frame of frequency magnitudes, one byte per bin.
// The analyzer that produced it overwrites it on the next tick.
type Snapshot []uint8

// Unit is the visual state of one bar or cube.
type Unit struct {
	Intensity  float64 // height, never below the mapper floor
	Hue        float64 // degrees in [0,360)
	Saturation float64 // [0,1]
	Lightness  float64 // [0,1]
}

// Color returns the unit's HSL colour as RGB.
func (u Unit) Color() colorful.Color {
	return colorful.Hsl(u.Hue, clamp01(u.Saturation), clamp01(u.Lightness)).Clamped()
}

// Hex returns the unit colour as "#rrggbb".
func (u Unit) Hex() string {
	return u.Color().Hex()
}

// ParameterSet holds one Unit per visual element, in spectrum order.
type ParameterSet []Unit

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
