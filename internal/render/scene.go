package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/olivier-w/spectra/internal/visualizer"
)

// Scene constants: a row of unit cubes spaced 1.5 apart, resting one unit
// above a grey ground plane, seen from a fixed perspective camera.
const (
	cubeSpacing = 1.5
	cubeBase    = -1.0
	groundY     = -2.0
	groundHalf  = 50.0
	fovDegrees  = 75.0
	topLighten  = 0.35
)

var (
	cameraPos    = r3.Vec{X: 0, Y: 5, Z: 10}
	cameraTarget = r3.Vec{}
	groundColor  = colorful.Color{R: 128.0 / 255, G: 128.0 / 255, B: 128.0 / 255}
	white        = colorful.Color{R: 1, G: 1, B: 1}
)

func vec(x, y, z float64) r3.Vec { return r3.Vec{X: x, Y: y, Z: z} }

// camera is a look-at perspective camera with a vertical field of view.
type camera struct {
	pos, right, up, forward r3.Vec
	tanHalf                 float64
}

func newCamera(pos, target r3.Vec, fov float64) camera {
	f := r3.Unit(r3.Sub(target, pos))
	r := r3.Unit(r3.Cross(f, r3.Vec{Y: 1}))
	return camera{
		pos:     pos,
		forward: f,
		right:   r,
		up:      r3.Cross(r, f),
		tanHalf: math.Tan(fov * math.Pi / 360),
	}
}

// project maps a world point onto a width x height surface. Points at or
// behind the camera report false.
func (c camera) project(p r3.Vec, width, height float64) (Point, bool) {
	d := r3.Sub(p, c.pos)
	depth := r3.Dot(d, c.forward)
	if depth <= 1e-6 {
		return Point{}, false
	}
	aspect := width / height
	nx := r3.Dot(d, c.right) / (depth * c.tanHalf * aspect)
	ny := r3.Dot(d, c.up) / (depth * c.tanHalf)
	return Point{X: (nx + 1) / 2 * width, Y: (1 - ny) / 2 * height}, true
}

func (c camera) quad(corners [4]r3.Vec, col colorful.Color, width, height float64) (Face, bool) {
	f := Face{Color: col}
	for i, v := range corners {
		p, ok := c.project(v, width, height)
		if !ok {
			return Face{}, false
		}
		f.Points[i] = p
	}
	return f, true
}

var sceneCamera = newCamera(cameraPos, cameraTarget, fovDegrees)

// CubeTransform places cube index out of count: centred on the row, its
// height equal to the intensity and its base fixed at y = -1.
func CubeTransform(index, count int, intensity float64) (x, y, scaleY float64) {
	x = (float64(index) - float64(count)/2) * cubeSpacing
	scaleY = intensity
	y = scaleY/2 + cubeBase
	return x, y, scaleY
}

// CubeFaces appends the ground followed by each cube's top and front faces
// to dst, in painting order. Tops at or above eye level are not visible
// and are skipped.
func CubeFaces(dst []Face, set visualizer.ParameterSet, width, height float64) []Face {
	if width <= 0 || height <= 0 {
		return dst
	}
	cam := sceneCamera

	ground := [4]r3.Vec{
		vec(-groundHalf, groundY, -groundHalf),
		vec(groundHalf, groundY, -groundHalf),
		vec(groundHalf, groundY, cam.pos.Z),
		vec(-groundHalf, groundY, cam.pos.Z),
	}
	if f, ok := cam.quad(ground, groundColor, width, height); ok {
		dst = append(dst, f)
	}

	for i, u := range set {
		x, y, sy := CubeTransform(i, len(set), u.Intensity)
		x0, x1 := x-0.5, x+0.5
		y0, y1 := y-sy/2, y+sy/2
		front := u.Color()

		if y1 < cam.pos.Y {
			top := [4]r3.Vec{vec(x0, y1, 0.5), vec(x1, y1, 0.5), vec(x1, y1, -0.5), vec(x0, y1, -0.5)}
			if f, ok := cam.quad(top, front.BlendRgb(white, topLighten).Clamped(), width, height); ok {
				dst = append(dst, f)
			}
		}
		face := [4]r3.Vec{vec(x0, y0, 0.5), vec(x1, y0, 0.5), vec(x1, y1, 0.5), vec(x0, y1, 0.5)}
		if f, ok := cam.quad(face, front, width, height); ok {
			dst = append(dst, f)
		}
	}
	return dst
}
