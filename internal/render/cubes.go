package render

import (
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"

	"github.com/olivier-w/spectra/internal/visualizer"
)

// Pixels with less coverage than this show the terminal background.
const coverageCutoff = 0x80

// Cubes draws the 3D cube row into the terminal. Faces are filled into an
// RGBA image two pixels per character cell tall, then each pair of pixel
// rows becomes one row of upper half blocks, so pixels are roughly square.
type Cubes struct {
	width, height int
	faces         []Face
	img           *image.RGBA
	raster        *vector.Rasterizer
	styles        styleCache
	view          string
}

func NewCubes() *Cubes {
	return &Cubes{width: 80, height: 20}
}

func (c *Cubes) Resize(width, height int) {
	c.width, c.height = width, height
}

func (c *Cubes) View() string { return c.view }

func (c *Cubes) Render(set visualizer.ParameterSet) error {
	if c.width <= 0 || c.height <= 0 {
		c.view = ""
		return nil
	}
	pw, ph := c.width, c.height*2
	c.faces = CubeFaces(c.faces[:0], set, float64(pw), float64(ph))
	c.rasterize(pw, ph)
	c.view = c.compose()
	return nil
}

func (c *Cubes) rasterize(pw, ph int) {
	if c.img == nil || c.img.Rect.Dx() != pw || c.img.Rect.Dy() != ph {
		c.img = image.NewRGBA(image.Rect(0, 0, pw, ph))
		c.raster = vector.NewRasterizer(pw, ph)
	} else {
		clear(c.img.Pix)
	}

	for _, f := range c.faces {
		minX, minY, maxX, maxY := f.Bounds()
		if maxX < 0 || maxY < 0 || minX > float64(pw) || minY > float64(ph) {
			continue
		}
		c.raster.Reset(pw, ph)
		c.raster.MoveTo(float32(f.Points[0].X), float32(f.Points[0].Y))
		for _, p := range f.Points[1:] {
			c.raster.LineTo(float32(p.X), float32(p.Y))
		}
		c.raster.ClosePath()

		r, g, b := f.Color.Clamped().RGB255()
		src := image.NewUniform(color.RGBA{R: r, G: g, B: b, A: 0xff})
		c.raster.Draw(c.img, c.img.Bounds(), src, image.Point{})
	}
}

// compose folds pixel row pairs into half-block cells, emitting one styled
// run per stretch of identical colours.
func (c *Cubes) compose() string {
	pw := c.img.Rect.Dx()
	rows := make([]string, c.height)
	for r := range c.height {
		var line strings.Builder
		for x := 0; x < pw; {
			top, bottom := c.img.RGBAAt(x, 2*r), c.img.RGBAAt(x, 2*r+1)
			end := x + 1
			for end < pw && c.img.RGBAAt(end, 2*r) == top && c.img.RGBAAt(end, 2*r+1) == bottom {
				end++
			}
			line.WriteString(c.cell(hexOf(top), hexOf(bottom), end-x))
			x = end
		}
		rows[r] = line.String()
	}
	return strings.Join(rows, "\n")
}

func (c *Cubes) cell(top, bottom string, n int) string {
	switch {
	case top == "" && bottom == "":
		return strings.Repeat(" ", n)
	case top == "":
		return c.styles.fg(bottom).Render(strings.Repeat("▄", n))
	default:
		return c.styles.get(top, bottom).Render(strings.Repeat("▀", n))
	}
}

// hexOf returns the pixel's colour, or "" where it is mostly uncovered.
func hexOf(px color.RGBA) string {
	if px.A < coverageCutoff {
		return ""
	}
	col, ok := colorful.MakeColor(px)
	if !ok {
		return ""
	}
	return col.Hex()
}

// pixel returns the colour at pixel (x, y) of the last frame and whether
// anything was drawn there.
func (c *Cubes) pixel(x, y int) (colorful.Color, bool) {
	if c.img == nil || !(image.Point{X: x, Y: y}).In(c.img.Rect) {
		return colorful.Color{}, false
	}
	hex := hexOf(c.img.RGBAAt(x, y))
	if hex == "" {
		return colorful.Color{}, false
	}
	col, err := colorful.Hex(hex)
	return col, err == nil
}
