// Package window shows the visualization in a desktop window. ebiten's
// Update drives the frame loop, so ticks follow the window's refresh.
package window

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/olivier-w/spectra/internal/log"
	"github.com/olivier-w/spectra/internal/render"
	"github.com/olivier-w/spectra/internal/visualizer"
)

// Mode selects the layout drawn each frame.
type Mode uint8

const (
	ModeCubes Mode = iota
	ModeBars
)

// Loop is the part of the orchestration loop the window drives.
type Loop interface {
	Tick() bool
	Toggle() error
	Resize(width, height int)
}

// errQuit ends RunGame without reporting a failure.
var errQuit = errors.New("window closed")

var background = color.RGBA{A: 0xff}

var (
	whiteOnce     sync.Once
	whiteSubImage *ebiten.Image
)

// solid returns a one-pixel white source image for DrawTriangles.
func solid() *ebiten.Image {
	whiteOnce.Do(func() {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	})
	return whiteSubImage
}

// Renderer keeps the most recent parameter set and draws it on the next
// ebiten Draw.
type Renderer struct {
	mode          Mode
	maxIntensity  float64
	width, height int
	set           visualizer.ParameterSet
	rects         []render.Rect
	faces         []render.Face
	vertices      []ebiten.Vertex
	indices       []uint16
}

func NewRenderer(mode Mode, maxIntensity float64) *Renderer {
	return &Renderer{mode: mode, maxIntensity: maxIntensity, width: 960, height: 540}
}

// Render copies set so the mapper may reuse its buffer.
func (r *Renderer) Render(set visualizer.ParameterSet) error {
	r.set = append(r.set[:0], set...)
	return nil
}

func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
}

func (r *Renderer) draw(screen *ebiten.Image) {
	screen.Fill(background)
	w, h := float64(r.width), float64(r.height)

	switch r.mode {
	case ModeBars:
		r.rects = render.BarRects(r.rects[:0], r.set, r.maxIntensity, w, h)
		for _, rc := range r.rects {
			vector.DrawFilledRect(screen, float32(rc.X), float32(rc.Y), float32(rc.W), float32(rc.H), rc.Color, true)
		}
	default:
		r.faces = render.CubeFaces(r.faces[:0], r.set, w, h)
		for _, f := range r.faces {
			r.fillFace(screen, f)
		}
	}
}

func (r *Renderer) fillFace(screen *ebiten.Image, f render.Face) {
	var path vector.Path
	path.MoveTo(float32(f.Points[0].X), float32(f.Points[0].Y))
	for _, p := range f.Points[1:] {
		path.LineTo(float32(p.X), float32(p.Y))
	}
	path.Close()

	r.vertices, r.indices = path.AppendVerticesAndIndicesForFilling(r.vertices[:0], r.indices[:0])
	cr, cg, cb := f.Color.Clamped().RGB255()
	for i := range r.vertices {
		r.vertices[i].SrcX = 1
		r.vertices[i].SrcY = 1
		r.vertices[i].ColorR = float32(cr) / 0xff
		r.vertices[i].ColorG = float32(cg) / 0xff
		r.vertices[i].ColorB = float32(cb) / 0xff
		r.vertices[i].ColorA = 1
	}
	screen.DrawTriangles(r.vertices, r.indices, solid(), &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

// Game adapts a Loop and Renderer to ebiten.Game.
type Game struct {
	loop     Loop
	renderer *Renderer
	lastW    int
	lastH    int
}

func NewGame(loop Loop, r *Renderer) *Game {
	return &Game{loop: loop, renderer: r}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if err := g.loop.Toggle(); err != nil {
			log.Warnf("window: toggle: %v", err)
		}
	}
	g.loop.Tick()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.lastW || outsideHeight != g.lastH {
		g.lastW, g.lastH = outsideWidth, outsideHeight
		g.loop.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it is closed or q is pressed.
func Run(g *Game, title string, width, height, fps int) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(fps)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}
