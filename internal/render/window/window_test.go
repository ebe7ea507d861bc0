package window

import (
	"testing"

	"github.com/olivier-w/spectra/internal/visualizer"
)

type stubLoop struct {
	ticks   int
	toggles int
	w, h    int
	resizes int
}

func (l *stubLoop) Tick() bool    { l.ticks++; return true }
func (l *stubLoop) Toggle() error { l.toggles++; return nil }
func (l *stubLoop) Resize(w, h int) {
	l.resizes++
	l.w, l.h = w, h
}

func TestRendererCopiesSet(t *testing.T) {
	r := NewRenderer(ModeBars, 10)
	set := visualizer.ParameterSet{{Intensity: 4}, {Intensity: 2}}
	if err := r.Render(set); err != nil {
		t.Fatalf("Render: %v", err)
	}
	set[0].Intensity = 9
	if r.set[0].Intensity != 4 {
		t.Fatalf("expected renderer to keep its own copy, got %v", r.set[0].Intensity)
	}
}

func TestLayoutForwardsResizeOnce(t *testing.T) {
	loop := &stubLoop{}
	g := NewGame(loop, NewRenderer(ModeCubes, 10))

	for range 3 {
		w, h := g.Layout(800, 600)
		if w != 800 || h != 600 {
			t.Fatalf("expected layout 800x600, got %dx%d", w, h)
		}
	}
	if loop.resizes != 1 || loop.w != 800 || loop.h != 600 {
		t.Fatalf("expected a single resize to 800x600, got %+v", loop)
	}

	g.Layout(1024, 768)
	if loop.resizes != 2 {
		t.Fatalf("expected resize on size change, got %d", loop.resizes)
	}
}
