package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/spectra/internal/visualizer"
)

var barGlyphs = []rune(" ▁▂▃▄▅▆▇█")

// Bars draws a 2D spectrum with eighth-block glyphs, one column group per
// unit, each in its unit's colour.
type Bars struct {
	maxIntensity  float64
	width, height int
	styles        styleCache
	view          string
}

// NewBars returns a bar renderer normalised to maxIntensity.
func NewBars(maxIntensity float64) *Bars {
	return &Bars{maxIntensity: maxIntensity, width: 80, height: 16}
}

func (b *Bars) Resize(width, height int) {
	b.width, b.height = width, height
}

func (b *Bars) View() string { return b.view }

func (b *Bars) Render(set visualizer.ParameterSet) error {
	if len(set) == 0 || b.width <= 0 || b.height <= 0 || b.maxIntensity <= 0 {
		b.view = ""
		return nil
	}

	colWidth := max(b.width/len(set), 1)
	gap := 0
	if colWidth > 2 {
		gap = 1
	}
	visible := min(len(set), b.width/colWidth)

	levels := make([]float64, visible)
	for i := range visible {
		levels[i] = min(set[i].Intensity/b.maxIntensity, 1) * float64(b.height)
	}

	rows := make([]string, b.height)
	for row := range b.height {
		var line strings.Builder
		fromBottom := float64(b.height - 1 - row)
		for i := range visible {
			glyph := barGlyph(levels[i], fromBottom)
			cell := strings.Repeat(string(glyph), colWidth-gap)
			if glyph == ' ' {
				line.WriteString(cell)
			} else {
				line.WriteString(b.styles.fg(set[i].Hex()).Render(cell))
			}
			if gap > 0 {
				line.WriteByte(' ')
			}
		}
		rows[row] = line.String()
	}
	b.view = strings.Join(rows, "\n")
	return nil
}

// barGlyph picks the glyph for the cell fromBottom rows above the base of a
// bar that is level rows tall.
func barGlyph(level, fromBottom float64) rune {
	switch {
	case level >= fromBottom+1:
		return barGlyphs[len(barGlyphs)-1]
	case level > fromBottom:
		return barGlyphs[int((level-fromBottom)*float64(len(barGlyphs)-1))]
	default:
		return barGlyphs[0]
	}
}

// maxCachedStyles bounds a styleCache. Cube shading and anti-aliased edges
// produce new colour pairs every frame, so the cache starts over once full.
const maxCachedStyles = 1024

// styleCache keeps one lipgloss style per colour pair.
type styleCache map[[2]string]lipgloss.Style

func (c *styleCache) get(fg, bg string) lipgloss.Style {
	if *c == nil {
		*c = make(styleCache)
	}
	key := [2]string{fg, bg}
	if s, ok := (*c)[key]; ok {
		return s
	}
	if len(*c) >= maxCachedStyles {
		clear(*c)
	}
	s := lipgloss.NewStyle()
	if fg != "" {
		s = s.Foreground(lipgloss.Color(fg))
	}
	if bg != "" {
		s = s.Background(lipgloss.Color(bg))
	}
	(*c)[key] = s
	return s
}

func (c *styleCache) fg(hex string) lipgloss.Style { return c.get(hex, "") }
