package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/viewport"
)

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellSMB
	cellString
	cellPanel
	cellLabel
	cellMiniFrame
	cellMiniPanel
	cellIndicator
)

var (
	smbColor       = lipgloss.Color("#8b949e")
	panelColor     = lipgloss.Color("#1f6feb")
	indicatorColor = lipgloss.Color("#f59e0b")
	mutedColor     = lipgloss.Color("#94a3b8")

	cellStyles = map[cellKind]lipgloss.Style{
		cellEmpty:     lipgloss.NewStyle(),
		cellSMB:       lipgloss.NewStyle().Foreground(smbColor),
		cellString:    lipgloss.NewStyle().Foreground(mutedColor),
		cellPanel:     lipgloss.NewStyle().Foreground(panelColor),
		cellLabel:     lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(panelColor),
		cellMiniFrame: lipgloss.NewStyle().Foreground(smbColor),
		cellMiniPanel: lipgloss.NewStyle().Foreground(panelColor),
		cellIndicator: lipgloss.NewStyle().Foreground(indicatorColor).Bold(true),
	}

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#3b82f6")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)
)

// canvas is a character grid with a style per cell
type canvas struct {
	w, h  int
	runes []rune
	kinds []cellKind
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, runes: make([]rune, w*h), kinds: make([]cellKind, w*h)}
	for i := range c.runes {
		c.runes[i] = ' '
	}
	return c
}

func (c *canvas) set(x, y int, r rune, k cellKind) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.runes[y*c.w+x] = r
	c.kinds[y*c.w+x] = k
}

func (c *canvas) fill(x0, y0, x1, y1 int, r rune, k cellKind) {
	for y := max(y0, 0); y < min(y1, c.h); y++ {
		for x := max(x0, 0); x < min(x1, c.w); x++ {
			c.set(x, y, r, k)
		}
	}
}

func (c *canvas) outline(x0, y0, x1, y1 int, k cellKind) {
	if x1-x0 < 2 || y1-y0 < 2 {
		c.fill(x0, y0, x1, y1, '▪', k)
		return
	}
	for x := x0 + 1; x < x1-1; x++ {
		c.set(x, y0, '─', k)
		c.set(x, y1-1, '─', k)
	}
	for y := y0 + 1; y < y1-1; y++ {
		c.set(x0, y, '│', k)
		c.set(x1-1, y, '│', k)
	}
	c.set(x0, y0, '┌', k)
	c.set(x1-1, y0, '┐', k)
	c.set(x0, y1-1, '└', k)
	c.set(x1-1, y1-1, '┘', k)
}

func (c *canvas) text(x, y int, s string, k cellKind) {
	for i, r := range []rune(s) {
		c.set(x+i, y, r, k)
	}
}

// String renders each row, grouping runs of equally styled cells
func (c *canvas) String() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= c.w; x++ {
			i := y*c.w + x
			if x < c.w && c.kinds[i] == c.kinds[y*c.w+start] {
				continue
			}
			run := string(c.runes[y*c.w+start : i])
			b.WriteString(cellStyles[c.kinds[y*c.w+start]].Render(run))
			start = x
		}
	}
	return b.String()
}

// cellRect converts a surface rectangle to cell bounds [x0,x1) x [y0,y1)
func cellRect(tl viewport.Position, w, h float64) (x0, y0, x1, y1 int) {
	x0 = int(math.Floor(tl.X / CellWidth))
	y0 = int(math.Floor(tl.Y / CellHeight))
	x1 = max(int(math.Ceil((tl.X+w)/CellWidth)), x0+1)
	y1 = max(int(math.Ceil((tl.Y+h)/CellHeight)), y0+1)
	return
}

// View renders the explorer
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	c := newCanvas(m.width, m.canvasRows())
	size := m.surface()
	boxes, content := m.ws.Grid().Layout(m.ws.Metrics())
	offset := viewport.Position{X: (size.W - content.W) / 2, Y: (size.H - content.H) / 2}
	t := m.ws.Viewport().State()

	for _, b := range boxes {
		tl := t.ToScreen(b.TopLeft().Add(offset), size)
		x0, y0, x1, y1 := cellRect(tl, b.W*t.Scale, b.H*t.Scale)
		switch b.Kind {
		case grid.KindSMB:
			c.outline(x0, y0, x1, y1, cellSMB)
			if len(b.Label) <= x1-x0-2 {
				c.text(x0+1, y0, b.Label, cellSMB)
			}
		case grid.KindString:
			c.fill(x0, y0, x1, y1, '·', cellString)
		case grid.KindPanel:
			c.fill(x0, y0, x1, y1, '█', cellPanel)
			if len(b.Label) <= x1-x0 {
				c.text(x0+(x1-x0-len(b.Label))/2, y0+(y1-y0-1)/2, b.Label, cellLabel)
			}
		}
	}

	if m.showMiniMap && m.ws.MiniMap().Mounted() {
		m.drawMiniMap(c, boxes, offset, t, size)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.statusLine(), c.String(), m.help.View(m.keys))
}

// drawMiniMap fits the surface into the mini-map rectangle and applies the mini-map's own
// state the way the page's CSS transform does: own pan, own zoom about the centre, then
// the projected primary offset as a fraction of the mini-map size
func (m Model) drawMiniMap(c *canvas, boxes []grid.Box, offset viewport.Position, t viewport.Transform, size viewport.Size) {
	col, row, w, h := m.miniCells()
	c.fill(col, row, col+w, row+h, ' ', cellEmpty)
	c.outline(col, row, col+w, row+h, cellMiniFrame)

	r, _ := m.ws.MiniMap().Bounds()
	st := m.ws.MiniMap().State()
	k := min(r.W/size.W, r.H/size.H)
	center := viewport.Position{X: r.W / 2, Y: r.H / 2}
	shift := viewport.Position{X: st.Position.X / 100 * r.W, Y: st.Position.Y / 100 * r.H}
	toMini := func(p viewport.Position) viewport.Position {
		q := p.Scale(k).Add(shift).Sub(center).Scale(st.Scale).Add(center).Add(st.Pan)
		return q.Add(r.TopLeft())
	}
	inside := func(x, y int) bool { return x > col && x < col+w-1 && y > row && y < row+h-1 }

	for _, b := range boxes {
		if b.Kind != grid.KindPanel {
			continue
		}
		p := toMini(b.TopLeft().Add(offset))
		x, y := int(p.X/CellWidth), int(p.Y/CellHeight)
		if inside(x, y) {
			c.set(x, y, '▪', cellMiniPanel)
		}
	}

	// Visible region of the main view
	a := toMini(t.ToSurface(viewport.Position{}, size))
	b := toMini(t.ToSurface(viewport.Position{X: size.W, Y: size.H}, size))
	x0, y0, x1, y1 := cellRect(a, b.X-a.X, b.Y-a.Y)
	for x := x0; x < x1; x++ {
		for _, y := range []int{y0, y1 - 1} {
			if inside(x, y) {
				c.set(x, y, '┄', cellIndicator)
			}
		}
	}
	for y := y0; y < y1; y++ {
		for _, x := range []int{x0, x1 - 1} {
			if inside(x, y) {
				c.set(x, y, '┆', cellIndicator)
			}
		}
	}
}

func (m Model) statusLine() string {
	st := m.ws.State()
	zoom := statusStyle.Render(fmt.Sprintf("%d%%", int(math.Round(st.Transform.Scale*100))))
	info := infoStyle.Render(fmt.Sprintf("layout %s  offset %s  %s",
		st.Layout, st.Transform.Position, m.ws.Viewport().Cursor()))
	return lipgloss.JoinHorizontal(lipgloss.Top, zoom, info)
}
