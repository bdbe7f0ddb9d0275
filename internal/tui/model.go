// Package tui is a terminal explorer for the schematic viewport. Mouse drags pan, the wheel
// zooms and the keyboard drives the control panel.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/recera/solarview/pkg/dispatch"
	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/minimap"
	"github.com/recera/solarview/pkg/viewport"
	"github.com/recera/solarview/pkg/workspace"
)

// A terminal cell covers this much of the surface
const (
	CellWidth  = 8
	CellHeight = 16
)

// Chrome rows: status line on top, help below
const (
	headerRows = 1
	footerRows = 1
)

// panCells is how far one arrow key moves the view
const panCells = 4

// wheelDelta stands in for one notch of a mouse wheel
const wheelDelta = 100

// LayoutMsg replaces the plant layout, e.g. from a file watcher
type LayoutMsg grid.LayoutSpec

// Model represents the explorer state
type Model struct {
	ws   *workspace.Workspace
	keys KeyMap
	help help.Model

	// Window dimensions
	width  int
	height int

	showMiniMap bool
	quitting    bool

	// Gesture in progress
	pressTarget string
	pressMoved  bool
}

// NewModel creates an explorer for the given workspace options. The workspace mounts on
// the first window size message.
func NewModel(opts *workspace.Options) Model {
	return Model{
		ws:          workspace.New(opts),
		keys:        DefaultKeyMap,
		help:        help.New(),
		showMiniMap: true,
	}
}

// Workspace exposes the driven workspace
func (m Model) Workspace() *workspace.Workspace { return m.ws }

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if !m.ws.Mounted() {
			m.ws.Mount(m.miniBounds())
		}
		m.placeMiniMap()
		return m, nil

	case LayoutMsg:
		m.ws.Handle(dispatch.Layout(grid.LayoutSpec(msg)))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.ws.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.ZoomIn):
		m.ws.Handle(dispatch.Command(viewport.CommandZoomIn))

	case key.Matches(msg, m.keys.ZoomOut):
		m.ws.Handle(dispatch.Command(viewport.CommandZoomOut))

	case key.Matches(msg, m.keys.Reset):
		m.ws.Handle(dispatch.Command(viewport.CommandReset))

	case key.Matches(msg, m.keys.Up):
		m.pan(0, -panCells*CellHeight)
	case key.Matches(msg, m.keys.Down):
		m.pan(0, panCells*CellHeight)
	case key.Matches(msg, m.keys.Left):
		m.pan(-panCells*CellWidth, 0)
	case key.Matches(msg, m.keys.Right):
		m.pan(panCells*CellWidth, 0)

	case key.Matches(msg, m.keys.MiniMap):
		m.showMiniMap = !m.showMiniMap
		m.placeMiniMap()

	case key.Matches(msg, m.keys.MiniMapReset):
		m.ws.Handle(dispatch.Command(minimap.CommandReset))

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// pan replays a short drag from the surface centre, so keyboard panning follows the same
// path as the mouse
func (m Model) pan(dx, dy float64) {
	c := m.surface().Center()
	m.ws.Handle(dispatch.PointerDown(workspace.ElementSchematic, viewport.Mouse(c.X, c.Y)))
	m.ws.Handle(dispatch.PointerMove("", viewport.Mouse(c.X+dx, c.Y+dy)))
	m.ws.Handle(dispatch.PointerUp("", viewport.Mouse(c.X+dx, c.Y+dy)))
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	pos, inside := m.toSurface(msg.X, msg.Y)
	p := viewport.Pointer{ID: 0, Kind: viewport.PointerMouse, Primary: true, Pos: pos}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
			if !inside {
				return
			}
			delta := float64(wheelDelta)
			if msg.Button == tea.MouseButtonWheelUp {
				delta = -delta
			}
			m.ws.Handle(dispatch.Wheel(m.targetAt(pos), delta))

		case tea.MouseButtonLeft:
			if !inside {
				return
			}
			m.pressTarget = m.targetAt(pos)
			m.pressMoved = false
			m.ws.Handle(dispatch.PointerDown(m.pressTarget, p))
		}

	case tea.MouseActionMotion:
		if m.pressTarget != "" {
			m.pressMoved = true
		}
		m.ws.Handle(dispatch.PointerMove("", p))

	case tea.MouseActionRelease:
		m.ws.Handle(dispatch.PointerUp("", p))
		// A press and release on the mini-map without movement is a click
		if m.pressTarget == workspace.ElementMiniMap && !m.pressMoved {
			m.ws.Handle(dispatch.Click(workspace.ElementMiniMap, pos))
		}
		m.pressTarget = ""
	}
}

// targetAt names the element under a surface position
func (m Model) targetAt(p viewport.Position) string {
	if r, ok := m.ws.MiniMap().Bounds(); ok && m.showMiniMap && r.Contains(p) {
		return workspace.ElementMiniMap
	}
	return workspace.ElementSchematic
}

// toSurface maps a terminal cell to the centre of its surface area. inside is false for
// the chrome rows.
func (m Model) toSurface(col, row int) (viewport.Position, bool) {
	r := row - headerRows
	inside := r >= 0 && r < m.canvasRows() && col >= 0 && col < m.width
	return viewport.Position{
		X: (float64(col) + 0.5) * CellWidth,
		Y: (float64(r) + 0.5) * CellHeight,
	}, inside
}

func (m Model) canvasRows() int {
	return max(m.height-headerRows-footerRows, 0)
}

// surface is the canvas size in surface units
func (m Model) surface() viewport.Size {
	return viewport.Size{W: float64(m.width * CellWidth), H: float64(m.canvasRows() * CellHeight)}
}

// miniCells is the mini-map rectangle in canvas cells: a quarter of each dimension in the
// bottom-right corner, one cell in from the edges
func (m Model) miniCells() (col, row, w, h int) {
	rows := m.canvasRows()
	w, h = max(m.width/4, 12), max(rows/4, 4)
	if w+2 > m.width || h+2 > rows {
		return 0, 0, 0, 0
	}
	return m.width - w - 1, rows - h - 1, w, h
}

// placeMiniMap mounts the mini-map at its current rectangle, or unmounts it when hidden or
// when the terminal is too small to fit it
func (m Model) placeMiniMap() {
	r := m.miniBounds()
	if !m.showMiniMap || r.W == 0 {
		m.ws.MiniMap().Unmount()
		return
	}
	m.ws.MiniMap().Mount(r)
}

func (m Model) miniBounds() viewport.Rect {
	col, row, w, h := m.miniCells()
	if w == 0 {
		return viewport.Rect{}
	}
	return viewport.Rect{
		X: float64(col * CellWidth),
		Y: float64(row * CellHeight),
		W: float64(w * CellWidth),
		H: float64(h * CellHeight),
	}
}
