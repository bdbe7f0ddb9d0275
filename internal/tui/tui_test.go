package tui

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/viewport"
	"github.com/recera/solarview/pkg/workspace"
)

// A 100x40 terminal leaves 38 canvas rows: an 800x608 surface with a 25x9 cell mini-map
// at column 74, canvas row 28.
func newTestModel(t *testing.T) Model {
	t.Helper()
	m := NewModel(&workspace.Options{Layout: grid.LayoutSpec{SmbCount: 2, StringCount: 2, PanelCount: 3}})
	t.Cleanup(m.ws.Close)
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mouse(action tea.MouseAction, button tea.MouseButton, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestWindowSize_MountsWorkspace(t *testing.T) {
	m := newTestModel(t)
	if !m.ws.Mounted() {
		t.Fatal("workspace not mounted")
	}
	r, ok := m.ws.MiniMap().Bounds()
	want := viewport.Rect{X: 74 * CellWidth, Y: 28 * CellHeight, W: 25 * CellWidth, H: 9 * CellHeight}
	if !ok || r != want {
		t.Errorf("mini-map bounds = %+v, want %+v", r, want)
	}
}

func TestWindowSize_TooSmallForMiniMap(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 12, Height: 6})
	if m.ws.MiniMap().Mounted() {
		t.Error("mini-map mounted on a terminal too small to show it")
	}
}

func TestKeys_DriveControlPanel(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if got := m.ws.Viewport().State().Position; got != (viewport.Position{X: panCells * CellWidth}) {
		t.Fatalf("after pan: %v", got)
	}

	// Button zoom recentres
	m = update(t, m, runes("+"))
	st := m.ws.Viewport().State()
	if !approx(st.Scale, 1.1) || !st.Position.IsZero() {
		t.Errorf("after zoom in: %+v", st)
	}

	m = update(t, m, runes("-"))
	if s := m.ws.Viewport().State().Scale; !approx(s, 1.0) {
		t.Errorf("after zoom out: %g", s)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, runes("0"))
	if st := m.ws.Viewport().State(); st != viewport.Identity {
		t.Errorf("after reset: %+v", st)
	}
}

func TestMouse_DragPans(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, mouse(tea.MouseActionPress, tea.MouseButtonLeft, 10, 10))
	if m.ws.Viewport().Drag().Phase != viewport.Dragging {
		t.Fatal("press did not start a drag")
	}
	m = update(t, m, mouse(tea.MouseActionMotion, tea.MouseButtonLeft, 15, 12))
	m = update(t, m, mouse(tea.MouseActionRelease, tea.MouseButtonNone, 15, 12))

	want := viewport.Position{X: 5 * CellWidth, Y: 2 * CellHeight}
	if got := m.ws.Viewport().State().Position; got != want {
		t.Errorf("position = %v, want %v", got, want)
	}
	if m.ws.Viewport().Drag().Phase == viewport.Dragging {
		t.Error("drag still active after release")
	}

	// Motion without a press does nothing
	m = update(t, m, mouse(tea.MouseActionMotion, tea.MouseButtonNone, 30, 30))
	if got := m.ws.Viewport().State().Position; got != want {
		t.Errorf("idle motion moved the view to %v", got)
	}
}

func TestMouse_Wheel(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, mouse(tea.MouseActionPress, tea.MouseButtonWheelUp, 10, 10))
	if s := m.ws.Viewport().State().Scale; !approx(s, 1.1) {
		t.Errorf("wheel up on schematic: scale %g", s)
	}

	// Wheel over the mini-map zooms only the mini-map
	m = update(t, m, mouse(tea.MouseActionPress, tea.MouseButtonWheelDown, 80, 1+30))
	if s := m.ws.Viewport().State().Scale; !approx(s, 1.1) {
		t.Errorf("mini-map wheel changed primary scale to %g", s)
	}
	if s := m.ws.MiniMap().State().Scale; !approx(s, 0.9) {
		t.Errorf("mini-map scale = %g, want 0.9", s)
	}

	// Chrome rows are not part of the surface
	m = update(t, m, mouse(tea.MouseActionPress, tea.MouseButtonWheelUp, 10, 0))
	if s := m.ws.Viewport().State().Scale; !approx(s, 1.1) {
		t.Errorf("wheel on status line zoomed to %g", s)
	}
}

func TestMouse_MiniMapClickJumps(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, mouse(tea.MouseActionPress, tea.MouseButtonLeft, 80, 1+30))
	m = update(t, m, mouse(tea.MouseActionRelease, tea.MouseButtonNone, 80, 1+30))

	// Cell (80, 30) centres at (644, 488); the mini-map starts at (592, 448)
	want := viewport.Position{X: 52, Y: 40}
	if got := m.ws.Viewport().State().Position; got != want {
		t.Errorf("position = %v, want %v", got, want)
	}
	if s := m.ws.Viewport().State().Scale; s != 1 {
		t.Errorf("click changed scale to %g", s)
	}
}

func TestMouse_MiniMapDragDoesNotJump(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, mouse(tea.MouseActionPress, tea.MouseButtonLeft, 80, 1+30))
	m = update(t, m, mouse(tea.MouseActionMotion, tea.MouseButtonLeft, 82, 1+31))
	m = update(t, m, mouse(tea.MouseActionRelease, tea.MouseButtonNone, 82, 1+31))

	if got := m.ws.Viewport().State().Position; !got.IsZero() {
		t.Errorf("mini-map pan moved the primary to %v", got)
	}
	if got := m.ws.MiniMap().State().Pan; got != (viewport.Position{X: 2 * CellWidth, Y: CellHeight}) {
		t.Errorf("mini-map pan = %v", got)
	}
}

func TestKeys_ResetMiniMap(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, mouse(tea.MouseActionPress, tea.MouseButtonWheelDown, 80, 1+30))
	m = update(t, m, mouse(tea.MouseActionPress, tea.MouseButtonLeft, 80, 1+30))
	m = update(t, m, mouse(tea.MouseActionMotion, tea.MouseButtonLeft, 82, 1+31))
	m = update(t, m, mouse(tea.MouseActionRelease, tea.MouseButtonNone, 82, 1+31))
	m = update(t, m, runes("+"))

	m = update(t, m, runes("r"))
	mini := m.ws.MiniMap().State()
	if mini.Scale != 1 || !mini.Pan.IsZero() {
		t.Errorf("mini-map after reset = %+v", mini)
	}
	if s := m.ws.Viewport().State().Scale; !approx(s, 1.1) {
		t.Errorf("mini-map reset changed primary scale to %g", s)
	}
}

func TestToggleMiniMap(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, runes("m"))
	if m.ws.MiniMap().Mounted() {
		t.Fatal("mini-map still mounted after toggle")
	}
	// The same cell now belongs to the schematic
	m = update(t, m, mouse(tea.MouseActionPress, tea.MouseButtonWheelUp, 80, 1+30))
	if s := m.ws.Viewport().State().Scale; !approx(s, 1.1) {
		t.Errorf("hidden mini-map still captured the wheel, scale %g", s)
	}

	m = update(t, m, runes("m"))
	if !m.ws.MiniMap().Mounted() {
		t.Error("mini-map not remounted")
	}
}

func TestLayoutMsg(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, LayoutMsg{SmbCount: 1, StringCount: 1, PanelCount: 4})
	if got := m.ws.Layout(); got != (grid.LayoutSpec{SmbCount: 1, StringCount: 1, PanelCount: 4}) {
		t.Errorf("layout = %+v", got)
	}
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	for _, want := range []string{"100%", "SMB 1", "2×2×3", "zoom in"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = update(t, m, runes("+"))
	if view := m.View(); !strings.Contains(view, "110%") {
		t.Error("view did not follow zoom")
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("command is not tea.Quit")
	}
	if view := next.(Model).View(); view != "" {
		t.Errorf("view after quit = %q", view)
	}
}

func TestCanvas_String(t *testing.T) {
	c := newCanvas(4, 2)
	c.outline(0, 0, 4, 2, cellEmpty)
	if got := c.String(); got != "┌──┐\n└──┘" {
		t.Errorf("canvas = %q", got)
	}
}
