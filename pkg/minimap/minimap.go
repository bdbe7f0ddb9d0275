// Package minimap keeps a small overview of the schematic in step with the primary viewport.
//
// The mini-map has its own state. It follows the primary transform through a one-way
// projection and adds its own zoom and pan on top. The only path back to the primary is
// Click, which issues a jump-to-position command.
package minimap

import (
	"fmt"

	"github.com/recera/solarview/pkg/reactive"
	"github.com/recera/solarview/pkg/viewport"
)

// DefaultRatio is the proportionality constant K between primary pixels and
// mini-map percent
const DefaultRatio = 0.1

// CommandReset is the control command that clears the mini-map's own zoom and pan
const CommandReset = "minimap-reset"

// debugLog is installed by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// Options configures a mini-map
type Options struct {
	// Ratio is K in Position = (primary.Position / primary.Scale) * K
	Ratio float64
	// Source identifies the embedded preview content; it is never interpreted
	Source string
}

func (o *Options) withDefaults() Options {
	d := Options{Ratio: DefaultRatio}
	if o == nil {
		return d
	}
	if o.Ratio > 0 {
		d.Ratio = o.Ratio
	}
	d.Source = o.Source
	return d
}

// State is the mini-map's own transform. Position is derived from the primary and only
// written by the sync; Pan and Scale belong to the mini-map's own input.
type State struct {
	Scale    float64           `json:"scale"`
	Position viewport.Position `json:"position"`
	Pan      viewport.Position `json:"pan"`
}

// Style renders the state as a CSS transform: own pan in pixels, own zoom, then the
// projected primary offset in percent
func (s State) Style() string {
	return fmt.Sprintf("transform:translate(%gpx, %gpx) scale(%g) translate(%g%%, %g%%);transform-origin:center center",
		s.Pan.X, s.Pan.Y, s.Scale, s.Position.X, s.Position.Y)
}

// Project maps the primary transform into mini-map space
func Project(primary viewport.Transform, ratio float64) viewport.Position {
	if primary.Scale <= 0 {
		return viewport.Position{}
	}
	return primary.Position.Scale(ratio / primary.Scale)
}

// MiniMap is the overview component
type MiniMap struct {
	opts    Options
	primary *viewport.Viewport
	zoom    *viewport.ZoomController
	drag    *viewport.DragTracker
	state   *reactive.State[State]
	unsync  func()
	bounds  *viewport.Rect
}

// New creates a mini-map following primary
func New(primary *viewport.Viewport, opts *Options) *MiniMap {
	o := opts.withDefaults()
	m := &MiniMap{
		opts:    o,
		primary: primary,
		zoom:    viewport.NewZoomController(),
		drag:    viewport.NewDragTracker(),
		state: reactive.NewState(State{
			Scale:    viewport.DefaultScale,
			Position: Project(primary.State(), o.Ratio),
		}),
	}
	m.unsync = primary.Subscribe(m.sync)
	return m
}

// sync is the one-way channel from the primary transform
func (m *MiniMap) sync(t viewport.Transform) {
	pos := Project(t, m.opts.Ratio)
	m.state.Update(func(s State) State {
		s.Position = pos
		return s
	})
	if debugLog != nil {
		debugLog("[MiniMap] Synced to", pos)
	}
}

// State returns the current mini-map state
func (m *MiniMap) State() State {
	return m.state.Get()
}

// Subscribe observes mini-map state changes
func (m *MiniMap) Subscribe(fn func(State)) func() {
	return m.state.Subscribe(fn)
}

// Source returns the opaque preview reference
func (m *MiniMap) Source() string {
	return m.opts.Source
}

// Ratio returns K
func (m *MiniMap) Ratio() float64 {
	return m.opts.Ratio
}

// Mount records the bounding rectangle of the rendered mini-map
func (m *MiniMap) Mount(r viewport.Rect) {
	m.bounds = &r
}

// Unmount forgets the surface; input arriving afterwards is ignored
func (m *MiniMap) Unmount() {
	m.bounds = nil
	m.drag.Release()
}

// Mounted reports whether a surface is attached
func (m *MiniMap) Mounted() bool {
	return m.bounds != nil
}

// Bounds returns the mounted rectangle
func (m *MiniMap) Bounds() (viewport.Rect, bool) {
	if m.bounds == nil {
		return viewport.Rect{}, false
	}
	return *m.bounds, true
}

// Wheel zooms the mini-map itself
func (m *MiniMap) Wheel(deltaY float64) {
	if m.bounds == nil {
		return
	}
	scale := m.zoom.ZoomByWheel(deltaY)
	m.state.Update(func(s State) State {
		s.Scale = scale
		return s
	})
}

// PointerDown starts a mini-map pan when the press lands on the mini-map
func (m *MiniMap) PointerDown(p viewport.Pointer) {
	if m.bounds == nil || !m.bounds.Contains(p.Pos) {
		return
	}
	m.drag.Press(p)
}

// PointerMove pans the mini-map; the primary never sees it
func (m *MiniMap) PointerMove(p viewport.Pointer) {
	if m.bounds == nil {
		return
	}
	delta, ok := m.drag.Move(p)
	if !ok {
		return
	}
	m.state.Update(func(s State) State {
		s.Pan = s.Pan.Add(delta)
		return s
	})
}

// PointerUp ends a mini-map pan
func (m *MiniMap) PointerUp() {
	m.drag.Release()
}

// Dragging reports whether the mini-map owns the current gesture
func (m *MiniMap) Dragging() bool {
	return m.drag.Active()
}

// Click jumps the primary surface to the click offset within the mini-map
func (m *MiniMap) Click(p viewport.Position) bool {
	if m.bounds == nil || !m.bounds.Contains(p) {
		return false
	}
	offset := p.Sub(m.bounds.TopLeft())
	if debugLog != nil {
		debugLog("[MiniMap] Click jump to", offset)
	}
	m.primary.JumpTo(offset)
	return true
}

// ResetView clears the mini-map's own zoom and pan
func (m *MiniMap) ResetView() {
	m.zoom.Reset()
	m.state.Update(func(s State) State {
		s.Scale = viewport.DefaultScale
		s.Pan = viewport.Position{}
		return s
	})
}

// Close stops following the primary
func (m *MiniMap) Close() {
	if m.unsync != nil {
		m.unsync()
		m.unsync = nil
	}
	m.Unmount()
}
