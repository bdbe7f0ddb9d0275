// Package workspace assembles the schematic viewport: the primary transform, the grid of
// SMB/String/Panel elements, the control panel and the mini-map, all driven by one
// input dispatcher.
package workspace

import (
	"github.com/recera/solarview/pkg/dispatch"
	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/minimap"
	"github.com/recera/solarview/pkg/reactive"
	"github.com/recera/solarview/pkg/vdom"
	"github.com/recera/solarview/pkg/viewport"
)

// Element ids used as event targets and in the rendered tree
const (
	ElementRoot      = "workspace"
	ElementSchematic = "schematic"
	ElementControls  = "controls"
	ElementMiniMap   = "minimap"
)

// Options configures a workspace
type Options struct {
	Layout  grid.LayoutSpec
	MiniMap minimap.Options
	Metrics grid.Metrics
}

func (o *Options) withDefaults() Options {
	d := Options{Metrics: grid.DefaultMetrics()}
	if o == nil {
		return d
	}
	d.Layout = o.Layout
	d.MiniMap = o.MiniMap
	if o.Metrics != (grid.Metrics{}) {
		d.Metrics = o.Metrics
	}
	return d
}

// State is a read-only snapshot of everything the workspace renders
type State struct {
	Layout    grid.LayoutSpec    `json:"layout"`
	Transform viewport.Transform `json:"transform"`
	MiniMap   minimap.State      `json:"minimap"`
	Dragging  bool               `json:"dragging"`
	Cursor    string             `json:"cursor"`
	Mounted   bool               `json:"mounted"`
}

// Workspace is one viewport session
type Workspace struct {
	opts Options

	vp       *viewport.Viewport
	controls *viewport.ControlPanel
	mini     *minimap.MiniMap
	layout   *reactive.State[grid.LayoutSpec]
	grids    *grid.Memo
	content  *reactive.Memo[grid.LayoutSpec, *vdom.VNode]

	events  *dispatch.Dispatcher
	subs    []dispatch.Subscription
	mounted bool
}

// New creates an unmounted workspace
func New(opts *Options) *Workspace {
	o := opts.withDefaults()
	vp := viewport.New()

	w := &Workspace{
		opts:     o,
		vp:       vp,
		controls: viewport.NewControlPanel(vp),
		mini:     minimap.New(vp, &o.MiniMap),
		layout:   reactive.NewState(o.Layout),
		grids:    grid.NewMemo(),
		events:   dispatch.NewDispatcher(),
	}
	w.content = reactive.NewMemo(func(spec grid.LayoutSpec) *vdom.VNode {
		return renderGrid(w.grids.Get(spec))
	})
	w.events.OnTeardown(w.teardown)
	return w
}

// Viewport returns the primary viewport
func (w *Workspace) Viewport() *viewport.Viewport { return w.vp }

// Controls returns the control panel
func (w *Workspace) Controls() *viewport.ControlPanel { return w.controls }

// MiniMap returns the mini-map
func (w *Workspace) MiniMap() *minimap.MiniMap { return w.mini }

// Events returns the input dispatcher
func (w *Workspace) Events() *dispatch.Dispatcher { return w.events }

// Mount resets the transform and subscribes the input handlers. miniBounds is where the
// mini-map was laid out; a zero rectangle leaves the mini-map unmounted.
func (w *Workspace) Mount(miniBounds viewport.Rect) {
	if w.mounted || w.events.Closed() {
		return
	}
	w.vp.Reset()
	if miniBounds.W > 0 && miniBounds.H > 0 {
		w.mini.Mount(miniBounds)
	}

	on := func(scope dispatch.Scope, element string, kind dispatch.Kind, h dispatch.Handler) {
		w.subs = append(w.subs, w.events.Subscribe(scope, element, kind, h))
	}

	// Presses start on an element; moves and releases are followed across the whole
	// surface so a drag that leaves the element keeps tracking.
	on(dispatch.ScopeElement, ElementSchematic, dispatch.KindPointerDown, func(ev dispatch.Event) {
		w.vp.PointerDown(ev.Pointer)
	})
	on(dispatch.ScopeElement, ElementMiniMap, dispatch.KindPointerDown, func(ev dispatch.Event) {
		w.mini.PointerDown(ev.Pointer)
	})
	on(dispatch.ScopeSurface, "", dispatch.KindPointerMove, func(ev dispatch.Event) {
		if w.mini.Dragging() {
			w.mini.PointerMove(ev.Pointer)
			return
		}
		w.vp.PointerMove(ev.Pointer)
	})
	on(dispatch.ScopeSurface, "", dispatch.KindPointerUp, func(dispatch.Event) {
		w.vp.PointerUp()
		w.mini.PointerUp()
	})

	on(dispatch.ScopeElement, ElementSchematic, dispatch.KindWheel, func(ev dispatch.Event) {
		w.vp.Wheel(ev.DeltaY)
	})
	on(dispatch.ScopeElement, ElementMiniMap, dispatch.KindWheel, func(ev dispatch.Event) {
		w.mini.Wheel(ev.DeltaY)
	})
	on(dispatch.ScopeElement, ElementMiniMap, dispatch.KindClick, func(ev dispatch.Event) {
		w.mini.Click(ev.Pointer.Pos)
	})

	on(dispatch.ScopeSurface, "", dispatch.KindCommand, func(ev dispatch.Event) {
		if ev.Command == minimap.CommandReset {
			w.mini.ResetView()
			return
		}
		w.controls.Execute(ev.Command)
	})
	on(dispatch.ScopeSurface, "", dispatch.KindLayout, func(ev dispatch.Event) {
		w.SetLayout(ev.Layout)
	})

	w.mounted = true
}

// Unmount deregisters every handler and cancels an in-flight drag. The workspace can be
// mounted again.
func (w *Workspace) Unmount() {
	if !w.mounted {
		return
	}
	for _, s := range w.subs {
		s.Cancel()
	}
	w.subs = nil
	w.teardown()
}

func (w *Workspace) teardown() {
	w.vp.Cancel()
	w.mini.Unmount()
	w.mounted = false
}

// Close unmounts the workspace for good
func (w *Workspace) Close() {
	w.subs = nil
	w.events.Close()
	w.mini.Close()
}

// Mounted reports whether input handlers are registered
func (w *Workspace) Mounted() bool { return w.mounted }

// Handle posts ev and drains the queue
func (w *Workspace) Handle(ev dispatch.Event) int {
	return w.events.Dispatch(ev)
}

// SetLayout replaces the layout triple in one step
func (w *Workspace) SetLayout(spec grid.LayoutSpec) {
	w.layout.Set(spec)
}

// Layout returns the current layout triple
func (w *Workspace) Layout() grid.LayoutSpec { return w.layout.Get() }

// Grid returns the grid for the current layout, regenerated only when the triple changed
func (w *Workspace) Grid() grid.Grid {
	return w.grids.Get(w.layout.Get())
}

// Generations reports how many times the grid has been derived
func (w *Workspace) Generations() int { return w.grids.Generations() }

// Metrics returns the element sizes used for layout
func (w *Workspace) Metrics() grid.Metrics { return w.opts.Metrics }

// State returns a snapshot of the render inputs
func (w *Workspace) State() State {
	return State{
		Layout:    w.layout.Get(),
		Transform: w.vp.State(),
		MiniMap:   w.mini.State(),
		Dragging:  w.vp.Drag().Phase == viewport.Dragging,
		Cursor:    w.vp.Cursor(),
		Mounted:   w.mounted,
	}
}
