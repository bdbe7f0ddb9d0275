package viewport

import (
	"fmt"

	"github.com/recera/solarview/pkg/reactive"
)

// Transform is uniform scale composed with translation, anchored at the surface centre:
// screen = c + Scale*((p - c) + Position)
type Transform struct {
	Scale    float64  `json:"scale"`
	Position Position `json:"position"`
}

// Identity is the transform every viewport starts from
var Identity = Transform{Scale: DefaultScale}

// ToScreen maps a surface-local point to screen space for a surface of the given size
func (t Transform) ToScreen(p Position, size Size) Position {
	c := size.Center()
	return c.Add(p.Sub(c).Add(t.Position).Scale(t.Scale))
}

// ToSurface is the inverse of ToScreen
func (t Transform) ToSurface(p Position, size Size) Position {
	c := size.Center()
	return p.Sub(c).Scale(1 / t.Scale).Sub(t.Position).Add(c)
}

// CSS renders the transform as a CSS transform value. The rightmost function applies
// first, so the translation happens in unscaled units.
func (t Transform) CSS() string {
	return fmt.Sprintf("scale(%g) translate(%gpx, %gpx)", t.Scale, t.Position.X, t.Position.Y)
}

// Style returns the inline style for the transformed surface
func (t Transform) Style(cursor string) string {
	return fmt.Sprintf("transform:%s;transform-origin:center center;cursor:%s", t.CSS(), cursor)
}

// Viewport owns the canonical (scale, position) pair of one surface and publishes every
// change as a single Transform value.
type Viewport struct {
	zoom  *ZoomController
	drag  *DragTracker
	state *reactive.State[Transform]
}

// New returns a viewport at the identity transform
func New() *Viewport {
	return &Viewport{
		zoom:  NewZoomController(),
		drag:  NewDragTracker(),
		state: reactive.NewState(Identity),
	}
}

// State returns the current transform
func (v *Viewport) State() Transform {
	return v.state.Get()
}

// Subscribe observes transform changes
func (v *Viewport) Subscribe(fn func(Transform)) func() {
	return v.state.Subscribe(fn)
}

// Drag exposes the drag state
func (v *Viewport) Drag() DragState {
	return v.drag.State()
}

// Cursor returns the cursor affordance for the surface
func (v *Viewport) Cursor() string {
	return v.drag.Cursor()
}

// PointerDown starts a drag
func (v *Viewport) PointerDown(p Pointer) {
	if v.drag.Press(p) && debugLog != nil {
		debugLog("[Viewport] Drag started at", p.Pos)
	}
}

// PointerMove accumulates the incremental delta into Position
func (v *Viewport) PointerMove(p Pointer) {
	delta, ok := v.drag.Move(p)
	if !ok || delta.IsZero() {
		return
	}
	v.state.Update(func(t Transform) Transform {
		t.Position = t.Position.Add(delta)
		return t
	})
}

// PointerUp ends a drag
func (v *Viewport) PointerUp() {
	v.drag.Release()
}

// Wheel zooms multiplicatively and leaves Position alone
func (v *Viewport) Wheel(deltaY float64) {
	scale := v.zoom.ZoomByWheel(deltaY)
	v.state.Update(func(t Transform) Transform {
		t.Scale = scale
		return t
	})
}

// zoomCentered applies a button zoom: the scale changes and Position returns to the origin
func (v *Viewport) zoomCentered(step func() float64) {
	scale := step()
	v.state.Set(Transform{Scale: scale})
	if debugLog != nil {
		debugLog("[Viewport] Button zoom to", scale)
	}
}

// Reset restores scale 1.0 and Position {0,0} in one update
func (v *Viewport) Reset() {
	v.zoom.Reset()
	v.state.Set(Identity)
}

// JumpTo moves the surface to an explicit position without touching scale
func (v *Viewport) JumpTo(p Position) {
	v.state.Update(func(t Transform) Transform {
		t.Position = p
		return t
	})
}

// Restore replaces the whole transform. Scale goes through the zoom controller, so an
// out-of-range request is clamped like any other.
func (v *Viewport) Restore(t Transform) Transform {
	t.Scale = v.zoom.Set(t.Scale)
	v.state.Set(t)
	return t
}

// Cancel abandons an in-flight drag; used on teardown
func (v *Viewport) Cancel() {
	if v.drag.Active() && debugLog != nil {
		debugLog("[Viewport] Cancelling drag on teardown")
	}
	v.drag.Release()
}
