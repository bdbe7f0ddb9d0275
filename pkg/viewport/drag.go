package viewport

// DragPhase is the tag of a DragState
type DragPhase uint8

const (
	Idle DragPhase = iota
	Dragging
)

func (p DragPhase) String() string {
	if p == Dragging {
		return "dragging"
	}
	return "idle"
}

// DragState is Idle or Dragging{Anchor}. Anchor and Pointer are only meaningful while Dragging.
type DragState struct {
	Phase   DragPhase
	Anchor  Position
	Pointer int
}

// Cursor affordances exposed to the renderer
const (
	CursorGrab     = "grab"
	CursorGrabbing = "grabbing"
)

// DragTracker turns press/move/release sequences into incremental deltas.
// Every move re-anchors, so the sum of deltas equals the total pointer travel
// regardless of sampling rate.
type DragTracker struct {
	state DragState
}

// NewDragTracker returns an idle tracker
func NewDragTracker() *DragTracker {
	return &DragTracker{}
}

// State returns the current drag state
func (d *DragTracker) State() DragState {
	return d.state
}

// Active reports whether a drag is in progress
func (d *DragTracker) Active() bool {
	return d.state.Phase == Dragging
}

// Press starts a drag at p. Only the first contact is tracked: a press while
// already dragging, or from a non-primary touch, is ignored.
func (d *DragTracker) Press(p Pointer) bool {
	if d.state.Phase == Dragging {
		if debugLog != nil {
			debugLog("[Drag] Ignoring secondary press from pointer", p.ID)
		}
		return false
	}
	if p.Kind == PointerTouch && !p.Primary {
		return false
	}
	d.state = DragState{Phase: Dragging, Anchor: p.Pos, Pointer: p.ID}
	return true
}

// Move returns the delta since the previous sample and re-anchors.
// ok is false when idle or when p is not the tracked contact.
func (d *DragTracker) Move(p Pointer) (delta Position, ok bool) {
	if d.state.Phase != Dragging || p.ID != d.state.Pointer {
		return Position{}, false
	}
	delta = p.Pos.Sub(d.state.Anchor)
	d.state.Anchor = p.Pos
	return delta, true
}

// Release ends the drag. It is idempotent.
func (d *DragTracker) Release() {
	d.state = DragState{}
}

// Cursor returns the cursor affordance for the current state
func (d *DragTracker) Cursor() string {
	if d.state.Phase == Dragging {
		return CursorGrabbing
	}
	return CursorGrab
}
