package dispatch

import (
	"fmt"

	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/viewport"
)

// Kind is the type of an input event
type Kind uint8

const (
	KindPointerDown Kind = iota + 1
	KindPointerMove
	KindPointerUp
	KindWheel
	KindClick
	KindCommand
	KindLayout
)

var kindNames = map[Kind]string{
	KindPointerDown: "pointerdown",
	KindPointerMove: "pointermove",
	KindPointerUp:   "pointerup",
	KindWheel:       "wheel",
	KindClick:       "click",
	KindCommand:     "command",
	KindLayout:      "layout",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a DOM-style event name to a Kind
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Event is one input delivered to the workspace. Only the fields relevant to Kind are set.
type Event struct {
	Kind    Kind
	Target  string
	Pointer viewport.Pointer
	DeltaY  float64
	Command string
	Layout  grid.LayoutSpec

	// Seq is assigned by the dispatcher in arrival order
	Seq uint64
}

// PointerDown builds a press event aimed at target
func PointerDown(target string, p viewport.Pointer) Event {
	return Event{Kind: KindPointerDown, Target: target, Pointer: p}
}

// PointerMove builds a move event
func PointerMove(target string, p viewport.Pointer) Event {
	return Event{Kind: KindPointerMove, Target: target, Pointer: p}
}

// PointerUp builds a release event
func PointerUp(target string, p viewport.Pointer) Event {
	return Event{Kind: KindPointerUp, Target: target, Pointer: p}
}

// Wheel builds a wheel event
func Wheel(target string, deltaY float64) Event {
	return Event{Kind: KindWheel, Target: target, DeltaY: deltaY}
}

// Click builds a click event at pos
func Click(target string, pos viewport.Position) Event {
	return Event{Kind: KindClick, Target: target, Pointer: viewport.Pointer{Primary: true, Pos: pos}}
}

// Command builds a control panel command event
func Command(name string) Event {
	return Event{Kind: KindCommand, Command: name}
}

// Layout builds an atomic layout update
func Layout(spec grid.LayoutSpec) Event {
	return Event{Kind: KindLayout, Layout: spec}
}

func (e Event) String() string {
	switch e.Kind {
	case KindWheel:
		return fmt.Sprintf("%s(target=%q, dy=%g)", e.Kind, e.Target, e.DeltaY)
	case KindCommand:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Command)
	case KindLayout:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Layout)
	default:
		return fmt.Sprintf("%s(target=%q, id=%d, at=%s)", e.Kind, e.Target, e.Pointer.ID, e.Pointer.Pos)
	}
}
