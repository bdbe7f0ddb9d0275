package live

import (
	"errors"
	"fmt"

	"github.com/recera/solarview/pkg/dispatch"
	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/viewport"
)

// MessageType represents the type of live protocol message
type MessageType uint8

const (
	// Frame types
	FramePatches MessageType = 0x00
	FrameEvent   MessageType = 0x01
	FrameControl MessageType = 0x02
)

// Control messages
const (
	ControlHello = "HELLO"
	ControlPing  = "PING"
	ControlPong  = "PONG"
)

var (
	// ErrSendBufferFull is returned when a session cannot keep up with its patches
	ErrSendBufferFull = errors.New("live: send buffer full")
	// ErrUnknownEvent is returned for an event type the workspace does not handle
	ErrUnknownEvent = errors.New("live: unknown event type")
)

// ClientEvent is the JSON shape of one browser input event
type ClientEvent struct {
	Type        string       `json:"type"`
	Target      string       `json:"target,omitempty"`
	X           float64      `json:"x,omitempty"`
	Y           float64      `json:"y,omitempty"`
	PointerID   int          `json:"pointerId,omitempty"`
	PointerType string       `json:"pointerType,omitempty"`
	IsPrimary   *bool        `json:"isPrimary,omitempty"`
	DeltaY      float64      `json:"deltaY,omitempty"`
	Command     string       `json:"command,omitempty"`
	Layout      *grid.Fields `json:"layout,omitempty"`
}

// Event converts the wire form into a dispatcher event. A missing isPrimary is treated as
// primary, which is what mice always report. A layout must carry all three counts and fit
// within maxPanels.
func (c ClientEvent) Event(maxPanels int) (dispatch.Event, error) {
	kind, ok := dispatch.ParseKind(c.Type)
	if !ok {
		return dispatch.Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, c.Type)
	}

	primary := true
	if c.IsPrimary != nil {
		primary = *c.IsPrimary
	}
	ev := dispatch.Event{
		Kind:   kind,
		Target: c.Target,
		Pointer: viewport.Pointer{
			ID:      c.PointerID,
			Kind:    viewport.ParsePointerKind(c.PointerType),
			Primary: primary,
			Pos:     viewport.Position{X: c.X, Y: c.Y},
		},
		DeltaY:  c.DeltaY,
		Command: c.Command,
	}
	if kind == dispatch.KindLayout {
		if c.Layout == nil {
			return dispatch.Event{}, fmt.Errorf("live: layout event without layout")
		}
		spec, err := c.Layout.Spec(maxPanels)
		if err != nil {
			return dispatch.Event{}, fmt.Errorf("live: layout event: %w", err)
		}
		ev.Layout = spec
	}
	return ev, nil
}
