package viewport

import "fmt"

// Scale bounds and steps shared by every zoomable surface
const (
	MinScale     = 0.1
	MaxScale     = 5.0
	DefaultScale = 1.0

	// ZoomStep is the additive step used by the control panel buttons
	ZoomStep = 0.1

	// Wheel factors are multiplicative
	WheelZoomIn  = 1.1
	WheelZoomOut = 0.9
)

// debugLog is installed by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// Position is a 2D vector in surface-local pixels
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q
func (p Position) Add(q Position) Position { return Position{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q
func (p Position) Sub(q Position) Position { return Position{p.X - q.X, p.Y - q.Y} }

// Scale returns p * k
func (p Position) Scale(k float64) Position { return Position{p.X * k, p.Y * k} }

// IsZero reports whether p is the origin
func (p Position) IsZero() bool { return p.X == 0 && p.Y == 0 }

func (p Position) String() string { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

// Size is a width/height pair in pixels
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Center returns the midpoint of a surface of this size
func (s Size) Center() Position { return Position{s.W / 2, s.H / 2} }

// Rect is an axis-aligned bounding rectangle
type Rect struct {
	X, Y, W, H float64
}

// TopLeft returns the rectangle origin
func (r Rect) TopLeft() Position { return Position{r.X, r.Y} }

// Contains reports whether p lies inside or on the rectangle
func (r Rect) Contains(p Position) bool {
	return p.X >= r.X && p.X <= r.X+r.W &&
		p.Y >= r.Y && p.Y <= r.Y+r.H
}

// PointerKind distinguishes the input device behind a pointer
type PointerKind uint8

const (
	PointerMouse PointerKind = iota
	PointerTouch
	PointerPen
)

func (k PointerKind) String() string {
	switch k {
	case PointerMouse:
		return "mouse"
	case PointerTouch:
		return "touch"
	case PointerPen:
		return "pen"
	default:
		return "unknown"
	}
}

// ParsePointerKind maps DOM pointerType strings to a PointerKind
func ParsePointerKind(s string) PointerKind {
	switch s {
	case "touch":
		return PointerTouch
	case "pen":
		return PointerPen
	default:
		return PointerMouse
	}
}

// Pointer is an abstract pointer sample: mouse buttons and touch contacts both map to it
type Pointer struct {
	ID      int
	Kind    PointerKind
	Primary bool
	Pos     Position
}

// Mouse returns a primary mouse pointer at (x, y)
func Mouse(x, y float64) Pointer {
	return Pointer{ID: 0, Kind: PointerMouse, Primary: true, Pos: Position{x, y}}
}

// Touch returns a touch contact at (x, y)
func Touch(id int, primary bool, x, y float64) Pointer {
	return Pointer{ID: id, Kind: PointerTouch, Primary: primary, Pos: Position{x, y}}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
