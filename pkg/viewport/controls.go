package viewport

// Control panel command names, as sent by buttons and remote clients
const (
	CommandZoomIn  = "zoom-in"
	CommandZoomOut = "zoom-out"
	CommandReset   = "reset"
)

// Commands lists the control panel commands in display order
var Commands = []string{CommandZoomIn, CommandZoomOut, CommandReset}

// API is the imperative surface of the control panel
type API interface {
	ZoomIn()
	ZoomOut()
	Reset()
}

// ControlPanel issues discrete commands. Every command leaves the view centred.
type ControlPanel struct {
	vp *Viewport
}

// NewControlPanel binds a control panel to a viewport
func NewControlPanel(vp *Viewport) *ControlPanel {
	return &ControlPanel{vp: vp}
}

// ZoomIn adds one step and recenters
func (c *ControlPanel) ZoomIn() { c.vp.zoomCentered(c.vp.zoom.ZoomIn) }

// ZoomOut subtracts one step and recenters
func (c *ControlPanel) ZoomOut() { c.vp.zoomCentered(c.vp.zoom.ZoomOut) }

// Reset restores the identity transform
func (c *ControlPanel) Reset() { c.vp.Reset() }

// Execute runs a command by name and reports whether it was recognised
func (c *ControlPanel) Execute(name string) bool {
	switch name {
	case CommandZoomIn:
		c.ZoomIn()
	case CommandZoomOut:
		c.ZoomOut()
	case CommandReset:
		c.Reset()
	default:
		return false
	}
	return true
}

// Label returns the button caption for a command
func Label(name string) string {
	switch name {
	case CommandZoomIn:
		return "+"
	case CommandZoomOut:
		return "−"
	case CommandReset:
		return "Reset"
	default:
		return name
	}
}
