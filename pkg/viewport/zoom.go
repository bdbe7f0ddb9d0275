package viewport

// ZoomController holds a scale factor that never leaves [MinScale, MaxScale].
// It is the only place scale is validated.
type ZoomController struct {
	scale float64
}

// NewZoomController returns a controller at DefaultScale
func NewZoomController() *ZoomController {
	return &ZoomController{scale: DefaultScale}
}

// Scale returns the current scale factor
func (z *ZoomController) Scale() float64 {
	return z.scale
}

// Set clamps v into range and stores it. Non-finite or non-positive requests
// land on MinScale.
func (z *ZoomController) Set(v float64) float64 {
	if v != v || v <= 0 {
		v = MinScale
	}
	z.scale = clamp(v, MinScale, MaxScale)
	return z.scale
}

// ZoomIn adds one step
func (z *ZoomController) ZoomIn() float64 {
	return z.Set(z.scale + ZoomStep)
}

// ZoomOut subtracts one step
func (z *ZoomController) ZoomOut() float64 {
	return z.Set(z.scale - ZoomStep)
}

// ZoomByWheel scales multiplicatively: up (negative deltaY) zooms in
func (z *ZoomController) ZoomByWheel(deltaY float64) float64 {
	factor := WheelZoomOut
	if deltaY < 0 {
		factor = WheelZoomIn
	}
	return z.Set(z.scale * factor)
}

// Reset restores DefaultScale
func (z *ZoomController) Reset() float64 {
	z.scale = DefaultScale
	return z.scale
}
