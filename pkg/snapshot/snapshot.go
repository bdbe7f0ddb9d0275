// Package snapshot rasterizes the schematic under a viewport transform, with a mini-map
// inset in the corner.
package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/recera/solarview/internal/cache"
	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/viewport"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// Palette
const (
	colorBackground = "#f5f7fa"
	colorSMB        = "#ffffff"
	colorSMBBorder  = "#9aa5b1"
	colorString     = "#e4e7eb"
	colorPanel      = "#1f6feb"
	colorLabel      = "#ffffff"
	colorTitle      = "#323f4b"
	colorInset      = "#ffffff"
	colorInsetFrame = "#323f4b"
	colorIndicator  = "#e12d39"
)

// Options controls the output image
type Options struct {
	Width    int
	Height   int
	Metrics  grid.Metrics
	FontSize float64
	// MiniMap draws the overview inset; InsetRatio is its size relative to the image
	MiniMap    bool
	InsetRatio float64
}

// DefaultOptions returns a 960x640 image with the inset enabled
func DefaultOptions() Options {
	return Options{
		Width:      960,
		Height:     640,
		Metrics:    grid.DefaultMetrics(),
		FontSize:   10,
		MiniMap:    true,
		InsetRatio: 0.2,
	}
}

// Request is one snapshot: which plant, seen through which transform
type Request struct {
	Layout    grid.LayoutSpec
	Transform viewport.Transform
}

// normalize clamps the scale the same way the interactive viewport does
func (r Request) normalize() Request {
	r.Transform.Scale = viewport.NewZoomController().Set(r.Transform.Scale)
	return r
}

// Renderer draws snapshots. It is safe for concurrent use.
type Renderer struct {
	opts  Options
	font  *truetype.Font
	cache *cache.Cache
}

// NewRenderer parses the label font once. c may be nil to disable caching.
func NewRenderer(opts Options, c *cache.Cache) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid snapshot size %dx%d", opts.Width, opts.Height)
	}
	if opts.Metrics == (grid.Metrics{}) {
		opts.Metrics = grid.DefaultMetrics()
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 10
	}
	if opts.InsetRatio <= 0 || opts.InsetRatio > 1 {
		opts.InsetRatio = 0.2
	}

	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Renderer{opts: opts, font: ttfFont, cache: c}, nil
}

// Options returns the renderer configuration
func (r *Renderer) Options() Options { return r.opts }

// Key identifies a request in the cache
func (r *Renderer) Key(req Request) string {
	req = req.normalize()
	t := req.Transform
	return cache.Key(
		req.Layout.String(),
		fmt.Sprintf("%g|%g|%g", t.Scale, t.Position.X, t.Position.Y),
		fmt.Sprintf("%dx%d|%t", r.opts.Width, r.opts.Height, r.opts.MiniMap),
	)
}

// Render draws req into a new image
func (r *Renderer) Render(req Request) image.Image {
	return r.draw(req.normalize()).Image()
}

// PNG renders req and encodes it, going through the cache when one is configured
func (r *Renderer) PNG(req Request) ([]byte, error) {
	encode := func() ([]byte, error) {
		var buf bytes.Buffer
		if err := r.draw(req.normalize()).EncodePNG(&buf); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), nil
	}
	if r.cache == nil {
		return encode()
	}
	return r.cache.GetOrCompute(r.Key(req), encode)
}

// WriteFile renders req to a PNG file
func (r *Renderer) WriteFile(req Request, path string) error {
	data, err := r.PNG(req)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (r *Renderer) draw(req Request) *gg.Context {
	w, h := r.opts.Width, r.opts.Height
	canvas := viewport.Size{W: float64(w), H: float64(h)}

	dc := gg.NewContext(w, h)
	dc.SetHexColor(colorBackground)
	dc.Clear()
	dc.SetFontFace(truetype.NewFace(r.font, &truetype.Options{
		Size:    r.opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	boxes, size := grid.GenerateSpec(req.Layout).Layout(r.opts.Metrics)
	// The content sits centred on the surface before the transform applies
	offset := viewport.Position{X: (canvas.W - size.W) / 2, Y: (canvas.H - size.H) / 2}

	t := req.Transform
	for _, b := range boxes {
		tl := t.ToScreen(b.TopLeft().Add(offset), canvas)
		bw, bh := b.W*t.Scale, b.H*t.Scale
		drawBox(dc, b, tl.X, tl.Y, bw, bh)
	}

	if r.opts.MiniMap {
		r.drawInset(dc, boxes, offset, t, canvas)
	}
	return dc
}

func drawBox(dc *gg.Context, b grid.Box, x, y, w, h float64) {
	switch b.Kind {
	case grid.KindSMB:
		dc.DrawRectangle(x, y, w, h)
		dc.SetHexColor(colorSMB)
		dc.FillPreserve()
		dc.SetHexColor(colorSMBBorder)
		dc.SetLineWidth(1)
		dc.Stroke()
		if tw, _ := dc.MeasureString(b.Label); tw < w {
			dc.SetHexColor(colorTitle)
			dc.DrawStringAnchored(b.Label, x+w/2, y+dc.FontHeight(), 0.5, 0)
		}

	case grid.KindString:
		dc.DrawRectangle(x, y, w, h)
		dc.SetHexColor(colorString)
		dc.Fill()

	case grid.KindPanel:
		dc.DrawRectangle(x, y, w, h)
		dc.SetHexColor(colorPanel)
		dc.Fill()
		// Labels only when they fit inside the scaled panel
		if tw, th := dc.MeasureString(b.Label); tw < w-2 && th < h {
			dc.SetHexColor(colorLabel)
			dc.DrawStringAnchored(b.Label, x+w/2, y+h/2, 0.5, 0.5)
		}
	}
}

// drawInset fits the whole plant into the corner and outlines the part the main view shows
func (r *Renderer) drawInset(dc *gg.Context, boxes []grid.Box, offset viewport.Position, t viewport.Transform, canvas viewport.Size) {
	iw, ih := canvas.W*r.opts.InsetRatio, canvas.H*r.opts.InsetRatio
	ix, iy := canvas.W-iw-8, canvas.H-ih-8

	dc.DrawRectangle(ix, iy, iw, ih)
	dc.SetHexColor(colorInset)
	dc.FillPreserve()
	dc.SetHexColor(colorInsetFrame)
	dc.SetLineWidth(1)
	dc.Stroke()

	if len(boxes) == 0 {
		return
	}

	// The inset shows the whole surface, not just the content
	k := min(iw/canvas.W, ih/canvas.H)
	toInset := func(p viewport.Position) viewport.Position {
		return viewport.Position{X: ix + p.X*k, Y: iy + p.Y*k}
	}

	for _, b := range boxes {
		if b.Kind != grid.KindPanel {
			continue
		}
		p := toInset(b.TopLeft().Add(offset))
		dc.DrawRectangle(p.X, p.Y, b.W*k, b.H*k)
		dc.SetHexColor(colorPanel)
		dc.Fill()
	}

	// Visible region in surface coordinates
	a := toInset(t.ToSurface(viewport.Position{}, canvas))
	b := toInset(t.ToSurface(viewport.Position{X: canvas.W, Y: canvas.H}, canvas))
	dc.Push()
	dc.DrawRectangle(ix, iy, iw, ih)
	dc.Clip()
	dc.DrawRectangle(a.X, a.Y, b.X-a.X, b.Y-a.Y)
	dc.SetHexColor(colorIndicator)
	dc.SetLineWidth(1.5)
	dc.Stroke()
	dc.Pop()
}
