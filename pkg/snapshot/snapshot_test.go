package snapshot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/recera/solarview/internal/cache"
	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/viewport"
)

var panelColor = color.RGBA{0x1f, 0x6f, 0xeb, 0xff}

func testRenderer(t *testing.T, miniMap bool, c *cache.Cache) *Renderer {
	t.Helper()
	opts := DefaultOptions()
	opts.Width, opts.Height = 200, 200
	opts.MiniMap = miniMap
	r, err := NewRenderer(opts, c)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func rgba(img image.Image, x, y int) color.RGBA {
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

// A 1x1x1 plant with default metrics is 84x90, centred in 200x200 at (58, 55); its panel
// starts at (24, 46) inside the layout, so (85, 104) is just inside the panel corner.
func TestRender_FollowsTransform(t *testing.T) {
	r := testRenderer(t, false, nil)
	one := grid.LayoutSpec{SmbCount: 1, StringCount: 1, PanelCount: 1}

	img := r.Render(Request{Layout: one, Transform: viewport.Identity})
	if got := rgba(img, 85, 104); got != panelColor {
		t.Errorf("identity: pixel = %v, want panel colour", got)
	}

	shifted := viewport.Transform{Scale: 1, Position: viewport.Position{X: 50}}
	img = r.Render(Request{Layout: one, Transform: shifted})
	if got := rgba(img, 135, 104); got != panelColor {
		t.Errorf("shifted: pixel = %v, want panel colour", got)
	}
	if got := rgba(img, 85, 104); got == panelColor {
		t.Error("shifted: panel still drawn at the old position")
	}
}

func TestRender_ClampsScale(t *testing.T) {
	r := testRenderer(t, false, nil)
	req := Request{Layout: grid.LayoutSpec{SmbCount: 1, StringCount: 1, PanelCount: 1}}

	big := req
	big.Transform = viewport.Transform{Scale: 50}
	clamped := req
	clamped.Transform = viewport.Transform{Scale: viewport.MaxScale}
	if r.Key(big) != r.Key(clamped) {
		t.Error("out-of-range scale was not clamped")
	}
}

func TestRender_EmptyLayout(t *testing.T) {
	r := testRenderer(t, true, nil)
	img := r.Render(Request{Transform: viewport.Identity})
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 200 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := rgba(img, 100, 100); got == panelColor {
		t.Error("empty layout drew a panel")
	}
}

func TestRender_MiniMapInset(t *testing.T) {
	r := testRenderer(t, true, nil)
	img := r.Render(Request{
		Layout:    grid.LayoutSpec{SmbCount: 2, StringCount: 2, PanelCount: 2},
		Transform: viewport.Identity,
	})

	// Inset is 40x40 at (152, 152); its interior away from content is white
	if got := rgba(img, 154, 154); got != (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("inset background = %v", got)
	}
}

func TestPNG_UsesCache(t *testing.T) {
	c := cache.New(cache.Config{})
	r := testRenderer(t, true, c)
	req := Request{Layout: grid.LayoutSpec{SmbCount: 1, StringCount: 2, PanelCount: 3}, Transform: viewport.Identity}

	first, err := r.PNG(req)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	second, err := r.PNG(req)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("cached PNG differs")
	}
	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("cache stats = %+v", stats)
	}

	img, err := png.Decode(bytes.NewReader(first))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 200 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}

func TestWriteFile(t *testing.T) {
	r := testRenderer(t, true, nil)
	path := filepath.Join(t.TempDir(), "plant.png")
	if err := r.WriteFile(Request{Layout: grid.LayoutSpec{SmbCount: 1, StringCount: 1, PanelCount: 1}, Transform: viewport.Identity}, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("written file is not a PNG: %v", err)
	}
}

func TestNewRenderer_InvalidSize(t *testing.T) {
	if _, err := NewRenderer(Options{Width: 0, Height: 10}, nil); err == nil {
		t.Error("expected error for zero width")
	}
}
