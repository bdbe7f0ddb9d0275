package live

import (
	"sort"
	"testing"
	"time"

	"github.com/recera/solarview/pkg/dispatch"
	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/vdom"
	"github.com/recera/solarview/pkg/viewport"
	"github.com/recera/solarview/pkg/workspace"
)

// bigPlant has 2000 panels
var bigPlant = grid.LayoutSpec{SmbCount: 10, StringCount: 10, PanelCount: 20}

// TestPatchLatencyP95Under50ms drives a drag on a large plant through render, diff, encode
// and decode, which is the server side of every frame a session sends
func TestPatchLatencyP95Under50ms(t *testing.T) {
	const frames = 100

	ws := workspace.New(&workspace.Options{Layout: bigPlant})
	defer ws.Close()
	ws.Mount(viewport.Rect{})
	ws.Handle(dispatch.PointerDown(workspace.ElementSchematic, viewport.Mouse(0, 0)))

	last := ws.Render()
	latencies := make([]time.Duration, 0, frames)
	for i := 1; i <= frames; i++ {
		start := time.Now()

		ws.Handle(dispatch.PointerMove("", viewport.Mouse(float64(i), float64(i))))
		next := ws.Render()
		patches := vdom.Diff(last, next)
		data, err := EncodePatches(patches)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if _, err := DecodePatches(data); err != nil {
			t.Fatalf("decode: %v", err)
		}
		last = next

		latencies = append(latencies, time.Since(start))
	}

	p95 := percentile(latencies, 95)
	if p95 > 50*time.Millisecond {
		t.Errorf("Patch latency P95 is %v, expected <50ms", p95)
	}
	t.Logf("P50: %v, P95: %v, P99: %v", percentile(latencies, 50), p95, percentile(latencies, 99))
}

// BenchmarkPatchEncoding benchmarks binary patch encoding of a drag frame
func BenchmarkPatchEncoding(b *testing.B) {
	patches := []vdom.Patch{
		{Op: vdom.OpSetAttribute, Path: "0/0", Key: "style", Value: viewport.Transform{Scale: 1.5, Position: viewport.Position{X: 12, Y: -40}}.Style("grabbing")},
		{Op: vdom.OpReplaceText, Path: "1/3/0", Value: "150%"},
		{Op: vdom.OpSetAttribute, Path: "2/0", Key: "style", Value: "transform:scale(1)"},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodePatches(patches); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkInitialRender benchmarks the first frame of a session on a large plant
func BenchmarkInitialRender(b *testing.B) {
	ws := workspace.New(&workspace.Options{Layout: bigPlant})
	defer ws.Close()
	ws.Mount(viewport.Rect{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodePatches(vdom.Diff(nil, ws.Render())); err != nil {
			b.Fatal(err)
		}
	}
}

func percentile(latencies []time.Duration, p int) time.Duration {
	sorted := append([]time.Duration(nil), latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := (len(sorted)*p + 99) / 100
	if idx > 0 {
		idx--
	}
	return sorted[idx]
}
