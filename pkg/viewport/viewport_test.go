package viewport

import (
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestZoomController_ClampInvariant(t *testing.T) {
	z := NewZoomController()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		switch rng.Intn(3) {
		case 0:
			z.ZoomIn()
		case 1:
			z.ZoomOut()
		case 2:
			z.ZoomByWheel(rng.Float64()*200 - 100)
		}
		if s := z.Scale(); s < MinScale || s > MaxScale {
			t.Fatalf("step %d: scale %v out of range", i, s)
		}
	}
}

func TestZoomController_Steps(t *testing.T) {
	tests := []struct {
		name  string
		start float64
		op    func(z *ZoomController) float64
		want  float64
	}{
		{"zoom in", 1.0, (*ZoomController).ZoomIn, 1.1},
		{"zoom out", 1.0, (*ZoomController).ZoomOut, 0.9},
		{"zoom in at max", 5.0, (*ZoomController).ZoomIn, 5.0},
		{"zoom out at min", 0.1, (*ZoomController).ZoomOut, 0.1},
		{"wheel up", 2.0, func(z *ZoomController) float64 { return z.ZoomByWheel(-120) }, 2.2},
		{"wheel down", 2.0, func(z *ZoomController) float64 { return z.ZoomByWheel(120) }, 1.8},
		{"wheel up clamps", 4.9, func(z *ZoomController) float64 { return z.ZoomByWheel(-1) }, 5.0},
		{"wheel down clamps", 0.105, func(z *ZoomController) float64 { return z.ZoomByWheel(1) }, 0.1},
		{"reset", 3.3, (*ZoomController).Reset, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := NewZoomController()
			z.Set(tt.start)
			if got := tt.op(z); !near(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZoomController_SetRejectsDegenerate(t *testing.T) {
	z := NewZoomController()
	for _, v := range []float64{0, -3, math.NaN()} {
		if got := z.Set(v); got != MinScale {
			t.Errorf("Set(%v) = %v, want %v", v, got, MinScale)
		}
	}
	if got := z.Set(math.Inf(1)); got != MaxScale {
		t.Errorf("Set(+Inf) = %v, want %v", got, MaxScale)
	}
}

func TestDragTracker_DeltaExactness(t *testing.T) {
	vp := New()
	vp.Restore(Transform{Scale: 1, Position: Position{3, 4}})
	start := vp.State().Position

	vp.PointerDown(Mouse(10, 10))
	vp.PointerMove(Mouse(15, 12))
	vp.PointerMove(Mouse(20, 8))
	vp.PointerUp()

	got := vp.State().Position.Sub(start)
	if got != (Position{10, -2}) {
		t.Errorf("accumulated delta = %v, want (10, -2)", got)
	}
}

func TestDragTracker_States(t *testing.T) {
	d := NewDragTracker()

	if d.Cursor() != CursorGrab {
		t.Errorf("idle cursor = %q", d.Cursor())
	}
	if _, ok := d.Move(Mouse(1, 1)); ok {
		t.Error("move while idle should be ignored")
	}

	if !d.Press(Mouse(5, 5)) {
		t.Fatal("press should start a drag")
	}
	if d.Cursor() != CursorGrabbing {
		t.Errorf("dragging cursor = %q", d.Cursor())
	}
	if st := d.State(); st.Phase != Dragging || st.Anchor != (Position{5, 5}) {
		t.Errorf("unexpected state %+v", st)
	}

	d.Release()
	d.Release()
	if d.Active() {
		t.Error("release should return to idle")
	}
}

func TestDragTracker_SecondaryContactsIgnored(t *testing.T) {
	d := NewDragTracker()

	if d.Press(Touch(2, false, 0, 0)) {
		t.Error("non-primary touch must not start a drag")
	}

	d.Press(Touch(1, true, 0, 0))
	if d.Press(Touch(2, false, 50, 50)) {
		t.Error("second contact must not re-anchor")
	}
	if _, ok := d.Move(Touch(2, false, 60, 60)); ok {
		t.Error("move from untracked contact must be ignored")
	}
	delta, ok := d.Move(Touch(1, true, 4, -3))
	if !ok || delta != (Position{4, -3}) {
		t.Errorf("tracked move = %v, %v", delta, ok)
	}
}

func TestViewport_ResetIdempotent(t *testing.T) {
	vp := New()
	cp := NewControlPanel(vp)
	vp.Wheel(-1)
	vp.PointerDown(Mouse(0, 0))
	vp.PointerMove(Mouse(30, 30))
	vp.PointerUp()

	cp.Reset()
	once := vp.State()
	cp.Reset()
	twice := vp.State()

	if once != twice || once != Identity {
		t.Errorf("reset once = %+v, twice = %+v", once, twice)
	}
}

func TestViewport_ResetPublishesOnce(t *testing.T) {
	vp := New()
	vp.Restore(Transform{Scale: 2, Position: Position{9, 9}})

	var seen []Transform
	vp.Subscribe(func(t Transform) { seen = append(seen, t) })
	vp.Reset()

	if len(seen) != 1 || seen[0] != Identity {
		t.Errorf("observers saw %+v, want a single identity transform", seen)
	}
}

func TestControlPanel_ZoomRecentersWheelDoesNot(t *testing.T) {
	start := Transform{Scale: 1.2, Position: Position{40, -15}}

	buttons := New()
	buttons.Restore(start)
	NewControlPanel(buttons).ZoomIn()
	got := buttons.State()
	if !got.Position.IsZero() || !near(got.Scale, 1.3) {
		t.Errorf("button zoom = %+v, want scale 1.3 at origin", got)
	}

	wheel := New()
	wheel.Restore(start)
	wheel.Wheel(-100)
	got = wheel.State()
	if got.Position != start.Position {
		t.Errorf("wheel zoom moved position to %v", got.Position)
	}
	if near(got.Scale, start.Scale) {
		t.Error("wheel zoom should change scale")
	}
}

func TestControlPanel_Execute(t *testing.T) {
	vp := New()
	cp := NewControlPanel(vp)

	for _, name := range Commands {
		if !cp.Execute(name) {
			t.Errorf("command %q not recognised", name)
		}
	}
	if cp.Execute("rotate") {
		t.Error("unknown command accepted")
	}
	if vp.State() != Identity {
		t.Errorf("reset was last, got %+v", vp.State())
	}
}

func TestViewport_JumpToKeepsScale(t *testing.T) {
	vp := New()
	vp.Wheel(-1)
	scale := vp.State().Scale

	vp.JumpTo(Position{12, 34})
	if st := vp.State(); st.Scale != scale || st.Position != (Position{12, 34}) {
		t.Errorf("JumpTo = %+v", st)
	}
}

func TestViewport_CancelEndsDrag(t *testing.T) {
	vp := New()
	vp.PointerDown(Mouse(0, 0))
	vp.Cancel()
	vp.PointerMove(Mouse(10, 10))

	if vp.Drag().Phase != Idle || !vp.State().Position.IsZero() {
		t.Errorf("moves after cancel must be ignored: %+v", vp.State())
	}
}

func TestTransform_ScreenMapping(t *testing.T) {
	size := Size{W: 200, H: 100}
	tr := Transform{Scale: 2, Position: Position{10, -5}}

	// The centre of the surface only moves by the scaled translation
	got := tr.ToScreen(size.Center(), size)
	if got != (Position{120, 40}) {
		t.Errorf("ToScreen(center) = %v", got)
	}

	p := Position{37, 81}
	back := tr.ToSurface(tr.ToScreen(p, size), size)
	if !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Errorf("round trip = %v, want %v", back, p)
	}

	if Identity.ToScreen(p, size) != p {
		t.Error("identity must not move points")
	}
}

func TestTransform_CSS(t *testing.T) {
	tr := Transform{Scale: 1.5, Position: Position{40, -15}}
	want := "scale(1.5) translate(40px, -15px)"
	if got := tr.CSS(); got != want {
		t.Errorf("CSS() = %q, want %q", got, want)
	}
}
