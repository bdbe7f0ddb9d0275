package grid

import (
	"errors"
	"reflect"
	"testing"
)

func TestGenerate_Determinism(t *testing.T) {
	a := Generate(2, 3, 4)
	b := Generate(2, 3, 4)

	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different grids")
	}
	if len(a.SMBs) != 2 {
		t.Fatalf("Expected 2 SMBs, got %d", len(a.SMBs))
	}
	for i, smb := range a.SMBs {
		if len(smb.Strings) != 3 {
			t.Fatalf("SMB %d: expected 3 strings, got %d", i, len(smb.Strings))
		}
		for j, str := range smb.Strings {
			if len(str.Panels) != 4 {
				t.Fatalf("string %d.%d: expected 4 panels, got %d", i, j, len(str.Panels))
			}
		}
	}
	if got := a.SMBs[0].Strings[1].Panels[2].Label; got != "1.2.3" {
		t.Errorf("label = %q, want %q", got, "1.2.3")
	}
}

func TestGenerate_DegenerateCounts(t *testing.T) {
	tests := []struct {
		name         string
		smb, str, pn int
		wantSMBs     int
		wantStrings  int
		wantPanels   int
	}{
		{"zero smbs", 0, 5, 5, 0, 0, 0},
		{"negative smbs", -1, 5, 5, 0, 0, 0},
		{"zero strings", 2, 0, 5, 2, 0, 0},
		{"negative panels", 2, 2, -3, 2, 4, 0},
		{"all zero", 0, 0, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Generate(tt.smb, tt.str, tt.pn)
			if g.SMBs == nil {
				t.Fatal("grid must be empty, not nil")
			}
			if len(g.SMBs) != tt.wantSMBs {
				t.Fatalf("SMBs = %d, want %d", len(g.SMBs), tt.wantSMBs)
			}
			strs, panels := 0, 0
			for _, s := range g.SMBs {
				strs += len(s.Strings)
				for _, st := range s.Strings {
					panels += len(st.Panels)
				}
			}
			if strs != tt.wantStrings || panels != tt.wantPanels {
				t.Errorf("strings=%d panels=%d, want %d and %d", strs, panels, tt.wantStrings, tt.wantPanels)
			}
		})
	}
}

func TestGrid_WalkOrder(t *testing.T) {
	var labels []string
	Generate(2, 1, 2).Walk(func(_, _, _ int, p Panel) {
		labels = append(labels, p.Label)
	})

	want := []string{"1.1.1", "1.1.2", "2.1.1", "2.1.2"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("Walk order = %v, want %v", labels, want)
	}
}

func TestLayoutSpec_Panels(t *testing.T) {
	if n := (LayoutSpec{2, 3, 4}).Panels(); n != 24 {
		t.Errorf("Panels() = %d, want 24", n)
	}
	if n := (LayoutSpec{2, -3, 4}).Panels(); n != 0 {
		t.Errorf("Panels() = %d, want 0", n)
	}
	if n := (LayoutSpec{1 << 40, 1 << 40, 1 << 40}).Panels(); n != 0 {
		t.Errorf("Panels() on overflow = %d, want 0", n)
	}
}

func TestLayoutSpec_Check(t *testing.T) {
	tests := []struct {
		name  string
		spec  LayoutSpec
		limit int
		ok    bool
	}{
		{"within limit", LayoutSpec{10, 10, 10}, 1000, true},
		{"at limit", LayoutSpec{1, 1, 1000}, 1000, true},
		{"panels over limit", LayoutSpec{10, 10, 11}, 1000, false},
		{"smbs over limit", LayoutSpec{2000, 0, 0}, 1000, false},
		{"strings over limit", LayoutSpec{100, 100, -1}, 1000, false},
		{"negatives", LayoutSpec{-5, -5, -5}, 1000, true},
		{"huge panel count", LayoutSpec{1, 1, 1 << 62}, 0, false},
		{"overflow", LayoutSpec{1 << 40, 1 << 40, 1 << 40}, 0, false},
		{"limit above hard cap", LayoutSpec{1, 1, MaxPanels + 1}, MaxPanels * 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Check(tt.limit)
			if tt.ok && err != nil {
				t.Errorf("Check(%d) = %v, want nil", tt.limit, err)
			}
			if !tt.ok && !errors.Is(err, ErrTooLarge) {
				t.Errorf("Check(%d) = %v, want ErrTooLarge", tt.limit, err)
			}
		})
	}
}

func TestGenerate_OverLimitIsEmpty(t *testing.T) {
	for _, spec := range []LayoutSpec{
		{1, 1, 1 << 62},
		{1 << 62, 1, 1},
		{1 << 40, 1 << 40, 1 << 40},
		{1, 1, MaxPanels + 1},
	} {
		g := GenerateSpec(spec)
		if len(g.SMBs) != 0 {
			t.Errorf("GenerateSpec(%s) produced %d SMBs, want none", spec, len(g.SMBs))
		}
		if g.Spec != spec {
			t.Errorf("Spec = %s, want %s", g.Spec, spec)
		}
	}
}

func TestFields_Spec(t *testing.T) {
	n := func(v int) *int { return &v }

	spec, err := Fields{n(3), n(0), n(-1)}.Spec(100)
	if err != nil {
		t.Fatalf("Spec() error: %v", err)
	}
	if spec != (LayoutSpec{3, 0, -1}) {
		t.Errorf("Spec() = %s", spec)
	}

	if _, err := (Fields{SmbCount: n(3)}).Spec(100); !errors.Is(err, ErrIncomplete) {
		t.Errorf("partial fields: got %v, want ErrIncomplete", err)
	}
	if _, err := (Fields{n(1), n(1), n(101)}).Spec(100); !errors.Is(err, ErrTooLarge) {
		t.Errorf("over limit: got %v, want ErrTooLarge", err)
	}
}

func TestMemo_RegeneratesOnlyOnChange(t *testing.T) {
	m := NewMemo()
	spec := LayoutSpec{3, 2, 5}

	first := m.Get(spec)
	for i := 0; i < 10; i++ {
		m.Get(spec)
	}
	if m.Generations() != 1 {
		t.Errorf("Expected 1 generation, got %d", m.Generations())
	}

	next := m.Get(LayoutSpec{3, 2, 6})
	if m.Generations() != 2 {
		t.Errorf("Expected 2 generations, got %d", m.Generations())
	}
	if reflect.DeepEqual(first, next) {
		t.Error("changed spec returned the cached grid")
	}
}

func TestLayout_Geometry(t *testing.T) {
	m := DefaultMetrics()
	boxes, size := Generate(2, 2, 3).Layout(m)

	// 2 SMBs + 4 strings + 12 panels
	if len(boxes) != 18 {
		t.Fatalf("Expected 18 boxes, got %d", len(boxes))
	}
	if boxes[0].Kind != KindSMB || boxes[1].Kind != KindString || boxes[2].Kind != KindPanel {
		t.Errorf("parents must precede children: %v %v %v", boxes[0].Kind, boxes[1].Kind, boxes[2].Kind)
	}

	var smbs []Box
	for _, b := range boxes {
		if b.Kind == KindSMB {
			smbs = append(smbs, b)
		}
		if b.X < 0 || b.Y < 0 || b.X+b.W > size.W || b.Y+b.H > size.H {
			t.Errorf("box %q escapes bounds %v: %+v", b.Label, size, b.Rect)
		}
	}
	if smbs[1].X <= smbs[0].X+smbs[0].W {
		t.Error("SMB columns overlap")
	}

	for _, b := range boxes {
		if b.Kind == KindPanel && b.Label == "2.2.3" {
			return
		}
	}
	t.Error("last panel missing from layout")
}

func TestLayout_Empty(t *testing.T) {
	boxes, size := Generate(0, 4, 4).Layout(DefaultMetrics())
	if len(boxes) != 0 || size.W != 0 || size.H != 0 {
		t.Errorf("empty grid laid out as %d boxes, %v", len(boxes), size)
	}
}
