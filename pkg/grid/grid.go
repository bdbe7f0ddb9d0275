// Package grid expands the three layout counts of a plant schematic into the
// SMB -> String -> Panel hierarchy that the workspace renders.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/recera/solarview/pkg/reactive"
)

// LayoutSpec is the count triple supplied by the layout form. It is always replaced as a
// whole, never field by field.
type LayoutSpec struct {
	SmbCount    int `json:"smbCount" yaml:"smb_count"`
	StringCount int `json:"stringCount" yaml:"string_count"`
	PanelCount  int `json:"panelCount" yaml:"panel_count"`
}

func (l LayoutSpec) String() string {
	return fmt.Sprintf("%d×%d×%d", l.SmbCount, l.StringCount, l.PanelCount)
}

// MaxPanels is the hard cap on any level of a generated grid. Generate expands nothing
// beyond it, whatever limit the caller configured.
const MaxPanels = 1 << 20

var (
	// ErrTooLarge is returned for a layout with more nodes on some level than the limit
	ErrTooLarge = errors.New("layout exceeds the panel limit")
	// ErrIncomplete is returned for a layout document missing one of the counts
	ErrIncomplete = errors.New("layout requires smb, string and panel counts")
)

// levels returns the node count of each level. ok is false when a product overflows.
func (l LayoutSpec) levels() (counts [3]int, ok bool) {
	n := 1
	for i, c := range [3]int{l.SmbCount, l.StringCount, l.PanelCount} {
		if c <= 0 {
			return counts, true
		}
		if n > math.MaxInt/c {
			return counts, false
		}
		n *= c
		counts[i] = n
	}
	return counts, true
}

// Panels returns the number of leaves the layout produces, or 0 when it overflows
func (l LayoutSpec) Panels() int {
	counts, ok := l.levels()
	if !ok {
		return 0
	}
	return counts[2]
}

// Check returns ErrTooLarge when any level of the layout would hold more than limit
// nodes. A non-positive limit, or one above MaxPanels, means MaxPanels.
func (l LayoutSpec) Check(limit int) error {
	if limit <= 0 || limit > MaxPanels {
		limit = MaxPanels
	}
	counts, ok := l.levels()
	if !ok {
		return fmt.Errorf("%w: %s overflows", ErrTooLarge, l)
	}
	for _, n := range counts {
		if n > limit {
			return fmt.Errorf("%w: %s has more than %d nodes on one level", ErrTooLarge, l, limit)
		}
	}
	return nil
}

// Fields is the decoded form of a layout document. A nil count was missing, which is
// different from an explicit zero.
type Fields struct {
	SmbCount    *int `json:"smbCount" yaml:"smb_count"`
	StringCount *int `json:"stringCount" yaml:"string_count"`
	PanelCount  *int `json:"panelCount" yaml:"panel_count"`
}

// Spec returns the layout when all three counts are present and it fits within limit
func (f Fields) Spec(limit int) (LayoutSpec, error) {
	if f.SmbCount == nil || f.StringCount == nil || f.PanelCount == nil {
		return LayoutSpec{}, ErrIncomplete
	}
	spec := LayoutSpec{
		SmbCount:    *f.SmbCount,
		StringCount: *f.StringCount,
		PanelCount:  *f.PanelCount,
	}
	if err := spec.Check(limit); err != nil {
		return LayoutSpec{}, err
	}
	return spec, nil
}

// Panel is a leaf of the grid
type Panel struct {
	Label string `json:"label"`
}

// String is an electrical string of panels under one SMB
type String struct {
	Panels []Panel `json:"panels"`
}

// SMB is a combiner box, the top-level schematic unit
type SMB struct {
	Strings []String `json:"strings"`
}

// Grid is the derived structure; it has no identity beyond its LayoutSpec
type Grid struct {
	Spec LayoutSpec `json:"spec"`
	SMBs []SMB      `json:"smbs"`
}

// Label returns the 1-based coordinate label for 0-based indices
func Label(smb, str, panel int) string {
	return fmt.Sprintf("%d.%d.%d", smb+1, str+1, panel+1)
}

// Generate expands the counts. A non-positive count yields an empty level, and a layout
// over MaxPanels yields an empty grid; the caller gets an empty grid rather than an error.
func Generate(smbCount, stringCount, panelCount int) Grid {
	g := Grid{Spec: LayoutSpec{smbCount, stringCount, panelCount}}
	if smbCount <= 0 {
		g.SMBs = []SMB{}
		return g
	}
	if g.Spec.Check(MaxPanels) != nil {
		g.SMBs = []SMB{}
		return g
	}

	g.SMBs = make([]SMB, smbCount)
	for i := range g.SMBs {
		g.SMBs[i].Strings = make([]String, max(stringCount, 0))
		for j := range g.SMBs[i].Strings {
			panels := make([]Panel, max(panelCount, 0))
			for k := range panels {
				panels[k].Label = Label(i, j, k)
			}
			g.SMBs[i].Strings[j].Panels = panels
		}
	}
	return g
}

// GenerateSpec is Generate over a LayoutSpec
func GenerateSpec(spec LayoutSpec) Grid {
	return Generate(spec.SmbCount, spec.StringCount, spec.PanelCount)
}

// Walk calls fn for every panel in order
func (g Grid) Walk(fn func(smb, str, panel int, p Panel)) {
	for i, s := range g.SMBs {
		for j, st := range s.Strings {
			for k, p := range st.Panels {
				fn(i, j, k, p)
			}
		}
	}
}

// Memo regenerates the grid only when the layout triple changes
type Memo struct {
	memo *reactive.Memo[LayoutSpec, Grid]
}

// NewMemo returns an empty grid memo
func NewMemo() *Memo {
	return &Memo{memo: reactive.NewMemo(GenerateSpec)}
}

// Get returns the grid for spec
func (m *Memo) Get(spec LayoutSpec) Grid {
	return m.memo.Get(spec)
}

// Generations reports how many times the grid has been derived
func (m *Memo) Generations() int {
	return m.memo.Runs()
}
