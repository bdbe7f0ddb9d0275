// Package layoutfeed supplies the plant layout: a Feed holding the current triple and a
// Watcher that reloads it from layout files on disk.
package layoutfeed

import (
	"errors"
	"fmt"
	"os"

	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/reactive"
	"gopkg.in/yaml.v3"
)

// ErrInvalidLayout is returned for layout documents that cannot be used
var ErrInvalidLayout = errors.New("invalid layout")

// Feed holds the current layout. Set replaces all three counts in one step, so subscribers
// never observe a partially updated triple.
type Feed struct {
	state *reactive.State[grid.LayoutSpec]
}

// NewFeed returns a feed starting at initial
func NewFeed(initial grid.LayoutSpec) *Feed {
	return &Feed{state: reactive.NewState(initial)}
}

// Get returns the current layout
func (f *Feed) Get() grid.LayoutSpec { return f.state.Get() }

// Set publishes a new layout
func (f *Feed) Set(spec grid.LayoutSpec) { f.state.Set(spec) }

// Subscribe observes layout changes
func (f *Feed) Subscribe(fn func(grid.LayoutSpec)) func() { return f.state.Subscribe(fn) }

// Parse decodes a layout document. All three counts are required. Negative counts are
// accepted and generate an empty level; a layout with more than limit nodes on any level is
// rejected. A non-positive limit means grid.MaxPanels.
func Parse(data []byte, limit int) (grid.LayoutSpec, error) {
	var doc grid.Fields
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return grid.LayoutSpec{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	spec, err := doc.Spec(limit)
	if err != nil {
		return grid.LayoutSpec{}, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	return spec, nil
}

// Load reads and parses a layout file
func Load(path string, limit int) (grid.LayoutSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return grid.LayoutSpec{}, fmt.Errorf("reading layout %s: %w", path, err)
	}
	spec, err := Parse(data, limit)
	if err != nil {
		return grid.LayoutSpec{}, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Save writes spec as a layout document
func Save(path string, spec grid.LayoutSpec) error {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshalling layout: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
