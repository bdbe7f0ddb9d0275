package vdom

import "sort"

// VKind represents the type of virtual node
type VKind uint8

const (
	// KindElement represents a DOM element node
	KindElement VKind = iota
	// KindText represents a text node
	KindText
	// KindFragment represents a fragment (multiple children without parent)
	KindFragment
)

// Props represents the properties/attributes of a VNode
type Props map[string]any

// Keys returns the prop names in sorted order, skipping key and event handlers
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k == "key" || IsEventProp(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VNode represents a virtual DOM node.
// Once created it should never be modified.
type VNode struct {
	// Kind determines the type of this node
	Kind VKind

	// Tag is the element tag name; only used when Kind == KindElement
	Tag string

	// Props contains all attributes for this node
	Props Props

	// Kids contains child nodes
	Kids []VNode

	// Key identifies a child across renders; empty means positional
	Key string

	// Text content (only used when Kind == KindText)
	Text string
}

// NewElement creates a new element VNode
func NewElement(tag string, props Props, children ...*VNode) *VNode {
	kids := make([]VNode, 0, len(children))
	for _, child := range children {
		if child == nil {
			continue
		}
		// Fragments are flattened into their parent
		if child.Kind == KindFragment {
			kids = append(kids, child.Kids...)
			continue
		}
		kids = append(kids, *child)
	}

	node := &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: props,
		Kids:  kids,
	}
	if key, ok := props["key"].(string); ok {
		node.Key = key
	}
	return node
}

// NewText creates a new text VNode
func NewText(text string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: text,
	}
}

// NewFragment creates a new fragment VNode
func NewFragment(children ...*VNode) *VNode {
	kids := make([]VNode, 0, len(children))
	for _, child := range children {
		if child != nil {
			kids = append(kids, *child)
		}
	}

	return &VNode{
		Kind: KindFragment,
		Kids: kids,
	}
}

// IsElement returns true if this is an element node
func (v VNode) IsElement() bool {
	return v.Kind == KindElement
}

// IsText returns true if this is a text node
func (v VNode) IsText() bool {
	return v.Kind == KindText
}

// Attr returns a prop as a string, or "" when absent
func (v VNode) Attr(name string) string {
	if v.Props == nil {
		return ""
	}
	if val, ok := v.Props[name]; ok {
		return propToString(val)
	}
	return ""
}

// Find returns the first element in the tree whose id prop equals id
func (v *VNode) Find(id string) *VNode {
	if v == nil {
		return nil
	}
	if v.Kind == KindElement && v.Attr("id") == id {
		return v
	}
	for i := range v.Kids {
		if found := v.Kids[i].Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the number of nodes in the tree, including v
func (v *VNode) Count() int {
	if v == nil {
		return 0
	}
	n := 1
	for i := range v.Kids {
		n += v.Kids[i].Count()
	}
	return n
}

// IsEventProp reports whether a prop name is an event handler (onClick, onwheel, ...)
func IsEventProp(key string) bool {
	return len(key) > 2 && key[0] == 'o' && key[1] == 'n'
}
