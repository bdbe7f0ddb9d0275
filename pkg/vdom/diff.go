package vdom

import (
	"fmt"
	"strconv"
)

// PatchOp represents the type of patch operation
type PatchOp uint8

const (
	// OpReplaceText replaces text node content
	OpReplaceText PatchOp = 0x01
	// OpSetAttribute sets or replaces an attribute
	OpSetAttribute PatchOp = 0x02
	// OpRemoveNode removes a node
	OpRemoveNode PatchOp = 0x03
	// OpInsertNode appends a new node under Path
	OpInsertNode PatchOp = 0x04
	// OpRemoveAttribute removes an attribute
	OpRemoveAttribute PatchOp = 0x06
	// OpReplaceNode swaps the node at Path for Node
	OpReplaceNode PatchOp = 0x08
)

// Patch represents a single DOM mutation. Path addresses a node by child indices from the
// root, e.g. "0/3/1"; the root itself is "".
type Patch struct {
	Op    PatchOp
	Path  string
	Key   string // Attribute key for set/remove attribute
	Value string // Text content or attribute value
	Node  *VNode // For insert and replace operations
}

// String returns a human-readable representation of the patch
func (p Patch) String() string {
	switch p.Op {
	case OpReplaceText:
		return fmt.Sprintf("ReplaceText(path=%q, text=%q)", p.Path, p.Value)
	case OpSetAttribute:
		return fmt.Sprintf("SetAttribute(path=%q, key=%q, value=%q)", p.Path, p.Key, p.Value)
	case OpRemoveAttribute:
		return fmt.Sprintf("RemoveAttribute(path=%q, key=%q)", p.Path, p.Key)
	case OpRemoveNode:
		return fmt.Sprintf("RemoveNode(path=%q)", p.Path)
	case OpInsertNode:
		return fmt.Sprintf("InsertNode(parent=%q)", p.Path)
	case OpReplaceNode:
		return fmt.Sprintf("ReplaceNode(path=%q)", p.Path)
	default:
		return fmt.Sprintf("Unknown(op=%d)", p.Op)
	}
}

// Diff computes the patches needed to transform prev into next
func Diff(prev, next *VNode) []Patch {
	patches := make([]Patch, 0, 8)
	return diffNode(patches, "", prev, next)
}

func childPath(parent string, i int) string {
	if parent == "" {
		return strconv.Itoa(i)
	}
	return parent + "/" + strconv.Itoa(i)
}

// diffNode recursively diffs two nodes at path
func diffNode(patches []Patch, path string, prev, next *VNode) []Patch {
	switch {
	case prev == nil && next == nil:
		return patches
	case next == nil:
		return append(patches, Patch{Op: OpRemoveNode, Path: path})
	case prev == nil:
		return append(patches, Patch{Op: OpReplaceNode, Path: path, Node: next})
	case prev == next:
		// A shared subtree, e.g. a memoized one, cannot have changed
		return patches
	}

	// Different node types, tags or keys - replace
	if prev.Kind != next.Kind || prev.Tag != next.Tag || prev.Key != next.Key {
		return append(patches, Patch{Op: OpReplaceNode, Path: path, Node: next})
	}

	switch prev.Kind {
	case KindText:
		if prev.Text != next.Text {
			patches = append(patches, Patch{Op: OpReplaceText, Path: path, Value: next.Text})
		}
	case KindElement:
		patches = diffProps(patches, path, prev.Props, next.Props)
		patches = diffChildren(patches, path, prev.Kids, next.Kids)
	case KindFragment:
		patches = diffChildren(patches, path, prev.Kids, next.Kids)
	}
	return patches
}

// diffProps diffs attributes in sorted key order; event handlers are not attributes
func diffProps(patches []Patch, path string, prevProps, nextProps Props) []Patch {
	for _, key := range prevProps.Keys() {
		if _, exists := nextProps[key]; !exists {
			patches = append(patches, Patch{Op: OpRemoveAttribute, Path: path, Key: key})
		}
	}

	for _, key := range nextProps.Keys() {
		nextVal := propToString(nextProps[key])
		if prevVal, exists := prevProps[key]; exists && propToString(prevVal) == nextVal {
			continue
		}
		patches = append(patches, Patch{Op: OpSetAttribute, Path: path, Key: key, Value: nextVal})
	}
	return patches
}

// diffChildren matches children by position. Removals run from the end so earlier paths
// stay valid while the patches are applied in order.
func diffChildren(patches []Patch, path string, prevKids, nextKids []VNode) []Patch {
	common := min(len(prevKids), len(nextKids))

	for i := 0; i < common; i++ {
		patches = diffNode(patches, childPath(path, i), &prevKids[i], &nextKids[i])
	}

	for i := len(prevKids) - 1; i >= common; i-- {
		patches = append(patches, Patch{Op: OpRemoveNode, Path: childPath(path, i)})
	}

	for i := common; i < len(nextKids); i++ {
		patches = append(patches, Patch{Op: OpInsertNode, Path: path, Node: &nextKids[i]})
	}
	return patches
}

func propToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
