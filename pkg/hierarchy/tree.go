// Package hierarchy models one point-in-time snapshot of an Android UI
// hierarchy as an arena of nodes.
//
// Nodes are stored in a slice in document (pre-order) order and refer to
// each other by index, so parent back-references never create ownership
// cycles. Node IDs are only meaningful for the Tree that produced them.
package hierarchy

import (
	"strings"

	"github.com/devicelab-dev/bochi/pkg/core"
)

// NodeID indexes a node inside its Tree.
type NodeID int

// NoNode is the parent of the root.
const NoNode NodeID = -1

// Canonical attribute names.
const (
	AttrText          = "text"
	AttrContentDesc   = "contentDescription"
	AttrResourceID    = "resourceId"
	AttrClass         = "class"
	AttrPackage       = "package"
	AttrCheckable     = "checkable"
	AttrChecked       = "checked"
	AttrClickable     = "clickable"
	AttrEnabled       = "enabled"
	AttrFocusable     = "focusable"
	AttrFocused       = "focused"
	AttrLongClickable = "longClickable"
	AttrPassword      = "password"
	AttrScrollable    = "scrollable"
	AttrSelected      = "selected"
	AttrBounds        = "bounds"
)

// sourceAliases maps uiautomator dump attribute names to canonical names.
var sourceAliases = map[string]string{
	"content-desc":   AttrContentDesc,
	"resource-id":    AttrResourceID,
	"long-clickable": AttrLongClickable,
}

// sourceNames is the inverse of sourceAliases, used when writing XML back out.
var sourceNames = map[string]string{
	AttrContentDesc:   "content-desc",
	AttrResourceID:    "resource-id",
	AttrLongClickable: "long-clickable",
}

// CanonicalAttr returns the canonical name for a dump attribute name.
func CanonicalAttr(name string) string {
	if c, ok := sourceAliases[name]; ok {
		return c
	}
	return name
}

// Attr is a single node attribute under its canonical name.
type Attr struct {
	Name  string
	Value string
}

type node struct {
	tag       string
	attrs     []Attr
	index     map[string]int
	parent    NodeID
	children  []NodeID
	end       NodeID // one past the last descendant
	bounds    core.Bounds
	hasBounds bool
}

// Tree is an immutable UI snapshot. Node 0 is the root.
type Tree struct {
	nodes []node
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the root node, or NoNode for an empty tree.
func (t *Tree) Root() NodeID {
	if len(t.nodes) == 0 {
		return NoNode
	}
	return 0
}

// Valid reports whether id names a node of this tree.
func (t *Tree) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Tag returns the element name the node was parsed from.
func (t *Tree) Tag(id NodeID) string { return t.nodes[id].tag }

// Attr returns an attribute by canonical name. A missing attribute
// reports ok=false, which is distinct from an empty value.
func (t *Tree) Attr(id NodeID, name string) (value string, ok bool) {
	n := &t.nodes[id]
	i, ok := n.index[name]
	if !ok {
		return "", false
	}
	return n.attrs[i].Value, true
}

// Attrs returns a copy of the node's attributes in source order.
func (t *Tree) Attrs(id NodeID) []Attr {
	return append([]Attr(nil), t.nodes[id].attrs...)
}

// Parent returns the parent of id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Children returns the direct children of id in document order.
func (t *Tree) Children(id NodeID) []NodeID {
	return append([]NodeID(nil), t.nodes[id].children...)
}

// Descendants returns the half-open ID range [first, end) of the strict
// descendants of id. The range is empty for a leaf.
func (t *Tree) Descendants(id NodeID) (first, end NodeID) {
	return id + 1, t.nodes[id].end
}

// Depth returns the number of ancestors of id.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for p := t.nodes[id].parent; p != NoNode; p = t.nodes[p].parent {
		d++
	}
	return d
}

// Bounds returns the parsed bounds of a node. ok is false when the node
// has no bounds attribute or it could not be parsed.
func (t *Tree) Bounds(id NodeID) (core.Bounds, bool) {
	n := &t.nodes[id]
	return n.bounds, n.hasBounds
}

// Info summarizes a node for results and logs.
func (t *Tree) Info(id NodeID) *core.ElementInfo {
	get := func(name string) string {
		v, _ := t.Attr(id, name)
		return v
	}
	b, ok := t.Bounds(id)
	return &core.ElementInfo{
		Text:        get(AttrText),
		ResourceID:  get(AttrResourceID),
		ContentDesc: get(AttrContentDesc),
		Class:       get(AttrClass),
		Bounds:      b,
		HasBounds:   ok,
		Enabled:     get(AttrEnabled) != "false",
		Focusable:   get(AttrFocusable) == "true",
	}
}

// Describe returns a short human-readable label for logs.
func (t *Tree) Describe(id NodeID) string {
	var parts []string
	if v, ok := t.Attr(id, AttrClass); ok && v != "" {
		parts = append(parts, v)
	} else {
		parts = append(parts, t.Tag(id))
	}
	for _, name := range []string{AttrResourceID, AttrText, AttrContentDesc} {
		if v, ok := t.Attr(id, name); ok && v != "" {
			parts = append(parts, name+"="+quote(v))
		}
	}
	if b, ok := t.Bounds(id); ok {
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if r := []rune(s); len(r) > 40 {
		s = string(r[:37]) + "..."
	}
	return `"` + s + `"`
}

// Builder constructs a Tree in document order. Open pushes a node as a
// child of the currently open node; Close pops it.
type Builder struct {
	nodes []node
	stack []NodeID
}

// Open adds a node under the innermost open node and makes it current.
// Attribute names are canonicalized and bounds are parsed here so that
// matching never repeats that work.
func (b *Builder) Open(tag string, attrs ...Attr) NodeID {
	id := NodeID(len(b.nodes))
	parent := NoNode
	if len(b.stack) > 0 {
		parent = b.stack[len(b.stack)-1]
		b.nodes[parent].children = append(b.nodes[parent].children, id)
	}

	n := node{
		tag:    tag,
		parent: parent,
		index:  make(map[string]int, len(attrs)),
	}
	for _, a := range attrs {
		a.Name = CanonicalAttr(a.Name)
		if i, dup := n.index[a.Name]; dup {
			n.attrs[i].Value = a.Value
			continue
		}
		n.index[a.Name] = len(n.attrs)
		n.attrs = append(n.attrs, a)
	}
	if i, ok := n.index[AttrBounds]; ok {
		n.bounds, n.hasBounds = ParseBounds(n.attrs[i].Value)
	}

	b.nodes = append(b.nodes, n)
	b.stack = append(b.stack, id)
	return id
}

// Close ends the innermost open node.
func (b *Builder) Close() {
	if len(b.stack) == 0 {
		return
	}
	id := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	b.nodes[id].end = NodeID(len(b.nodes))
}

// Leaf adds a node with no children.
func (b *Builder) Leaf(tag string, attrs ...Attr) NodeID {
	id := b.Open(tag, attrs...)
	b.Close()
	return id
}

// Build closes any open nodes and returns the tree. The Builder must not
// be reused afterwards.
func (b *Builder) Build() *Tree {
	for len(b.stack) > 0 {
		b.Close()
	}
	t := &Tree{nodes: b.nodes}
	b.nodes = nil
	return t
}

// A is shorthand for building attribute lists.
func A(kv ...string) []Attr {
	attrs := make([]Attr, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, Attr{Name: kv[i], Value: kv[i+1]})
	}
	return attrs
}
