package selector

import (
	"github.com/devicelab-dev/bochi/pkg/hierarchy"
)

// MatchAll returns every node of tree matched by l, in document order.
func MatchAll(tree *hierarchy.Tree, l List) []hierarchy.NodeID {
	var out []hierarchy.NodeID
	for id := hierarchy.NodeID(0); int(id) < tree.Len(); id++ {
		if l.Matches(tree, id) {
			out = append(out, id)
		}
	}
	return out
}

// First returns the first node in document order matched by l.
func First(tree *hierarchy.Tree, l List) (hierarchy.NodeID, bool) {
	for id := hierarchy.NodeID(0); int(id) < tree.Len(); id++ {
		if l.Matches(tree, id) {
			return id, true
		}
	}
	return hierarchy.NoNode, false
}

// Matches reports whether any alternative of l matches the node.
func (l List) Matches(tree *hierarchy.Tree, id hierarchy.NodeID) bool {
	for _, s := range l.Selectors {
		if s.Matches(tree, id) {
			return true
		}
	}
	return false
}

// Matches reports whether the node satisfies the last compound and each
// ancestor, walking strictly upward one parent at a time, satisfies the
// preceding compound. There is no backtracking: a compound that fails
// against the direct parent fails the whole chain.
func (s Selector) Matches(tree *hierarchy.Tree, id hierarchy.NodeID) bool {
	if len(s.Compounds) == 0 {
		return false
	}
	cur := id
	for i := len(s.Compounds) - 1; i >= 0; i-- {
		if cur == hierarchy.NoNode {
			return false
		}
		if !s.Compounds[i].Matches(tree, cur) {
			return false
		}
		cur = tree.Parent(cur)
	}
	return true
}

// Matches reports whether the node satisfies every assertion, has a
// strict descendant matching Has, and does not itself match Not.
func (c Compound) Matches(tree *hierarchy.Tree, id hierarchy.NodeID) bool {
	for _, a := range c.Assertions {
		if !a.Matches(tree, id) {
			return false
		}
	}
	if c.Has != nil && !hasDescendant(tree, id, *c.Has) {
		return false
	}
	if c.Not != nil && c.Not.Matches(tree, id) {
		return false
	}
	return true
}

// Matches compares the attribute value as a plain string. A missing
// attribute never matches, whatever the operator.
func (a Assertion) Matches(tree *hierarchy.Tree, id hierarchy.NodeID) bool {
	v, ok := tree.Attr(id, a.Name)
	if !ok {
		return false
	}
	return a.Op.compare(v, a.Value)
}

func hasDescendant(tree *hierarchy.Tree, id hierarchy.NodeID, l List) bool {
	first, end := tree.Descendants(id)
	for d := first; d < end; d++ {
		if l.Matches(tree, d) {
			return true
		}
	}
	return false
}
