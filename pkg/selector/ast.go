// Package selector implements the element selector language: a small
// CSS-inspired grammar of attribute assertions, the child combinator '>',
// comma-separated alternatives, and the :has() and :not() pseudo-classes.
//
//	[text="Submit"]                      text equals Submit
//	[class=Button][text=OK]              both assertions hold
//	[text=Cancel],[text=Back]            either selector matches
//	[class=List]:has([text="Item 1"])    some descendant matches
//	[scrollable=true] > [text^=Row]      direct parent/child chain
//	:not([enabled=false])                node does not match
//	text=Submit                          legacy form
//
// Whitespace never acts as a combinator; descendant reach is expressed
// only through :has().
package selector

import (
	"strings"
)

// Op is an attribute comparison operator.
type Op int

const (
	OpEquals     Op = iota // =
	OpStartsWith           // ^=
	OpEndsWith             // $=
	OpContains             // *=
)

// String returns the operator's source form.
func (o Op) String() string {
	switch o {
	case OpStartsWith:
		return "^="
	case OpEndsWith:
		return "$="
	case OpContains:
		return "*="
	default:
		return "="
	}
}

func (o Op) compare(actual, want string) bool {
	switch o {
	case OpStartsWith:
		return strings.HasPrefix(actual, want)
	case OpEndsWith:
		return strings.HasSuffix(actual, want)
	case OpContains:
		return strings.Contains(actual, want)
	default:
		return actual == want
	}
}

// Assertion compares one attribute of a node against a literal value.
type Assertion struct {
	Name  string
	Op    Op
	Value string
}

func (a Assertion) String() string {
	return "[" + a.Name + a.Op.String() + quoteValue(a.Value) + "]"
}

// Compound is an AND of assertions applying to a single node, plus
// optional :has() and :not() clauses. An empty Compound matches any node.
type Compound struct {
	Assertions []Assertion
	Has        *List
	Not        *List
}

func (c Compound) String() string {
	var sb strings.Builder
	for _, a := range c.Assertions {
		sb.WriteString(a.String())
	}
	if c.Has != nil {
		sb.WriteString(":has(" + c.Has.String() + ")")
	}
	if c.Not != nil {
		sb.WriteString(":not(" + c.Not.String() + ")")
	}
	return sb.String()
}

// Selector is a chain of compounds joined by the child combinator. The
// last compound names the matched node; each earlier compound must match
// the direct parent of the node matched by the one after it.
type Selector struct {
	Compounds []Compound
}

func (s Selector) String() string {
	parts := make([]string, len(s.Compounds))
	for i, c := range s.Compounds {
		parts[i] = c.String()
	}
	return strings.Join(parts, " > ")
}

// List is an OR of selectors.
type List struct {
	Selectors []Selector
}

func (l List) String() string {
	parts := make([]string, len(l.Selectors))
	for i, s := range l.Selectors {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

func quoteValue(v string) string {
	if !strings.Contains(v, `"`) {
		return `"` + v + `"`
	}
	return "'" + v + "'"
}

// attrAliases normalizes selector attribute names to the canonical names
// used by hierarchy nodes.
var attrAliases = map[string]string{
	"content-desc":        "contentDescription",
	"content_desc":        "contentDescription",
	"content-description": "contentDescription",
	"resource-id":         "resourceId",
	"resource_id":         "resourceId",
	"long-clickable":      "longClickable",
	"long_clickable":      "longClickable",
}

// NormalizeAttr returns the canonical form of a selector attribute name.
func NormalizeAttr(name string) string {
	if c, ok := attrAliases[name]; ok {
		return c
	}
	return name
}
