package hierarchy

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how a subtree is serialized.
type Format string

const (
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. The empty string means XML.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatXML, nil
	case FormatXML, FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown dump format %q (want xml, yaml or json)", s)
	}
}

// Element is the structured form of a subtree used for YAML and JSON output.
type Element struct {
	Tag        string            `json:"tag" yaml:"tag"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Children   []*Element        `json:"children,omitempty" yaml:"children,omitempty"`
}

// Subtree converts the subtree rooted at id into an Element.
func (t *Tree) Subtree(id NodeID) *Element {
	n := &t.nodes[id]
	el := &Element{Tag: n.tag}
	if len(n.attrs) > 0 {
		el.Attributes = make(map[string]string, len(n.attrs))
		for _, a := range n.attrs {
			el.Attributes[a.Name] = a.Value
		}
	}
	for _, c := range n.children {
		el.Children = append(el.Children, t.Subtree(c))
	}
	return el
}

// Dump writes the subtree rooted at id in the given format.
func (t *Tree) Dump(w io.Writer, id NodeID, f Format) error {
	if !t.Valid(id) {
		return fmt.Errorf("no node %d in a tree of %d nodes", id, t.Len())
	}
	switch f {
	case FormatXML, "":
		return t.writeXML(w, id, 0)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t.Subtree(id)); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t.Subtree(id))
	default:
		return fmt.Errorf("unknown dump format %q", f)
	}
}

// DumpString is Dump into a string.
func (t *Tree) DumpString(id NodeID, f Format) (string, error) {
	var sb strings.Builder
	if err := t.Dump(&sb, id, f); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// writeXML writes nodes back using the dump's own attribute names.
func (t *Tree) writeXML(w io.Writer, id NodeID, depth int) error {
	n := &t.nodes[id]
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteByte('<')
	sb.WriteString(n.tag)
	for _, a := range n.attrs {
		name := a.Name
		if src, ok := sourceNames[name]; ok {
			name = src
		}
		sb.WriteByte(' ')
		sb.WriteString(name)
		sb.WriteString(`="`)
		if err := xml.EscapeText(&sb, []byte(a.Value)); err != nil {
			return err
		}
		sb.WriteByte('"')
	}
	if len(n.children) == 0 {
		sb.WriteString(" />\n")
		_, err := io.WriteString(w, sb.String())
		return err
	}
	sb.WriteString(">\n")
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := t.writeXML(w, c, depth+1); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s</%s>\n", strings.Repeat("  ", depth), n.tag)
	return err
}
