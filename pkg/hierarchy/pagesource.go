package hierarchy

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/devicelab-dev/bochi/pkg/core"
)

// ErrEmptyHierarchy is returned when a dump contains no elements.
var ErrEmptyHierarchy = errors.New("empty UI hierarchy")

// Parse parses uiautomator dump XML into a Tree.
//
// Every element becomes a node, including the enclosing <hierarchy>
// element, which becomes the root. Anything before the first '<' is
// ignored since adb sometimes prefixes the dump with status output.
func Parse(data []byte) (*Tree, error) {
	if i := bytes.IndexByte(data, '<'); i > 0 {
		data = data[i:]
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var b Builder
	depth := 0
	seenRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse XML: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if depth == 0 && seenRoot {
				return nil, fmt.Errorf("parse XML: multiple root elements")
			}
			seenRoot = true
			attrs := make([]Attr, 0, len(el.Attr))
			for _, a := range el.Attr {
				attrs = append(attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			b.Open(el.Name.Local, attrs...)
			depth++
		case xml.EndElement:
			b.Close()
			depth--
		}
	}

	if !seenRoot {
		return nil, ErrEmptyHierarchy
	}
	return b.Build(), nil
}

// ParseString is Parse for string input.
func ParseString(s string) (*Tree, error) {
	return Parse([]byte(s))
}

// ParseBounds parses Android bounds "[x1,y1][x2,y2]".
func ParseBounds(s string) (core.Bounds, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") || strings.Count(s, "][") != 1 {
		return core.Bounds{}, false
	}
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return core.Bounds{}, false
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return core.Bounds{}, false
		}
		v[i] = n
	}

	return core.BoundsFromCorners(v[0], v[1], v[2], v[3]), true
}
