package selector

import "strings"

// Parse parses selector text into a List. Invalid text fails with a
// *SyntaxError; no partial result is ever returned.
func Parse(text string) (List, error) {
	toks, err := Tokenize(text)
	if err != nil {
		return List{}, err
	}
	p := &parser{input: text, toks: toks}
	return p.parse()
}

// MustParse is like Parse but panics on error.
func MustParse(text string) List {
	l, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return l
}

type parser struct {
	input string
	toks  []Token
	pos   int
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t Token, format string, args ...interface{}) error {
	return syntaxErrorf(p.input, t.Pos, format, args...)
}

// checkValue rejects values holding both quote characters. Quoted strings
// have no escapes, so such a value has no printable form.
func (p *parser) checkValue(t Token) error {
	if strings.ContainsRune(t.Text, '"') && strings.ContainsRune(t.Text, '\'') {
		return p.errorf(t, "value cannot contain both ' and \"")
	}
	return nil
}

func (p *parser) expect(kind TokenKind, context string) (Token, error) {
	t := p.next()
	if t.Kind != kind {
		if t.Kind == TokEOF {
			return t, p.errorf(t, "unexpected end of input, expected %s %s", kind, context)
		}
		return t, p.errorf(t, "expected %s %s, found %s", kind, context, t.describe())
	}
	return t, nil
}

func (p *parser) parse() (List, error) {
	first := p.peek()
	if first.Kind == TokEOF {
		return List{}, p.errorf(first, "empty selector")
	}
	if first.Kind == TokIdent {
		return p.parseLegacy()
	}

	list, err := p.parseList()
	if err != nil {
		return List{}, err
	}
	if t := p.peek(); t.Kind != TokEOF {
		return List{}, p.errorf(t, "unexpected %s", t.describe())
	}
	return list, nil
}

// parseLegacy handles the tokens produced for "name=value".
func (p *parser) parseLegacy() (List, error) {
	name := p.next()
	if _, err := p.expect(TokOp, "after attribute name"); err != nil {
		return List{}, err
	}
	value, err := p.expect(TokString, "after '='")
	if err != nil {
		return List{}, err
	}
	if err := p.checkValue(value); err != nil {
		return List{}, err
	}
	c := Compound{Assertions: []Assertion{{
		Name:  NormalizeAttr(name.Text),
		Op:    OpEquals,
		Value: value.Text,
	}}}
	return List{Selectors: []Selector{{Compounds: []Compound{c}}}}, nil
}

// SelectorList := Selector (',' Selector)*
func (p *parser) parseList() (List, error) {
	var list List
	for {
		sel, err := p.parseSelector()
		if err != nil {
			return List{}, err
		}
		list.Selectors = append(list.Selectors, sel)
		if p.peek().Kind != TokComma {
			return list, nil
		}
		p.next()
	}
}

// Selector := Compound ('>' Compound)*
func (p *parser) parseSelector() (Selector, error) {
	var sel Selector
	for {
		c, err := p.parseCompound()
		if err != nil {
			return Selector{}, err
		}
		sel.Compounds = append(sel.Compounds, c)
		if p.peek().Kind != TokChild {
			return sel, nil
		}
		p.next()
	}
}

// Compound := (AttrAssert | Pseudo)+
func (p *parser) parseCompound() (Compound, error) {
	var c Compound
	parts := 0
	for {
		t := p.peek()
		switch t.Kind {
		case TokLBracket:
			a, err := p.parseAssertion()
			if err != nil {
				return Compound{}, err
			}
			c.Assertions = append(c.Assertions, a)
		case TokColon:
			if err := p.parsePseudo(&c); err != nil {
				return Compound{}, err
			}
		default:
			if parts == 0 {
				if t.Kind == TokEOF {
					return Compound{}, p.errorf(t, "unexpected end of input, expected '[' or ':'")
				}
				return Compound{}, p.errorf(t, "expected '[' or ':', found %s", t.describe())
			}
			return c, nil
		}
		parts++
	}
}

// AttrAssert := '[' Ident Op Value ']'
func (p *parser) parseAssertion() (Assertion, error) {
	open := p.next()

	name, err := p.expect(TokIdent, "for attribute name")
	if err != nil {
		return Assertion{}, err
	}

	op := p.next()
	if op.Kind != TokOp {
		if op.Kind == TokEOF {
			return Assertion{}, p.errorf(open, "unterminated '['")
		}
		return Assertion{}, p.errorf(op, "expected operator (=, ^=, $= or *=), found %s", op.describe())
	}

	value := p.next()
	if value.Kind != TokValue && value.Kind != TokString {
		if value.Kind == TokEOF {
			return Assertion{}, p.errorf(open, "unterminated '['")
		}
		return Assertion{}, p.errorf(value, "expected value after %s", op.Text)
	}

	closing := p.next()
	if closing.Kind != TokRBracket {
		if closing.Kind == TokEOF {
			return Assertion{}, p.errorf(open, "unterminated '['")
		}
		return Assertion{}, p.errorf(closing, "expected ']', found %s", closing.describe())
	}
	if err := p.checkValue(value); err != nil {
		return Assertion{}, err
	}

	return Assertion{
		Name:  NormalizeAttr(name.Text),
		Op:    op.Op,
		Value: value.Text,
	}, nil
}

// Pseudo := ':has(' SelectorList ')' | ':not(' SelectorList ')'
func (p *parser) parsePseudo(c *Compound) error {
	colon := p.next()
	name := p.next()
	if name.Kind != TokIdent || name.Pos != colon.End {
		return p.errorf(colon, "expected pseudo-class name after ':'")
	}

	var slot **List
	switch name.Text {
	case "has":
		slot = &c.Has
	case "not":
		slot = &c.Not
	default:
		return p.errorf(name, "unknown pseudo-class :%s", name.Text)
	}
	if *slot != nil {
		return p.errorf(colon, "duplicate :%s() in one compound selector", name.Text)
	}

	open := p.next()
	if open.Kind != TokLParen || open.Pos != name.End {
		return p.errorf(name, "expected '(' after :%s", name.Text)
	}

	inner, err := p.parseList()
	if err != nil {
		return err
	}

	closing := p.next()
	if closing.Kind != TokRParen {
		if closing.Kind == TokEOF {
			return p.errorf(open, "unterminated :%s(", name.Text)
		}
		return p.errorf(closing, "expected ')', found %s", closing.describe())
	}

	*slot = &inner
	return nil
}
