package selector

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind identifies a lexical token.
type TokenKind int

const (
	TokEOF      TokenKind = iota
	TokLBracket           // [
	TokRBracket           // ]
	TokLParen             // (
	TokRParen             // )
	TokChild              // >
	TokComma              // ,
	TokColon              // :
	TokOp                 // = ^= $= *=
	TokIdent              // attribute or pseudo-class name
	TokValue              // unquoted attribute value
	TokString             // quoted attribute value, quotes removed
)

var tokenNames = map[TokenKind]string{
	TokEOF:      "end of input",
	TokLBracket: "'['",
	TokRBracket: "']'",
	TokLParen:   "'('",
	TokRParen:   "')'",
	TokChild:    "'>'",
	TokComma:    "','",
	TokColon:    "':'",
	TokOp:       "operator",
	TokIdent:    "identifier",
	TokValue:    "value",
	TokString:   "string",
}

func (k TokenKind) String() string {
	if n, ok := tokenNames[k]; ok {
		return n
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one lexical unit. Pos and End are byte offsets into the input.
type Token struct {
	Kind TokenKind
	Text string
	Op   Op
	Pos  int
	End  int
}

func (t Token) describe() string {
	switch t.Kind {
	case TokIdent, TokValue, TokString, TokOp:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

// Tokenize converts selector text into tokens terminated by TokEOF.
//
// Text whose first non-blank character starts an identifier is read in the
// legacy name=value form: the value is the remainder of the input, with
// one pair of surrounding quotes removed.
func Tokenize(text string) ([]Token, error) {
	lx := &lexer{input: text}
	lx.skipSpace()
	if r, _ := lx.peek(); isNameRune(r) {
		return lx.legacy()
	}
	return lx.run()
}

type lexer struct {
	input string
	pos   int
	toks  []Token
}

func (lx *lexer) peek() (rune, int) {
	if lx.pos >= len(lx.input) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(lx.input[lx.pos:])
}

func (lx *lexer) skipSpace() {
	for {
		r, w := lx.peek()
		if w == 0 || !unicode.IsSpace(r) {
			return
		}
		lx.pos += w
	}
}

func (lx *lexer) emit(kind TokenKind, start int, text string) {
	lx.toks = append(lx.toks, Token{Kind: kind, Text: text, Pos: start, End: lx.pos})
}

func (lx *lexer) run() ([]Token, error) {
	for {
		lx.skipSpace()
		start := lx.pos
		r, w := lx.peek()
		if w == 0 {
			lx.emit(TokEOF, start, "")
			return lx.toks, nil
		}

		switch {
		case r == '[':
			lx.pos += w
			lx.emit(TokLBracket, start, "[")
		case r == ']':
			lx.pos += w
			lx.emit(TokRBracket, start, "]")
		case r == '(':
			lx.pos += w
			lx.emit(TokLParen, start, "(")
		case r == ')':
			lx.pos += w
			lx.emit(TokRParen, start, ")")
		case r == '>':
			lx.pos += w
			lx.emit(TokChild, start, ">")
		case r == ',':
			lx.pos += w
			lx.emit(TokComma, start, ",")
		case r == ':':
			lx.pos += w
			lx.emit(TokColon, start, ":")
		case r == '=' || r == '^' || r == '$' || r == '*':
			if err := lx.operator(); err != nil {
				return nil, err
			}
			if err := lx.value(); err != nil {
				return nil, err
			}
		case r == '"' || r == '\'':
			if err := lx.quoted(TokString); err != nil {
				return nil, err
			}
		case isNameRune(r):
			lx.ident()
		default:
			return nil, syntaxErrorf(lx.input, start, "unexpected character %q", r)
		}
	}
}

func (lx *lexer) operator() error {
	start := lx.pos
	r, w := lx.peek()
	op := OpEquals
	switch r {
	case '^':
		op = OpStartsWith
	case '$':
		op = OpEndsWith
	case '*':
		op = OpContains
	}
	lx.pos += w
	if op != OpEquals {
		if next, nw := lx.peek(); next == '=' {
			lx.pos += nw
		} else {
			return syntaxErrorf(lx.input, start, "unrecognized operator %q (expected =, ^=, $= or *=)", string(r))
		}
	}
	lx.toks = append(lx.toks, Token{Kind: TokOp, Text: op.String(), Op: op, Pos: start, End: lx.pos})
	return nil
}

// value reads the attribute value following an operator. Unquoted values
// run to the next blank or ']', so they may contain ':', ',' and the like.
func (lx *lexer) value() error {
	lx.skipSpace()
	r, w := lx.peek()
	if w == 0 || r == ']' {
		return nil
	}
	if r == '"' || r == '\'' {
		return lx.quoted(TokString)
	}
	start := lx.pos
	for {
		r, w := lx.peek()
		if w == 0 || r == ']' || unicode.IsSpace(r) {
			break
		}
		lx.pos += w
	}
	lx.emit(TokValue, start, lx.input[start:lx.pos])
	return nil
}

// quoted reads a string delimited by ' or ". There are no escapes: the
// string ends at the next occurrence of the opening quote.
func (lx *lexer) quoted(kind TokenKind) error {
	start := lx.pos
	q := lx.input[lx.pos]
	end := strings.IndexByte(lx.input[start+1:], q)
	if end < 0 {
		return syntaxErrorf(lx.input, start, "unterminated string")
	}
	lx.pos = start + 1 + end + 1
	lx.emit(kind, start, lx.input[start+1:start+1+end])
	return nil
}

func (lx *lexer) ident() {
	start := lx.pos
	for {
		r, w := lx.peek()
		if w == 0 || !isNameRune(r) {
			break
		}
		lx.pos += w
	}
	lx.emit(TokIdent, start, lx.input[start:lx.pos])
}

// legacy tokenizes "name=value" into identifier, '=' and string tokens.
func (lx *lexer) legacy() ([]Token, error) {
	lx.ident()
	lx.skipSpace()

	start := lx.pos
	r, w := lx.peek()
	switch {
	case w == 0:
		return nil, syntaxErrorf(lx.input, start, "expected '=' after attribute name")
	case r == '^' || r == '$' || r == '*':
		return nil, syntaxErrorf(lx.input, start, "legacy selectors only support '=', use [name%c=value]", r)
	case r != '=':
		return nil, syntaxErrorf(lx.input, start, "unexpected character %q in legacy selector", r)
	}
	lx.pos += w
	lx.toks = append(lx.toks, Token{Kind: TokOp, Text: "=", Op: OpEquals, Pos: start, End: lx.pos})

	lx.skipSpace()
	vstart := lx.pos
	value := strings.TrimRightFunc(lx.input[lx.pos:], unicode.IsSpace)
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	lx.pos = len(lx.input)
	if value == "" {
		return nil, syntaxErrorf(lx.input, vstart, "empty value in legacy selector")
	}
	lx.toks = append(lx.toks, Token{Kind: TokString, Text: value, Pos: vstart, End: lx.pos})
	lx.emit(TokEOF, lx.pos, "")
	return lx.toks, nil
}

func isNameRune(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
