package selector

import "fmt"

// SyntaxError reports malformed selector text. Pos is a 0-based byte
// offset into Input.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid selector %q: %s at position %d", e.Input, e.Msg, e.Pos)
}

func syntaxErrorf(input string, pos int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Input: input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
