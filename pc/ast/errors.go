package ast

import "fmt"

// ParseError reports a syntax error at a specific span. The parser does not
// attempt recovery; a caller re-parses the whole file on the next change.
type ParseError struct {
	Span    Span
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Span.Start, e.Span.End, e.Message)
}
