package load

import (
	"errors"
	"strings"
)

// ErrSyntax is matched by every ParseError.
var ErrSyntax = errors.New("datatype: syntax error")

// ParseError reports a defect in a definition source.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("datatype: parse error")
	if e.File != "" || e.Line != 0 {
		b.WriteString(" at ")
		b.WriteString(Position{File: e.File, Line: e.Line, Column: e.Column}.String())
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrSyntax
}

// IsParseError reports whether the error is a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

func errorAt(pos Position, msg string) *ParseError {
	return &ParseError{File: pos.File, Line: pos.Line, Column: pos.Column, Message: msg}
}
