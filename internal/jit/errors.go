package jit

import (
	"errors"
	"fmt"
)

var (
	ErrMethodNotFound = errors.New("method not found")
	ErrArgument       = errors.New("invalid argument")
	ErrAttribute      = errors.New("attribute not found")
)

// SyntaxError reports a problem found while compiling script source.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Msg)
}

func errorf(p Pos, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: p.Line, Col: p.Col, Msg: fmt.Sprintf(format, args...)}
}
