package facts

import (
	"errors"
	"fmt"
)

// ErrParse is matched by every *ParseError via errors.Is.
var ErrParse = errors.New("unparsable source")

// ParseError reports that a file is not syntactically valid Python.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Near   string
}

func (e *ParseError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("%s:%d:%d: syntax error near %q", e.Path, e.Line, e.Column, e.Near)
	}
	return fmt.Sprintf("%s:%d:%d: syntax error", e.Path, e.Line, e.Column)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// IOError wraps a filesystem failure while reading a candidate file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
