package terraform

import "fmt"

// ParseError reports malformed structural syntax in a configuration
// file: unbalanced braces, unterminated strings, or resource blocks
// missing their labels. A ParseError rejects the whole file; there is
// no recovery.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func errParse(file string, line int, format string, args ...interface{}) error {
	return &ParseError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}
