package vm

import (
	"errors"
	"fmt"
)

// ErrRuntime is matched by every failure of the sandboxed program itself:
// *RuntimeError and *SyntaxError.
var ErrRuntime = errors.New("sandbox program failed")

// Error names used by the interpreter.
const (
	ReferenceError = "ReferenceError"
	TypeError      = "TypeError"
	RangeError     = "RangeError"
	GenericError   = "Error"
)

// RuntimeError is an error raised while the program runs.
type RuntimeError struct {
	Name    string
	Message string
	Line    int // 0 when unknown
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Name, e.Message, e.Line)
	}
	return e.Name + ": " + e.Message
}

// Is matches ErrRuntime.
func (e *RuntimeError) Is(target error) bool {
	return target == ErrRuntime
}

// Throw returns a RuntimeError for native functions to report.
func Throw(name, format string, args ...any) *RuntimeError {
	return &RuntimeError{Name: name, Message: fmt.Sprintf(format, args...)}
}

// SyntaxError reports source that could not be compiled.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError: %s (line %d:%d)", e.Message, e.Line, e.Column)
}

// Is matches ErrRuntime.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrRuntime
}
