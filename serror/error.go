package serror

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when a backend was constructed without its runtime connection. It is a
	// configuration fact, and callers should not retry.
	ErrUnavailable = errors.New("runtime unavailable")
	// ErrNotExported is returned when an anchor identity does not resolve to an exported spatial.
	ErrNotExported = errors.New("anchor not exported")
)

type Error struct {
	Err string
}

// New creates a new error with the given format and arguments.
func New(format string, args ...any) *Error {
	if len(args) == 0 {
		return &Error{Err: format}
	}
	return &Error{Err: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Err
}
