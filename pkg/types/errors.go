package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by the engines, the service, and the client.
//
// Unknown ids in bulk operations are not an error anywhere in rumor; they
// are ignored one by one.
var (
	// ErrValidation marks a malformed request or a missing required field.
	// Callers report it immediately and never retry it.
	ErrValidation = errors.New("validation failed")

	// ErrTransient marks a channel failure: network error, timeout, or a
	// server-side fault. The client keeps its last good state.
	ErrTransient = errors.New("transient I/O failure")

	// ErrNotFound is returned when a single addressed entity does not exist.
	ErrNotFound = errors.New("entity not found")
)

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// ValidationError returns a described error wrapping ErrValidation.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Describe returns the description of a validation error without the
// sentinel prefix. Other errors are returned as their full message.
func Describe(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(ErrValidation.Error())+2:]
	}
	return msg
}
