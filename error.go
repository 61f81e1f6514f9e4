package subsim

import (
	"errors"
	"strings"
)

// ErrNoTransport is returned when loop is created without transport.
var ErrNoTransport = errors.New("transport is required")

// ErrNoProjector is returned when loop is created without projector.
var ErrNoProjector = errors.New("projector is required")

// tickErrors wraps errors that occured during a single tick. A tick with
// errors is still completed.
type tickErrors []error

func (e tickErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Unwrap allows to match any of tick errors with errors.Is and errors.As.
func (e tickErrors) Unwrap() []error {
	return e
}

// ret returns untyped nil if error is list is empty.
func (e tickErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
