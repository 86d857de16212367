// Package errp provides error helpers that attach a stack trace at the
// point of creation, the same convention the wider device-communication
// code in this tree relies on for diagnosing failures after the fact.
package errp

import (
	"fmt"

	"github.com/pkg/errors"
)

// New returns an error with the given message and a stack trace attached.
func New(message string) error {
	return errors.New(message)
}

// Newf returns a formatted error with a stack trace attached.
func Newf(format string, args ...interface{}) error {
	return errors.New(fmt.Sprintf(format, args...))
}

// WithStack annotates err with a stack trace recorded at this call, even
// if err already carries one. Safe to call on a nil error (returns nil).
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(err)
}

// WithMessage annotates err with message. No stack trace is added.
func WithMessage(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.WithMessage(err, message)
}
