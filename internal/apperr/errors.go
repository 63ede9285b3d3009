// Package apperr defines the error taxonomy shared across service boundaries.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// AdapterError is the single failure mode for page adapter calls: the
// expected DOM structure could not be located. It always carries a
// human-readable message and is surfaced to the operator verbatim.
type AdapterError struct {
	Message string
}

func (e *AdapterError) Error() string {
	return e.Message
}

// Adapterf builds an AdapterError with a formatted message.
func Adapterf(format string, args ...any) error {
	return &AdapterError{Message: fmt.Sprintf(format, args...)}
}

// IsAdapter reports whether err is (or wraps) an AdapterError.
func IsAdapter(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}
