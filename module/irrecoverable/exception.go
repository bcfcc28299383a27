package irrecoverable

import (
	"errors"
	"fmt"
)

// exception represents an unexpected error. An unexpected error is any error returned
// by a function, other than the error specifically documented as expected in that
// function's interface. Typical examples are a corrupted database entry or a value
// that cannot be decoded. Callers must not treat an exception as a benign failure.
type exception struct {
	err error
}

func (e exception) Error() string {
	return e.err.Error()
}

func (e exception) Unwrap() error {
	return e.err
}

// NewException wraps the input error as an exception, stripping any sentinel error
// information from the error message.
func NewException(err error) error {
	return exception{err: err}
}

// NewExceptionf is NewException with the ability to add formatting and context to the
// error message.
func NewExceptionf(msg string, args ...interface{}) error {
	return NewException(fmt.Errorf(msg, args...))
}

// IsException returns whether err is (or wraps) an exception.
func IsException(err error) bool {
	var e exception
	return errors.As(err, &e)
}
