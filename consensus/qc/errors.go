package qc

import (
	"errors"
	"fmt"
)

var (
	ErrLengthMismatch = errors.New("signer bitmap length does not match stake table")
	ErrBelowThreshold = errors.New("signed stake is below threshold")
	ErrCountMismatch  = errors.New("number of signatures does not match number of signers")
)

// ParameterError indicates that the inputs of a QC operation have an inconsistent shape,
// e.g. a signer bitmap of the wrong length or insufficient signed stake.
// Parameter errors are always caller-fixable and never retried internally.
type ParameterError struct {
	err error
}

func NewParameterError(err error) error {
	return ParameterError{err}
}

func NewParameterErrorf(msg string, args ...interface{}) error {
	return ParameterError{fmt.Errorf(msg, args...)}
}

func (e ParameterError) Error() string { return e.err.Error() }
func (e ParameterError) Unwrap() error { return e.err }

// IsParameterError returns whether err is a ParameterError
func IsParameterError(err error) bool {
	var e ParameterError
	return errors.As(err, &e)
}

// VerificationError indicates that the aggregated signature of a QC failed cryptographic
// verification. Callers must treat the QC as forged or malformed and reject it.
type VerificationError struct {
	err error
}

func NewVerificationErrorf(msg string, args ...interface{}) error {
	return VerificationError{fmt.Errorf(msg, args...)}
}

func (e VerificationError) Error() string { return e.err.Error() }
func (e VerificationError) Unwrap() error { return e.err }

// IsVerificationError returns whether err is a VerificationError
func IsVerificationError(err error) bool {
	var e VerificationError
	return errors.As(err, &e)
}
