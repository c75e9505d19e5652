package failure

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Kind is the machine-checkable category of a failure.
type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindDecode     Kind = "DecodeError"
	KindSelection  Kind = "SelectionError"
	KindTimeout    Kind = "TimeoutError"
	KindRuntime    Kind = "RuntimeError"
)

// Reference errors used as marks. Test with errors.Is or KindOf.
var (
	ErrValidation = errors.New("validation error")
	ErrDecode     = errors.New("decode error")
	ErrSelection  = errors.New("selection error")
	ErrTimeout    = errors.New("timeout error")
	ErrRuntime    = errors.New("runtime error")
)

// Validation returns a ValidationError.
func Validation(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// Selection returns a SelectionError.
func Selection(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrSelection)
}

// Decode returns a DecodeError. When cause is nil a new error is created.
func Decode(cause error, format string, args ...any) error {
	if cause == nil {
		return errors.Mark(errors.Newf(format, args...), ErrDecode)
	}
	return errors.Mark(errors.Wrapf(cause, format, args...), ErrDecode)
}

// Timeout returns a TimeoutError wrapping cause.
func Timeout(cause error, format string, args ...any) error {
	if cause == nil {
		return errors.Mark(errors.Newf(format, args...), ErrTimeout)
	}
	return errors.Mark(errors.Wrapf(cause, format, args...), ErrTimeout)
}

// Runtime returns a RuntimeError wrapping cause.
func Runtime(cause error, format string, args ...any) error {
	if cause == nil {
		return errors.Mark(errors.Newf(format, args...), ErrRuntime)
	}
	return errors.Mark(errors.Wrapf(cause, format, args...), ErrRuntime)
}

// KindOf classifies err. Unmarked errors are RuntimeErrors, except a context deadline
// which is a TimeoutError. KindOf(nil) returns "".
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrSelection):
		return KindSelection
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindRuntime
	}
}

// Report is the serializable form of a failure.
type Report struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"error"`
}

// Describe converts err into a Report. It returns nil for a nil error.
func Describe(err error) *Report {
	if err == nil {
		return nil
	}
	return &Report{Kind: KindOf(err), Message: err.Error()}
}
