package adapter

import (
	"errors"
	"fmt"
)

// TransientError wraps a failure worth retrying: network timeouts, 5xx
// responses, rate-limit rejections. Adapters classify their wire failures
// into transient or permanent so the engines never inspect platform errors.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transientf builds a TransientError from a formatted message.
func Transientf(format string, args ...any) *TransientError {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

// PermanentError wraps a failure that retrying cannot fix: permission denied,
// not-found, validation rejected by the tracker.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %v", e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanentf builds a PermanentError from a formatted message.
func Permanentf(format string, args ...any) *PermanentError {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// ErrNotFound is the conventional cause for missing issues. Wrap it in a
// PermanentError: &PermanentError{Err: ErrNotFound}.
var ErrNotFound = errors.New("issue not found")

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err is (or wraps) a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
