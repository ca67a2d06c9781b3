package types

import (
	"errors"
	"fmt"
)

// ValidationError indicates bad input detected before any external call was
// made. Batch operations abort entirely on validation errors; everything
// downstream of validation isolates failures per issue instead.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
