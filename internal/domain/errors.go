package domain

import "fmt"

// ValidationError marks input the caller can fix. HTTP handlers map it to
// a 400 response; everything else surfaces as an internal error.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
