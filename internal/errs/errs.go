// Package errs defines error kinds shared across minipip components.
package errs

import "fmt"

// UserError marks a failure the user can fix by changing their input
// (bad spec, missing requirements file, no usable index). The CLI reports
// these with an "ERROR:" prefix and exits non-zero without a stack of
// wrapped context.
type UserError struct {
	msg string
}

// Userf creates a UserError with a formatted message.
func Userf(format string, args ...interface{}) error {
	return &UserError{msg: fmt.Sprintf(format, args...)}
}

func (e *UserError) Error() string {
	return e.msg
}
