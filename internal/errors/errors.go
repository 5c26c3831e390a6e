// internal/errors/errors.go
package errors

import "fmt"

// ErrInvalidParam is returned when a request query parameter fails
// validation. Handlers translate it into a 400 response before any I/O
// is attempted.
type ErrInvalidParam struct {
	Param  string
	Reason string
}

func (e *ErrInvalidParam) Error() string {
	return fmt.Sprintf("invalid %q parameter: %s", e.Param, e.Reason)
}
