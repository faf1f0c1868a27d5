package diag

import (
	"fmt"
)

// InternalError is a broken backend invariant. The backend runs on validated
// input, so these are never recoverable for the current compilation.
type InternalError struct {
	Code    Code
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal compiler error %s: %s", e.Code.ID(), e.Message)
}

// Abort stops the current compilation with an ICE.
func Abort(code Code, format string, args ...any) {
	panic(&InternalError{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Recover converts a pending Abort into *errp. Any other panic is re-raised.
// Use as: defer diag.Recover(&err).
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	ice, ok := r.(*InternalError)
	if !ok {
		panic(r)
	}
	if errp != nil {
		*errp = ice
	}
}

// IsInternal reports whether err is an ICE and returns it.
func IsInternal(err error) (*InternalError, bool) {
	ice, ok := err.(*InternalError)
	return ice, ok
}
