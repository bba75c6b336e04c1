package run

import (
	"errors"
	"fmt"
)

// AbortError stops a reduction early. It travels through the strategies
// as an ordinary error and is resolved by Start.
type AbortError struct {
	Reason string
}

func (e *AbortError) Error() string {
	return e.Reason
}

func abortf(format string, args ...interface{}) error {
	return &AbortError{Reason: fmt.Sprintf(format, args...)}
}

func IsAbort(err error) bool {
	var abort *AbortError
	return errors.As(err, &abort)
}
