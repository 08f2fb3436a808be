package crossmatch

import (
	"errors"
	"fmt"
)

// ErrUnexpected marks failures that abort the run instead of skipping an alert.
var ErrUnexpected = errors.New("unexpected cross-match failure")

// InputError reports a malformed caller-supplied parameter.
type InputError struct {
	Field string
	Value string
	Err   error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *InputError) Unwrap() error {
	return e.Err
}
