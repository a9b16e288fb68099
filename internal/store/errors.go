package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("store: object not found")

// Error is a transport or backend fault. It is considered transient: the
// retry wrapper backs off and reissues the operation.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store: %s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s '%s': %s", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
