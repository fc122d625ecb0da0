package archive

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that no sidecar carries the requested id.
var ErrNotFound = errors.New("saved image not found")

// PersistenceError reports a failed save. Nothing from a failed save is
// left behind as a valid entry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save image: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ErrorType names the failure class in HTTP error bodies.
func (e *PersistenceError) ErrorType() string {
	return "PersistenceError"
}
