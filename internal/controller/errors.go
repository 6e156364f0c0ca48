package controller

import (
	"errors"
	"fmt"
)

// ErrDetached is returned by operations on a controller whose surface has
// been destroyed or which has been closed. A detached controller cannot be
// reattached; construct a new one.
var ErrDetached = errors.New("controller: detached from surface")

// RestoreError reports a failed snapshot restoration. The history cursor
// has already moved; only the surface update was lost. The surface can be
// brought back in sync with another navigation or a Reset.
type RestoreError struct {
	// Cursor is the stack index of the snapshot that failed to restore.
	Cursor int

	// Err is the underlying decode failure.
	Err error
}

// Error implements the error interface.
func (e *RestoreError) Error() string {
	return fmt.Sprintf("controller: restore snapshot %d: %v", e.Cursor, e.Err)
}

// Unwrap returns the underlying error.
func (e *RestoreError) Unwrap() error {
	return e.Err
}
