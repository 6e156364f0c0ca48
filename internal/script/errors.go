package script

import "errors"

// ErrEngineClosed is returned when an operation is attempted on a
// closed engine.
var ErrEngineClosed = errors.New("script: engine closed")
