package app

import "errors"

// ErrQuit is returned by action dispatch to stop the event loop. Run
// treats it as a clean exit.
var ErrQuit = errors.New("app: quit")
