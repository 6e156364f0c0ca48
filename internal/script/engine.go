package script

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkwell/internal/log"
)

// Hook function names looked up in the Lua globals.
const (
	hookCapture = "on_capture"
	hookUndo    = "on_undo"
	hookRedo    = "on_redo"
	hookReset   = "on_reset"
)

// Engine hosts a sandboxed Lua state and dispatches history events to
// the hook functions the loaded file defines.
//
// gopher-lua's LState is not goroutine-safe; the engine serializes all
// access through its mutex.
type Engine struct {
	mu     sync.Mutex
	state  *lua.LState
	logger *log.Logger
	closed bool
}

// New creates an engine with a fresh sandboxed state.
func New(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Null
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	return &Engine{
		state:  L,
		logger: logger.WithComponent("script"),
	}
}

// openSafeLibraries opens only the libraries hooks legitimately need.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Base brings the loading functions along; hooks have no business
	// loading further code.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// LoadFile executes the hook file, registering whatever global
// functions it defines.
func (e *Engine) LoadFile(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if err := e.doWithRecovery(func() error { return e.state.DoFile(path) }); err != nil {
		return fmt.Errorf("script: load %s: %w", path, err)
	}
	e.logger.Info("loaded hooks from %s", path)
	return nil
}

// LoadString executes Lua source directly. Used by tests and the
// interactive configuration.
func (e *Engine) LoadString(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if err := e.doWithRecovery(func() error { return e.state.DoString(src) }); err != nil {
		return fmt.Errorf("script: load: %w", err)
	}
	return nil
}

// SnapshotCaptured dispatches to on_capture.
func (e *Engine) SnapshotCaptured(cursor, strokes int) {
	e.call(hookCapture, lua.LNumber(cursor), lua.LNumber(strokes))
}

// CursorMoved dispatches to on_undo or on_redo.
func (e *Engine) CursorMoved(op string, cursor int) {
	switch op {
	case "undo":
		e.call(hookUndo, lua.LNumber(cursor))
	case "redo":
		e.call(hookRedo, lua.LNumber(cursor))
	}
}

// HistoryReset dispatches to on_reset.
func (e *Engine) HistoryReset() {
	e.call(hookReset)
}

// call invokes the named global hook if it is defined. Errors are
// logged, not returned; a broken hook must not break the editor.
func (e *Engine) call(name string, args ...lua.LValue) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	fn := e.state.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return
	}

	err := e.doWithRecovery(func() error {
		e.state.Push(fn)
		for _, arg := range args {
			e.state.Push(arg)
		}
		return e.state.PCall(len(args), 0, nil)
	})
	if err != nil {
		e.logger.Warn("hook %s failed: %v", name, err)
	}
}

func (e *Engine) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Global returns a global value from the Lua state. Used by tests to
// observe hook side effects.
func (e *Engine) Global(name string) lua.LValue {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return lua.LNil
	}
	return e.state.GetGlobal(name)
}

// Close releases the Lua state. Further calls are no-ops.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.state.Close()
	e.closed = true
	return nil
}
