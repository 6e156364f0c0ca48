// Package script runs user Lua hooks on history events.
//
// A hook file defines global functions that the engine calls as the
// history changes:
//
//	function on_capture(cursor, strokes) ... end
//	function on_undo(cursor) ... end
//	function on_redo(cursor) ... end
//	function on_reset() ... end
//
// Undefined hooks are skipped. The Lua state is sandboxed: only the
// base, table, string, and math libraries are opened, and the loading
// functions (dofile, loadfile, load) are removed. Hook errors are
// logged and never propagate to the caller.
package script
