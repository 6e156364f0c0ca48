// Package history provides the snapshot stack behind undo/redo for a
// drawing surface.
//
// # Snapshots
//
// A Snapshot is one recorded (bitmap, stroke list) pair representing the
// surface at a point in time. The bitmap is an opaque encoding of the
// surface's pixels; the stroke list is a deep copy of the surface's vector
// input records. A snapshot is immutable after capture, with one exception:
// a continuation capture replaces its stroke list in place (see below).
//
// # The Stack
//
// Stack holds snapshots in capture order with a cursor pointing at the
// entry currently reflected on the surface:
//
//	stack := history.NewStack(256)
//	stack.Capture(img, strokes, false)
//
//	if snap, ok := stack.Undo(); ok {
//		// restore snap to the surface
//	}
//
// Undo and Redo move the cursor without discarding entries; boundary
// conditions are silent no-ops, not errors. A new capture after undo
// truncates the forward branch, so history stays strictly linear.
//
// # Continuation captures
//
// When a multi-point gesture delivers a late pointer release after the
// gesture has already been snapshotted, the extra points belong to the
// existing entry. Capturing with continuation=true replaces the current
// entry's stroke list wholesale and leaves the bitmap, stack length, and
// cursor untouched.
package history
