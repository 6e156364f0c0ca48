// Package controller mediates between a drawing surface and its snapshot
// history.
//
// A Controller attaches to a Host surface, immediately captures the
// surface's initial state, and from then on keeps the history stack in
// lockstep with the surface's lifecycle:
//
//   - a pointer release captures a new snapshot, or amends the latest one
//     when the release is an additional pointer of an already-captured
//     gesture
//   - a clear resets the stack and re-seeds it with the blank surface, so
//     the stack is never empty while the surface is live
//   - destroy detaches the controller permanently
//
// Undo and Redo move the history cursor synchronously, then restore the
// target snapshot asynchronously: the snapshot bitmap is handed to a
// decoder, and the decoded image is pushed back into the surface when the
// decode completes. Because decodes complete in their own time, a result
// is applied only if no newer navigation or capture has happened since it
// was issued; stale results are dropped silently. Decode failures are
// reported through the error handler as a *RestoreError.
package controller
