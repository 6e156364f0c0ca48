// Package canvas implements the freehand drawing surface the history
// engine attaches to.
//
// A Canvas owns a pixel buffer and the live stroke records drawn onto it.
// Pointer input arrives through BeginStroke, ExtendStroke, and EndStroke;
// strokes are rasterized into the pixel buffer as points arrive. Strokes
// started while another pointer is still down belong to the same gesture,
// and their releases after the gesture's first release are reported as
// additional (continuation) releases.
//
// Lifecycle observers register callbacks with OnGestureEnd, OnClear, and
// OnDestroy. Handlers are kept in explicit lists and invoked in
// registration order; each registration returns a remove function so an
// observer can detach without touching anyone else's callbacks.
package canvas
