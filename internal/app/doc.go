// Package app assembles the terminal sketchpad: a tcell screen, the
// canvas, the history controller, key bindings, Lua hooks, and live
// configuration reload.
//
// # Event loop
//
// Run owns the terminal. Mouse drags draw onto the canvas; releasing
// the button ends the gesture, which the controller captures as a
// snapshot. Key chords dispatch actions through the keymap. Restores
// complete asynchronously and repaint the screen via an interrupt
// event posted back into the loop.
package app
