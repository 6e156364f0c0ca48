// Package stroke defines the vector input records captured from a drawing
// surface: sampled points grouped into strokes, strokes grouped into
// gestures. Stroke data is always copied by value across package
// boundaries; nothing in this package aliases a live input buffer.
package stroke

import (
	"image/color"
	"time"

	"github.com/google/uuid"
)

// Point is a single sampled input position.
type Point struct {
	X float64
	Y float64
}

// Stroke is one continuous pointer trace from press to release, plus the
// gesture metadata needed to replay or amend it.
type Stroke struct {
	// ID uniquely identifies this stroke.
	ID uuid.UUID

	// Gesture groups strokes delivered by separate pointers of the same
	// multi-point gesture.
	Gesture uuid.UUID

	// Pointer is the input-device pointer identifier (0 = primary).
	Pointer int

	// Color is the paint color for this stroke.
	Color color.RGBA

	// Width is the brush width in surface pixels.
	Width float64

	// Points are the sampled positions in input order.
	Points []Point

	// Started is when the first point was sampled.
	Started time.Time
}

// New creates an empty stroke for the given gesture and pointer.
func New(gesture uuid.UUID, pointer int, c color.RGBA, width float64) *Stroke {
	if width <= 0 {
		width = 1
	}
	return &Stroke{
		ID:      uuid.New(),
		Gesture: gesture,
		Pointer: pointer,
		Color:   c,
		Width:   width,
		Started: time.Now(),
	}
}

// Append adds a sampled point to the stroke.
func (s *Stroke) Append(p Point) {
	s.Points = append(s.Points, p)
}

// Len returns the number of sampled points.
func (s *Stroke) Len() int {
	return len(s.Points)
}

// Clone returns a deep copy of the stroke.
func (s *Stroke) Clone() *Stroke {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Points = make([]Point, len(s.Points))
	copy(clone.Points, s.Points)
	return &clone
}

// List is an ordered sequence of strokes, oldest first.
type List []*Stroke

// Clone returns a deep copy of the list. The result shares no memory with
// the receiver.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	clone := make(List, len(l))
	for i, s := range l {
		clone[i] = s.Clone()
	}
	return clone
}

// PointCount returns the total number of sampled points across all strokes.
func (l List) PointCount() int {
	total := 0
	for _, s := range l {
		total += len(s.Points)
	}
	return total
}
