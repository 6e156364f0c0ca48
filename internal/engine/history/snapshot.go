package history

import (
	"time"

	"github.com/dshills/inkwell/internal/bitmap"
	"github.com/dshills/inkwell/internal/engine/stroke"
)

// Snapshot is one history entry: the surface's encoded pixels and a deep
// copy of its stroke records at capture time.
type Snapshot struct {
	// Image is the encoded bitmap of the surface. Immutable.
	Image bitmap.Encoded

	// Strokes is the stroke data at capture time. Replaced wholesale by a
	// continuation capture, never merged or mutated otherwise.
	Strokes stroke.List

	// Taken is when the snapshot was captured.
	Taken time.Time
}

func newSnapshot(img bitmap.Encoded, strokes stroke.List) *Snapshot {
	return &Snapshot{
		Image:   img,
		Strokes: strokes,
		Taken:   time.Now(),
	}
}
