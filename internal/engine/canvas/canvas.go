package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/inkwell/internal/bitmap"
	"github.com/dshills/inkwell/internal/engine/stroke"
)

// Canvas is an in-memory drawing surface: an RGBA pixel buffer plus the
// stroke records that produced it.
type Canvas struct {
	mu sync.Mutex

	width      int
	height     int
	background color.RGBA

	img     *image.RGBA
	strokes stroke.List

	// In-progress strokes by pointer identifier.
	active   map[int]*stroke.Stroke
	gesture  uuid.UUID
	released int // pointer releases seen in the current gesture

	// Lifecycle handlers, invoked in registration order.
	gestureEnd []registered[func(pointer int, additional bool)]
	clear      []registered[func()]
	destroy    []registered[func()]
	nextHandle int

	destroyed bool
}

type registered[T any] struct {
	id int
	fn T
}

// New creates a blank canvas of the given size.
func New(width, height int, background color.RGBA) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas: invalid size %dx%d", width, height)
	}
	c := &Canvas{
		width:      width,
		height:     height,
		background: background,
		active:     make(map[int]*stroke.Stroke),
	}
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.fill(background)
	return c, nil
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// fill paints the whole buffer with one color. Caller holds the lock (or
// is the constructor).
func (c *Canvas) fill(col color.RGBA) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// BeginStroke starts a stroke for the given pointer at p. The first
// pointer down after all pointers were up starts a new gesture; pointers
// pressed while others are still down join the current gesture.
func (c *Canvas) BeginStroke(pointer int, p stroke.Point, col color.RGBA, width float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	if _, exists := c.active[pointer]; exists {
		return
	}

	if len(c.active) == 0 {
		c.gesture = uuid.New()
		c.released = 0
	}

	s := stroke.New(c.gesture, pointer, col, width)
	s.Append(p)
	c.active[pointer] = s
	c.stamp(p, col, width)
}

// ExtendStroke adds a sampled point to the pointer's in-progress stroke
// and rasterizes the new segment.
func (c *Canvas) ExtendStroke(pointer int, p stroke.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.active[pointer]
	if !ok || c.destroyed {
		return
	}

	prev := s.Points[len(s.Points)-1]
	s.Append(p)
	c.line(prev, p, s.Color, s.Width)
}

// EndStroke finishes the pointer's stroke, commits it to the live stroke
// list, and notifies gesture-end handlers. The first release of a gesture
// is reported with additional=false; later releases of the same gesture
// with additional=true.
func (c *Canvas) EndStroke(pointer int) {
	c.mu.Lock()
	s, ok := c.active[pointer]
	if !ok || c.destroyed {
		c.mu.Unlock()
		return
	}
	delete(c.active, pointer)
	c.strokes = append(c.strokes, s)

	additional := c.released > 0
	c.released++

	handlers := snapshotHandlers(c.gestureEnd)
	c.mu.Unlock()

	// Handlers run unlocked: they call back into the surface to read
	// strokes and encode the bitmap.
	for _, fn := range handlers {
		fn(pointer, additional)
	}
}

// Strokes returns a deep copy of the live stroke list.
func (c *Canvas) Strokes() stroke.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strokes.Clone()
}

// SetStrokes replaces the live stroke list wholesale with a deep copy of
// the given list. The pixel buffer is not touched; during a restore the
// decoded bitmap carries the pixels.
func (c *Canvas) SetStrokes(list stroke.List) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strokes = list.Clone()
}

// EncodeBitmap serializes the current pixel buffer.
func (c *Canvas) EncodeBitmap() (bitmap.Encoded, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bitmap.Encode(c.img)
}

// ClearSurface repaints the pixel buffer with the background color. The
// stroke list is untouched; callers restoring a snapshot follow up with
// DrawImage and SetStrokes.
func (c *Canvas) ClearSurface() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fill(c.background)
}

// DrawImage paints img onto the buffer at the origin.
func (c *Canvas) DrawImage(img image.Image) {
	if img == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	draw.Draw(c.img, c.img.Bounds(), img, img.Bounds().Min, draw.Over)
}

// Clear wipes the surface: pixels to background, stroke list emptied,
// in-progress strokes dropped. Clear handlers run afterward in
// registration order.
func (c *Canvas) Clear() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.fill(c.background)
	c.strokes = nil
	c.active = make(map[int]*stroke.Stroke)
	c.released = 0
	handlers := snapshotHandlers(c.clear)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Destroy tears the canvas down. Destroy handlers run once in
// registration order; afterward all handlers are dropped and further
// input is ignored. Terminal.
func (c *Canvas) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	handlers := snapshotHandlers(c.destroy)
	c.gestureEnd = nil
	c.clear = nil
	c.destroy = nil
	c.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Destroyed reports whether Destroy has been called.
func (c *Canvas) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// Image returns the backing pixel buffer for rendering. The caller must
// not mutate it.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img
}

// ImageCopy returns a copy of the pixel buffer. Safe against concurrent
// restores, unlike Image.
func (c *Canvas) ImageCopy() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	dst := image.NewRGBA(c.img.Bounds())
	copy(dst.Pix, c.img.Pix)
	return dst
}

// At returns the pixel color at (x, y).
func (c *Canvas) At(x, y int) color.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img.RGBAAt(x, y)
}

// OnGestureEnd registers a pointer-release handler and returns a function
// that removes it. additional is true when the release belongs to a
// gesture whose first pointer has already been released, i.e. the stroke
// data amends an existing capture rather than starting a new one.
func (c *Canvas) OnGestureEnd(fn func(pointer int, additional bool)) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextHandle
	c.nextHandle++
	c.gestureEnd = append(c.gestureEnd, registered[func(pointer int, additional bool)]{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.gestureEnd = removeHandler(c.gestureEnd, id)
	}
}

// OnClear registers a clear handler and returns a function that removes it.
func (c *Canvas) OnClear(fn func()) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextHandle
	c.nextHandle++
	c.clear = append(c.clear, registered[func()]{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.clear = removeHandler(c.clear, id)
	}
}

// OnDestroy registers a destroy handler and returns a function that
// removes it.
func (c *Canvas) OnDestroy(fn func()) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextHandle
	c.nextHandle++
	c.destroy = append(c.destroy, registered[func()]{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.destroy = removeHandler(c.destroy, id)
	}
}

func snapshotHandlers[T any](regs []registered[T]) []T {
	fns := make([]T, len(regs))
	for i, r := range regs {
		fns[i] = r.fn
	}
	return fns
}

func removeHandler[T any](regs []registered[T], id int) []registered[T] {
	for i, r := range regs {
		if r.id == id {
			return append(regs[:i], regs[i+1:]...)
		}
	}
	return regs
}
