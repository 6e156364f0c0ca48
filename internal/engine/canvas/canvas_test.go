package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/uuid"

	"github.com/dshills/inkwell/internal/engine/stroke"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black = color.RGBA{A: 255}
)

func newTestCanvas(t *testing.T) *Canvas {
	t.Helper()
	c, err := New(20, 20, white)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNewInvalidSize(t *testing.T) {
	if _, err := New(0, 10, white); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := New(10, -1, white); err == nil {
		t.Error("expected error for negative height")
	}
}

func TestNewFillsBackground(t *testing.T) {
	c := newTestCanvas(t)
	if got := c.At(5, 5); got != white {
		t.Errorf("pixel = %v, want %v", got, white)
	}
}

func TestStrokeRasterizes(t *testing.T) {
	c := newTestCanvas(t)

	c.BeginStroke(0, stroke.Point{X: 2, Y: 2}, black, 1)
	c.ExtendStroke(0, stroke.Point{X: 8, Y: 2})
	c.EndStroke(0)

	for x := 2; x <= 8; x++ {
		if got := c.At(x, 2); got != black {
			t.Errorf("pixel (%d,2) = %v, want %v", x, got, black)
		}
	}
	if got := c.At(5, 10); got != white {
		t.Errorf("off-stroke pixel = %v, want background", got)
	}
}

func TestStrokeCommittedOnEnd(t *testing.T) {
	c := newTestCanvas(t)

	c.BeginStroke(0, stroke.Point{X: 1, Y: 1}, black, 1)
	c.ExtendStroke(0, stroke.Point{X: 2, Y: 2})

	if n := len(c.Strokes()); n != 0 {
		t.Errorf("in-progress stroke already committed: %d", n)
	}

	c.EndStroke(0)

	list := c.Strokes()
	if len(list) != 1 {
		t.Fatalf("strokes = %d, want 1", len(list))
	}
	if list[0].Len() != 2 {
		t.Errorf("points = %d, want 2", list[0].Len())
	}
}

func TestStrokesReturnsCopy(t *testing.T) {
	c := newTestCanvas(t)
	c.BeginStroke(0, stroke.Point{X: 1, Y: 1}, black, 1)
	c.EndStroke(0)

	list := c.Strokes()
	list[0].Points[0] = stroke.Point{X: 99, Y: 99}

	if c.Strokes()[0].Points[0] != (stroke.Point{X: 1, Y: 1}) {
		t.Error("Strokes aliases the live buffer")
	}
}

func TestSetStrokesCopies(t *testing.T) {
	c := newTestCanvas(t)

	s := stroke.New(uuid.New(), 0, black, 1)
	s.Append(stroke.Point{X: 3, Y: 3})
	in := stroke.List{s}

	c.SetStrokes(in)
	s.Points[0] = stroke.Point{X: 50, Y: 50}

	if c.Strokes()[0].Points[0] != (stroke.Point{X: 3, Y: 3}) {
		t.Error("SetStrokes aliases the caller's list")
	}
}

func TestGestureEndEvents(t *testing.T) {
	c := newTestCanvas(t)

	type release struct {
		pointer    int
		additional bool
	}
	var got []release
	c.OnGestureEnd(func(pointer int, additional bool) {
		got = append(got, release{pointer, additional})
	})

	// Two pointers down in one gesture.
	c.BeginStroke(0, stroke.Point{X: 1, Y: 1}, black, 1)
	c.BeginStroke(1, stroke.Point{X: 5, Y: 5}, black, 1)
	c.EndStroke(0)
	c.EndStroke(1)

	// New gesture after all pointers up.
	c.BeginStroke(0, stroke.Point{X: 9, Y: 9}, black, 1)
	c.EndStroke(0)

	want := []release{{0, false}, {1, true}, {0, false}}
	if len(got) != len(want) {
		t.Fatalf("releases = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("release %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGestureGrouping(t *testing.T) {
	c := newTestCanvas(t)

	c.BeginStroke(0, stroke.Point{X: 1, Y: 1}, black, 1)
	c.BeginStroke(1, stroke.Point{X: 5, Y: 5}, black, 1)
	c.EndStroke(0)
	c.EndStroke(1)

	list := c.Strokes()
	if len(list) != 2 {
		t.Fatalf("strokes = %d, want 2", len(list))
	}
	if list[0].Gesture != list[1].Gesture {
		t.Error("strokes of one gesture have different gesture IDs")
	}

	c.BeginStroke(0, stroke.Point{X: 9, Y: 9}, black, 1)
	c.EndStroke(0)

	list = c.Strokes()
	if list[2].Gesture == list[0].Gesture {
		t.Error("new gesture reused the previous gesture ID")
	}
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	c := newTestCanvas(t)

	var order []int
	c.OnClear(func() { order = append(order, 1) })
	c.OnClear(func() { order = append(order, 2) })
	c.OnClear(func() { order = append(order, 3) })

	c.Clear()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
}

func TestHandlerRemove(t *testing.T) {
	c := newTestCanvas(t)

	calls := 0
	remove := c.OnClear(func() { calls++ })
	c.Clear()
	remove()
	c.Clear()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestClearWipesSurface(t *testing.T) {
	c := newTestCanvas(t)
	c.BeginStroke(0, stroke.Point{X: 2, Y: 2}, black, 1)
	c.EndStroke(0)

	c.Clear()

	if got := c.At(2, 2); got != white {
		t.Errorf("pixel = %v, want background", got)
	}
	if len(c.Strokes()) != 0 {
		t.Error("strokes survived clear")
	}
}

func TestEncodeBitmapAndDraw(t *testing.T) {
	c := newTestCanvas(t)
	c.BeginStroke(0, stroke.Point{X: 4, Y: 4}, black, 1)
	c.EndStroke(0)

	enc, err := c.EncodeBitmap()
	if err != nil {
		t.Fatalf("EncodeBitmap failed: %v", err)
	}
	if len(enc) == 0 {
		t.Fatal("empty encoding")
	}

	c.ClearSurface()
	if got := c.At(4, 4); got != white {
		t.Fatalf("pixel survived ClearSurface: %v", got)
	}

	// Draw the pixel back via an image.
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	img.SetRGBA(4, 4, black)
	c.DrawImage(img)
	if got := c.At(4, 4); got != black {
		t.Errorf("pixel = %v after DrawImage, want %v", got, black)
	}
}

func TestDestroyIsTerminal(t *testing.T) {
	c := newTestCanvas(t)

	destroyCalls := 0
	c.OnDestroy(func() { destroyCalls++ })

	clearCalls := 0
	c.OnClear(func() { clearCalls++ })

	c.Destroy()
	c.Destroy() // idempotent

	if destroyCalls != 1 {
		t.Errorf("destroy calls = %d, want 1", destroyCalls)
	}
	if !c.Destroyed() {
		t.Error("Destroyed() = false")
	}

	// Handlers are gone and input is ignored.
	c.Clear()
	if clearCalls != 0 {
		t.Error("clear handler ran after destroy")
	}
	c.BeginStroke(0, stroke.Point{X: 1, Y: 1}, black, 1)
	c.EndStroke(0)
	if len(c.Strokes()) != 0 {
		t.Error("stroke accepted after destroy")
	}
}

func TestBrushWidth(t *testing.T) {
	c := newTestCanvas(t)
	c.BeginStroke(0, stroke.Point{X: 10, Y: 10}, black, 5)
	c.EndStroke(0)

	// Radius 2 disc around the point.
	for _, p := range []stroke.Point{{X: 10, Y: 8}, {X: 8, Y: 10}, {X: 12, Y: 10}, {X: 10, Y: 12}} {
		if got := c.At(int(p.X), int(p.Y)); got != black {
			t.Errorf("pixel (%v,%v) = %v, want brush color", p.X, p.Y, got)
		}
	}
}

func TestStampClipsAtEdges(t *testing.T) {
	c := newTestCanvas(t)
	// Must not panic drawing outside the buffer.
	c.BeginStroke(0, stroke.Point{X: -5, Y: -5}, black, 9)
	c.ExtendStroke(0, stroke.Point{X: 25, Y: 25})
	c.EndStroke(0)
}
