package controller

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/inkwell/internal/bitmap"
	"github.com/dshills/inkwell/internal/engine/stroke"
)

// fakeHost is a scriptable Surface for controller tests.
type fakeHost struct {
	mu sync.Mutex

	strokes   stroke.List
	encodeErr error
	encSeq    int

	cleared int
	drawn   []image.Image
	setTo   []stroke.List

	gestureEnd []func(int, bool)
	clearH     []func()
	destroyH   []func()
}

func (h *fakeHost) Strokes() stroke.List {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.strokes.Clone()
}

func (h *fakeHost) SetStrokes(l stroke.List) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setTo = append(h.setTo, l)
	h.strokes = l.Clone()
}

func (h *fakeHost) EncodeBitmap() (bitmap.Encoded, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.encodeErr != nil {
		return nil, h.encodeErr
	}
	h.encSeq++
	return bitmap.Encoded(fmt.Sprintf("enc-%d", h.encSeq)), nil
}

func (h *fakeHost) ClearSurface() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleared++
}

func (h *fakeHost) DrawImage(img image.Image) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drawn = append(h.drawn, img)
}

func (h *fakeHost) OnGestureEnd(fn func(int, bool)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := len(h.gestureEnd)
	h.gestureEnd = append(h.gestureEnd, fn)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.gestureEnd[i] = nil
	}
}

func (h *fakeHost) OnClear(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := len(h.clearH)
	h.clearH = append(h.clearH, fn)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.clearH[i] = nil
	}
}

func (h *fakeHost) OnDestroy(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := len(h.destroyH)
	h.destroyH = append(h.destroyH, fn)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.destroyH[i] = nil
	}
}

func (h *fakeHost) emitGestureEnd(pointer int, additional bool) {
	h.mu.Lock()
	fns := append([]func(int, bool){}, h.gestureEnd...)
	h.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(pointer, additional)
		}
	}
}

func (h *fakeHost) emitClear() {
	h.mu.Lock()
	fns := append([]func(){}, h.clearH...)
	h.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}

func (h *fakeHost) emitDestroy() {
	h.mu.Lock()
	fns := append([]func(){}, h.destroyH...)
	h.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}

func (h *fakeHost) drawCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.drawn)
}

func (h *fakeHost) lastDrawn() image.Image {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.drawn) == 0 {
		return nil
	}
	return h.drawn[len(h.drawn)-1]
}

func (h *fakeHost) lastSetStrokes() stroke.List {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.setTo) == 0 {
		return nil
	}
	return h.setTo[len(h.setTo)-1]
}

// fakeDecoder hands out unresolved decode handles that tests resolve
// manually.
type fakeDecoder struct {
	mu   sync.Mutex
	reqs []decodeReq
}

type decodeReq struct {
	enc     bitmap.Encoded
	resolve func(image.Image, error)
}

func (f *fakeDecoder) Decode(enc bitmap.Encoded) *bitmap.Decode {
	d, resolve := bitmap.NewDecode()
	f.mu.Lock()
	f.reqs = append(f.reqs, decodeReq{enc: enc, resolve: resolve})
	f.mu.Unlock()
	return d
}

func (f *fakeDecoder) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

// req returns the i-th decode request issued so far.
func (f *fakeDecoder) req(t *testing.T, i int) decodeReq {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.reqs) {
		t.Fatalf("decode request %d not issued (have %d)", i, len(f.reqs))
	}
	return f.reqs[i]
}

func makeStrokes(points int) stroke.List {
	s := stroke.New(uuid.New(), 0, color.RGBA{A: 255}, 1)
	for i := 0; i < points; i++ {
		s.Append(stroke.Point{X: float64(i)})
	}
	return stroke.List{s}
}

type testRig struct {
	host    *fakeHost
	dec     *fakeDecoder
	ctrl    *Controller
	applied chan int
	errs    chan error
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	r := &testRig{
		host:    &fakeHost{},
		dec:     &fakeDecoder{},
		applied: make(chan int, 16),
		errs:    make(chan error, 16),
	}
	ctrl, err := Attach(r.host,
		WithDecoder(r.dec),
		WithRestoreApplied(func(cursor int) { r.applied <- cursor }),
		WithErrorHandler(func(err error) { r.errs <- err }),
	)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	r.ctrl = ctrl
	return r
}

func (r *testRig) waitApplied(t *testing.T) int {
	t.Helper()
	select {
	case cursor := <-r.applied:
		return cursor
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for restore to apply")
		return -1
	}
}

func (r *testRig) waitError(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.errs:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
		return nil
	}
}

// settle gives in-flight restore goroutines a chance to (incorrectly)
// apply before asserting nothing changed.
func settle() {
	time.Sleep(50 * time.Millisecond)
}

func TestAttachSeedsInitialSnapshot(t *testing.T) {
	r := newRig(t)

	if r.ctrl.HistoryLen() != 1 {
		t.Errorf("len = %d, want 1", r.ctrl.HistoryLen())
	}
	if r.ctrl.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", r.ctrl.Cursor())
	}
	if r.ctrl.CanUndo() || r.ctrl.CanRedo() {
		t.Error("fresh controller should not allow undo or redo")
	}
}

func TestAttachEncodeFailure(t *testing.T) {
	host := &fakeHost{encodeErr: errors.New("boom")}
	if _, err := Attach(host, WithDecoder(&fakeDecoder{})); err == nil {
		t.Fatal("expected error when initial encode fails")
	}
}

func TestAttachNilHost(t *testing.T) {
	if _, err := Attach(nil); err == nil {
		t.Fatal("expected error for nil host")
	}
}

func TestGestureEndCaptures(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(3)
	r.host.emitGestureEnd(0, false)

	if r.ctrl.HistoryLen() != 2 {
		t.Errorf("len = %d, want 2", r.ctrl.HistoryLen())
	}
	if r.ctrl.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", r.ctrl.Cursor())
	}
	if !r.ctrl.CanUndo() {
		t.Error("CanUndo = false after capture")
	}
}

func TestAdditionalReleaseAmends(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(3)
	r.host.emitGestureEnd(0, false)

	r.host.strokes = makeStrokes(7)
	r.host.emitGestureEnd(1, true)

	if r.ctrl.HistoryLen() != 2 {
		t.Errorf("len = %d, want 2 (continuation must not append)", r.ctrl.HistoryLen())
	}
	if r.ctrl.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", r.ctrl.Cursor())
	}

	// Round trip through undo/redo and check the amended strokes come back.
	if err := r.ctrl.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	r.dec.req(t, 0).resolve(image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)
	r.waitApplied(t)

	if err := r.ctrl.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	r.dec.req(t, 1).resolve(image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)
	r.waitApplied(t)

	if got := r.host.lastSetStrokes().PointCount(); got != 7 {
		t.Errorf("restored strokes have %d points, want 7 (amended)", got)
	}
}

func TestUndoRedoRestoreSurface(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(2)
	r.host.emitGestureEnd(0, false)

	if err := r.ctrl.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if r.ctrl.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", r.ctrl.Cursor())
	}

	// Surface untouched until the decode resolves.
	if r.host.drawCount() != 0 {
		t.Fatal("surface repainted before decode completed")
	}

	blank := image.NewRGBA(image.Rect(0, 0, 2, 2))
	r.dec.req(t, 0).resolve(blank, nil)

	if cursor := r.waitApplied(t); cursor != 0 {
		t.Errorf("applied cursor = %d, want 0", cursor)
	}
	if r.host.lastDrawn() != blank {
		t.Error("decoded image was not drawn")
	}
	if got := r.host.lastSetStrokes().PointCount(); got != 0 {
		t.Errorf("restored strokes have %d points, want 0", got)
	}
}

func TestUndoAtOldestIsNoop(t *testing.T) {
	r := newRig(t)

	if err := r.ctrl.Undo(); err != nil {
		t.Fatalf("Undo returned error at boundary: %v", err)
	}
	if r.dec.pending() != 0 {
		t.Error("boundary undo issued a decode")
	}
	if r.ctrl.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", r.ctrl.Cursor())
	}
}

func TestRedoAtNewestIsNoop(t *testing.T) {
	r := newRig(t)

	if err := r.ctrl.Redo(); err != nil {
		t.Fatalf("Redo returned error at boundary: %v", err)
	}
	if r.dec.pending() != 0 {
		t.Error("boundary redo issued a decode")
	}
}

// The race from the restore contract: an earlier-invoked decode that
// completes after a newer navigation must be dropped.
func TestStaleDecodeDropped(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(2)
	r.host.emitGestureEnd(0, false)

	if err := r.ctrl.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if err := r.ctrl.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}

	undoImg := image.NewRGBA(image.Rect(0, 0, 1, 1))
	redoImg := image.NewRGBA(image.Rect(0, 0, 2, 2))

	// The undo decode resolves first but is already superseded.
	r.dec.req(t, 0).resolve(undoImg, nil)
	settle()
	if r.host.drawCount() != 0 {
		t.Fatal("stale undo decode was applied")
	}

	r.dec.req(t, 1).resolve(redoImg, nil)
	if cursor := r.waitApplied(t); cursor != 1 {
		t.Errorf("applied cursor = %d, want 1", cursor)
	}
	if r.host.lastDrawn() != redoImg {
		t.Error("surface does not reflect the redo target")
	}
	if r.host.drawCount() != 1 {
		t.Errorf("draw count = %d, want 1", r.host.drawCount())
	}
}

// Inverted completion order: the newer decode resolves first, then the
// older one arrives late and must still be dropped.
func TestStaleDecodeDroppedWhenResolvedLate(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(2)
	r.host.emitGestureEnd(0, false)

	r.ctrl.Undo()
	r.ctrl.Redo()

	redoImg := image.NewRGBA(image.Rect(0, 0, 2, 2))
	r.dec.req(t, 1).resolve(redoImg, nil)
	r.waitApplied(t)

	r.dec.req(t, 0).resolve(image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)
	settle()

	if r.host.drawCount() != 1 {
		t.Errorf("draw count = %d, want 1", r.host.drawCount())
	}
	if r.host.lastDrawn() != redoImg {
		t.Error("late stale decode overwrote the surface")
	}
}

// A capture issued while a restore decode is in flight supersedes it.
func TestCaptureSupersedesPendingRestore(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(2)
	r.host.emitGestureEnd(0, false)

	r.ctrl.Undo()

	// New drawing before the undo decode resolves.
	r.host.strokes = makeStrokes(4)
	r.host.emitGestureEnd(0, false)

	r.dec.req(t, 0).resolve(image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)
	settle()

	if r.host.drawCount() != 0 {
		t.Error("superseded restore was applied over the new capture")
	}
}

func TestRestoreErrorReported(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(2)
	r.host.emitGestureEnd(0, false)

	r.ctrl.Undo()
	r.dec.req(t, 0).resolve(nil, errors.New("bad png"))

	err := r.waitError(t)
	var restoreErr *RestoreError
	if !errors.As(err, &restoreErr) {
		t.Fatalf("expected *RestoreError, got %T: %v", err, err)
	}
	if restoreErr.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", restoreErr.Cursor)
	}
	if r.host.drawCount() != 0 {
		t.Error("failed restore still painted the surface")
	}
}

func TestClearEventReseedsHistory(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(2)
	r.host.emitGestureEnd(0, false)

	r.host.strokes = nil
	r.host.emitClear()

	if r.ctrl.HistoryLen() != 1 {
		t.Errorf("len = %d, want 1", r.ctrl.HistoryLen())
	}
	if r.ctrl.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", r.ctrl.Cursor())
	}
}

func TestSaveForcesCapture(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(1)
	if err := r.ctrl.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if r.ctrl.HistoryLen() != 2 {
		t.Errorf("len = %d, want 2", r.ctrl.HistoryLen())
	}
}

func TestResetReseeds(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(1)
	r.host.emitGestureEnd(0, false)
	r.host.emitGestureEnd(0, false)

	if err := r.ctrl.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if r.ctrl.HistoryLen() != 1 || r.ctrl.Cursor() != 0 {
		t.Errorf("len = %d, cursor = %d, want 1, 0", r.ctrl.HistoryLen(), r.ctrl.Cursor())
	}
}

func TestDestroyIsTerminal(t *testing.T) {
	r := newRig(t)

	r.host.strokes = makeStrokes(2)
	r.host.emitGestureEnd(0, false)
	r.ctrl.Undo()

	r.host.emitDestroy()

	if err := r.ctrl.Undo(); !errors.Is(err, ErrDetached) {
		t.Errorf("Undo after destroy = %v, want ErrDetached", err)
	}
	if err := r.ctrl.Save(); !errors.Is(err, ErrDetached) {
		t.Errorf("Save after destroy = %v, want ErrDetached", err)
	}
	if err := r.ctrl.Reset(); !errors.Is(err, ErrDetached) {
		t.Errorf("Reset after destroy = %v, want ErrDetached", err)
	}

	// The pending undo decode must not touch the dead surface.
	r.dec.req(t, 0).resolve(image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)
	settle()
	if r.host.drawCount() != 0 {
		t.Error("restore applied after destroy")
	}

	// Lifecycle handlers are unsubscribed.
	r.host.emitGestureEnd(0, false)
	if r.ctrl.HistoryLen() != 0 {
		t.Errorf("capture after destroy: len = %d", r.ctrl.HistoryLen())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	r := newRig(t)
	r.ctrl.Close()
	r.ctrl.Close()

	if err := r.ctrl.Undo(); !errors.Is(err, ErrDetached) {
		t.Errorf("Undo after close = %v, want ErrDetached", err)
	}
}

// recordingObserver captures notification order.
type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) SnapshotCaptured(cursor, strokes int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, fmt.Sprintf("capture:%d:%d", cursor, strokes))
}

func (o *recordingObserver) CursorMoved(op string, cursor int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, fmt.Sprintf("%s:%d", op, cursor))
}

func (o *recordingObserver) HistoryReset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, "reset")
}

func TestObserverNotifications(t *testing.T) {
	host := &fakeHost{}
	dec := &fakeDecoder{}
	obs := &recordingObserver{}

	ctrl, err := Attach(host, WithDecoder(dec), WithObserver(obs))
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	host.strokes = makeStrokes(2)
	host.emitGestureEnd(0, false)
	ctrl.Undo()
	ctrl.Redo()
	host.emitClear()

	want := []string{
		"capture:0:0",
		"capture:1:1",
		"undo:0",
		"redo:1",
		"reset",
		"capture:0:1",
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if len(obs.events) != len(want) {
		t.Fatalf("events = %v, want %v", obs.events, want)
	}
	for i := range want {
		if obs.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, obs.events[i], want[i])
		}
	}
}
