package controller

import (
	"fmt"
	"image"
	"sync"

	"github.com/dshills/inkwell/internal/bitmap"
	"github.com/dshills/inkwell/internal/engine/history"
	"github.com/dshills/inkwell/internal/engine/stroke"
	"github.com/dshills/inkwell/internal/log"
)

// Host is the drawing surface a controller attaches to. The On* methods
// register lifecycle handlers and return a function that removes the
// registration again.
type Host interface {
	// Strokes returns a deep copy of the live stroke data.
	Strokes() stroke.List

	// SetStrokes replaces the live stroke data wholesale.
	SetStrokes(stroke.List)

	// EncodeBitmap serializes the currently visible pixels.
	EncodeBitmap() (bitmap.Encoded, error)

	// ClearSurface and DrawImage repaint the surface; they are idempotent
	// and always safe to call in sequence.
	ClearSurface()
	DrawImage(image.Image)

	OnGestureEnd(fn func(pointer int, additional bool)) (remove func())
	OnClear(fn func()) (remove func())
	OnDestroy(fn func()) (remove func())
}

// Observer receives history lifecycle notifications. All methods are
// called synchronously from the operation that caused them.
type Observer interface {
	// SnapshotCaptured is called after a capture; cursor is the entry's
	// stack index and strokes the number of stroke records it holds.
	SnapshotCaptured(cursor, strokes int)

	// CursorMoved is called after a successful undo or redo navigation,
	// before the asynchronous restore completes.
	CursorMoved(op string, cursor int)

	// HistoryReset is called after the stack has been cleared.
	HistoryReset()
}

// Controller wires a snapshot stack to a Host surface.
type Controller struct {
	mu sync.Mutex

	host  Host
	stack *history.Stack
	dec   bitmap.Decoder

	logger    *log.Logger
	onError   func(error)
	onApplied func(cursor int)
	observers []Observer

	// Lifecycle handler removal functions from the host.
	removes []func()

	// gen invalidates in-flight decodes: a restore result is applied only
	// if no capture or navigation has happened since it was issued.
	gen uint64

	detached bool
}

type options struct {
	decoder      bitmap.Decoder
	logger       *log.Logger
	maxSnapshots int
	onError      func(error)
	onApplied    func(cursor int)
	observers    []Observer
}

// Option configures a Controller.
type Option func(*options)

// WithDecoder sets the bitmap decoder used for restores.
func WithDecoder(d bitmap.Decoder) Option {
	return func(o *options) { o.decoder = d }
}

// WithLogger sets the controller's logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxSnapshots bounds the history stack depth.
func WithMaxSnapshots(n int) Option {
	return func(o *options) { o.maxSnapshots = n }
}

// WithErrorHandler sets the callback for asynchronous restore failures.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

// WithRestoreApplied sets a callback invoked after a restored snapshot has
// been pushed into the surface. Useful for triggering a repaint.
func WithRestoreApplied(fn func(cursor int)) Option {
	return func(o *options) { o.onApplied = fn }
}

// WithObserver registers a history observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// Attach creates a controller bound to host, subscribes to its lifecycle
// events, and seeds the history with one snapshot of the surface's current
// (normally blank) state.
func Attach(host Host, opts ...Option) (*Controller, error) {
	if host == nil {
		return nil, fmt.Errorf("controller: nil host")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.decoder == nil {
		o.decoder = bitmap.Codec{}
	}
	if o.logger == nil {
		o.logger = log.Null
	}

	c := &Controller{
		host:      host,
		stack:     history.NewStack(o.maxSnapshots),
		dec:       o.decoder,
		logger:    o.logger.WithComponent("controller"),
		onError:   o.onError,
		onApplied: o.onApplied,
		observers: o.observers,
	}

	c.removes = []func(){
		host.OnGestureEnd(c.handleGestureEnd),
		host.OnClear(c.handleClear),
		host.OnDestroy(c.handleDestroy),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.capture(false); err != nil {
		c.detachLocked()
		return nil, fmt.Errorf("controller: seed initial snapshot: %w", err)
	}
	return c, nil
}

// Undo moves one snapshot back in history and restores it to the surface.
// At the oldest snapshot it is a silent no-op.
func (c *Controller) Undo() error {
	return c.navigate("undo", c.stack.Undo)
}

// Redo moves one snapshot forward in history and restores it to the
// surface. At the newest snapshot it is a silent no-op.
func (c *Controller) Redo() error {
	return c.navigate("redo", c.stack.Redo)
}

func (c *Controller) navigate(op string, move func() (*history.Snapshot, bool)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached {
		return ErrDetached
	}

	snap, ok := move()
	if !ok {
		c.logger.Debug("%s: nothing to do", op)
		return nil
	}

	cursor := c.stack.Cursor()
	c.notify(func(obs Observer) { obs.CursorMoved(op, cursor) })
	c.restore(snap, cursor)
	return nil
}

// Save forces a capture of the surface's current state.
func (c *Controller) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached {
		return ErrDetached
	}
	return c.capture(false)
}

// Reset discards all history and re-seeds it with the surface's current
// state.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached {
		return ErrDetached
	}
	c.stack.Reset()
	c.notify(func(obs Observer) { obs.HistoryReset() })
	return c.capture(false)
}

// Close detaches the controller from the surface and discards history.
// Idempotent. The controller cannot be reused afterward.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
}

// CanUndo reports whether an undo navigation would move the cursor.
func (c *Controller) CanUndo() bool { return c.stack.CanUndo() }

// CanRedo reports whether a redo navigation would move the cursor.
func (c *Controller) CanRedo() bool { return c.stack.CanRedo() }

// HistoryLen returns the number of snapshots held.
func (c *Controller) HistoryLen() int { return c.stack.Len() }

// Cursor returns the history cursor index, -1 when empty.
func (c *Controller) Cursor() int { return c.stack.Cursor() }

// handleGestureEnd captures the surface after a pointer release. The
// additional flag marks releases that amend the latest capture instead of
// creating a new one.
func (c *Controller) handleGestureEnd(pointer int, additional bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached {
		return
	}

	if additional && c.stack.Len() == 0 {
		// Continuation with no prior capture; fail closed as a fresh one.
		c.logger.Warn("continuation release from pointer %d with empty history", pointer)
		additional = false
	}

	if err := c.capture(additional); err != nil {
		c.fail(fmt.Errorf("controller: capture after gesture end: %w", err))
	}
}

// handleClear re-seeds history with the blank surface so the stack never
// stays empty while the surface is live.
func (c *Controller) handleClear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.detached {
		return
	}

	c.stack.Reset()
	c.notify(func(obs Observer) { obs.HistoryReset() })
	if err := c.capture(false); err != nil {
		c.fail(fmt.Errorf("controller: capture after clear: %w", err))
	}
}

func (c *Controller) handleDestroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
}

// detachLocked cancels lifecycle subscriptions and marks the controller
// terminal. Caller holds the lock.
func (c *Controller) detachLocked() {
	if c.detached {
		return
	}
	c.detached = true
	c.gen++ // drop in-flight restores
	for _, remove := range c.removes {
		remove()
	}
	c.removes = nil
	c.stack.Reset()
	c.logger.Debug("detached")
}

// capture snapshots the surface. Caller holds the lock.
func (c *Controller) capture(continuation bool) error {
	img, err := c.host.EncodeBitmap()
	if err != nil {
		return fmt.Errorf("encode surface: %w", err)
	}
	strokes := c.host.Strokes()

	c.gen++ // a capture supersedes any pending restore
	c.stack.Capture(img, strokes, continuation)

	cursor := c.stack.Cursor()
	c.logger.Debug("captured snapshot %d (%d strokes, continuation=%v)", cursor, len(strokes), continuation)
	c.notify(func(obs Observer) { obs.SnapshotCaptured(cursor, len(strokes)) })
	return nil
}

// restore pushes snap back into the surface once its bitmap decodes. The
// result is applied only if the generation still matches at completion
// time; otherwise it is stale and dropped. Caller holds the lock.
func (c *Controller) restore(snap *history.Snapshot, cursor int) {
	c.gen++
	gen := c.gen
	dec := c.dec.Decode(snap.Image)

	go func() {
		img, err := dec.Wait()

		c.mu.Lock()
		if c.detached || gen != c.gen {
			c.mu.Unlock()
			c.logger.Debug("dropping stale decode for snapshot %d", cursor)
			return
		}
		if err != nil {
			c.mu.Unlock()
			c.fail(&RestoreError{Cursor: cursor, Err: err})
			return
		}

		c.host.ClearSurface()
		c.host.DrawImage(img)
		c.host.SetStrokes(snap.Strokes.Clone())
		applied := c.onApplied
		c.mu.Unlock()

		c.logger.Debug("restored snapshot %d", cursor)
		if applied != nil {
			applied(cursor)
		}
	}()
}

// fail reports an asynchronous failure through the log and the error
// handler.
func (c *Controller) fail(err error) {
	c.logger.Error("%v", err)
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *Controller) notify(fn func(Observer)) {
	for _, obs := range c.observers {
		fn(obs)
	}
}
