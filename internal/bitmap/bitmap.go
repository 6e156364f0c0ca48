// Package bitmap encodes and decodes the opaque snapshot images stored in
// the history stack. Encoding is synchronous; decoding is modeled as an
// explicit per-request handle that completes later, so callers can discard
// or cancel results that arrive after the history cursor has moved on.
package bitmap

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// Common errors for bitmap operations.
var (
	ErrEmptyEncoding = errors.New("bitmap: empty encoding")
	ErrCancelled     = errors.New("bitmap: decode cancelled")
	ErrNotComplete   = errors.New("bitmap: decode not complete")
)

// Encoded is an opaque, self-contained encoding of a surface's pixels.
// Immutable once created.
type Encoded []byte

// Encode serializes an image into an Encoded value.
func Encode(img image.Image) (Encoded, error) {
	if img == nil {
		return nil, fmt.Errorf("bitmap: encode nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("bitmap: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decoder produces decode handles for encoded bitmaps. The production
// implementation is Codec; tests substitute decoders whose completion is
// driven manually.
type Decoder interface {
	Decode(enc Encoded) *Decode
}

// Decode is a single in-flight decode request. It resolves exactly once,
// either with a result, a failure, or ErrCancelled. After Done is closed,
// Result returns the outcome.
type Decode struct {
	done chan struct{}
	once sync.Once
	img  image.Image
	err  error
}

// NewDecode returns an unresolved decode handle and the function that
// resolves it. Resolving an already-resolved or cancelled handle is a no-op.
func NewDecode() (*Decode, func(image.Image, error)) {
	d := &Decode{done: make(chan struct{})}
	return d, d.resolve
}

func (d *Decode) resolve(img image.Image, err error) {
	d.once.Do(func() {
		d.img = img
		d.err = err
		close(d.done)
	})
}

// Cancel resolves the handle with ErrCancelled if it has not completed yet.
// The underlying decode work is not interrupted; its late result is dropped.
func (d *Decode) Cancel() {
	d.resolve(nil, ErrCancelled)
}

// Done is closed when the decode has completed or been cancelled.
func (d *Decode) Done() <-chan struct{} {
	return d.done
}

// Result returns the decoded image. Only valid after Done is closed.
func (d *Decode) Result() (image.Image, error) {
	select {
	case <-d.done:
		return d.img, d.err
	default:
		return nil, ErrNotComplete
	}
}

// Wait blocks until the decode completes and returns its result.
func (d *Decode) Wait() (image.Image, error) {
	<-d.done
	return d.img, d.err
}

// Codec is the production Decoder. Each Decode call runs on its own
// goroutine and resolves the returned handle on completion.
type Codec struct{}

// Decode begins decoding enc and returns a handle for the result.
func (Codec) Decode(enc Encoded) *Decode {
	d, resolve := NewDecode()
	go func() {
		if len(enc) == 0 {
			resolve(nil, ErrEmptyEncoding)
			return
		}
		img, err := png.Decode(bytes.NewReader(enc))
		if err != nil {
			resolve(nil, fmt.Errorf("bitmap: decode: %w", err))
			return
		}
		resolve(img, nil)
	}()
	return d
}
