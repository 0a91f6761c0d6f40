// Package render turns evaluated graphics into output the host can show:
// SVG markup, encoded PNG bytes, or a validated RGBA frame buffer handed to
// a presentation surface.
package render

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFrameBuffer is wrapped by every FrameBufferError.
var ErrInvalidFrameBuffer = errors.New("invalid frame buffer")

// FrameBufferError reports a pixel buffer whose length does not match its
// declared dimensions.
type FrameBufferError struct {
	Expected int
	Actual   int
	Width    int
	Height   int
}

func (e *FrameBufferError) Error() string {
	return fmt.Sprintf("frame buffer %dx%d: expected %d bytes, got %d", e.Width, e.Height, e.Expected, e.Actual)
}

func (e *FrameBufferError) Unwrap() error { return ErrInvalidFrameBuffer }

// FrameBuffer is a borrowed RGBA8 pixel buffer with known dimensions.
type FrameBuffer struct {
	buf    []byte
	width  int
	height int
}

// NewFrameBuffer checks that buf holds exactly width*height RGBA pixels.
// Dimensions whose byte size does not fit in an int are rejected with
// Expected set to -1.
func NewFrameBuffer(buf []byte, width, height int) (*FrameBuffer, error) {
	expected := frameSize(width, height)
	if expected < 0 || len(buf) != expected {
		return nil, &FrameBufferError{
			Expected: expected,
			Actual:   len(buf),
			Width:    width,
			Height:   height,
		}
	}
	return &FrameBuffer{buf: buf, width: width, height: height}, nil
}

func frameSize(width, height int) int {
	if width < 0 || height < 0 {
		return -1
	}
	if height != 0 && width > math.MaxInt/4/height {
		return -1
	}
	return width * height * 4
}

func (f *FrameBuffer) Bytes() []byte { return f.buf }
func (f *FrameBuffer) Width() int    { return f.width }
func (f *FrameBuffer) Height() int   { return f.height }

func (f *FrameBuffer) String() string {
	return fmt.Sprintf("FrameBuffer{len: %d, width: %d, height: %d}", len(f.buf), f.width, f.height)
}
