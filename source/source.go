// Package source provides the frame sources and preview sinks that sit
// around the codec.
//
// A Source hands out fixed-size 8-bit grayscale frames by index and
// returns io.EOF past the last one. A Sink shows a frame to a human and
// may ask for the loop to stop; it never influences encoded output.
package source

import (
	"fmt"
	"io"
	"time"

	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/frame"
)

// Source returns frame index as width*height bytes of 8-bit luma, or
// io.EOF when the sequence has ended.
type Source interface {
	Frame(index int) ([]byte, error)
}

// Sink presents a frame buffer. hint is how long the frame is meant to
// stay on screen. quit asks the caller to stop early.
type Sink interface {
	Present(buf []byte, hint time.Duration) (quit bool, err error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(buf []byte, hint time.Duration) (bool, error)

// Present calls f.
func (f SinkFunc) Present(buf []byte, hint time.Duration) (bool, error) {
	return f(buf, hint)
}

// Frames is an in-memory Source.
type Frames struct {
	size   frame.Size
	frames [][]byte
}

var _ Source = (*Frames)(nil)

// NewFrames wraps frames, each of which must hold size.Pixels() bytes.
func NewFrames(size frame.Size, frames ...[]byte) (*Frames, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	for i, f := range frames {
		if len(f) != size.Pixels() {
			return nil, fmt.Errorf("%w: frame %d has %d bytes, want %d",
				errs.ErrInvalidFrameBuffer, i, len(f), size.Pixels())
		}
	}

	return &Frames{size: size, frames: frames}, nil
}

// Frame implements Source.
func (s *Frames) Frame(index int) ([]byte, error) {
	if index < 0 || index >= len(s.frames) {
		return nil, io.EOF
	}

	return s.frames[index], nil
}

// Len returns the number of frames.
func (s *Frames) Len() int {
	return len(s.frames)
}
