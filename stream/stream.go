package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/mosaic/block"
	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/frame"
	"github.com/arloliu/mosaic/internal/pool"
	"github.com/arloliu/mosaic/source"
	"github.com/arloliu/mosaic/tile"
)

// Stream is a decoded or in-progress animation: the tile store (which owns
// the block store) and the frame sequence indexing into it.
//
// Note: Stream is NOT thread-safe.
type Stream struct {
	size   frame.Size
	tiles  *tile.Store
	frames *frame.Sequence
}

func newStream(size frame.Size, opts ...tile.Option) (*Stream, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	tiles, err := tile.NewStore(opts...)
	if err != nil {
		return nil, err
	}

	return &Stream{
		size:   size,
		tiles:  tiles,
		frames: frame.NewSequence(size.Cells()),
	}, nil
}

// Size returns the frame geometry.
func (s *Stream) Size() frame.Size {
	return s.size
}

// Tiles returns the tile store.
func (s *Stream) Tiles() *tile.Store {
	return s.tiles
}

// Blocks returns the block store.
func (s *Stream) Blocks() *block.Store {
	return s.tiles.Blocks()
}

// Frames returns the frame sequence.
func (s *Stream) Frames() *frame.Sequence {
	return s.frames
}

// FrameCount returns the number of frames.
func (s *Stream) FrameCount() int {
	return s.frames.Len()
}

// Frame returns the tile references of frame i in raster order.
func (s *Stream) Frame(i int) frame.Frame {
	return s.frames.Frame(i)
}

// Render draws frame i into dst as 8-bit pixels (0 or 255).
func (s *Stream) Render(i int, dst []byte) error {
	if i < 0 || i >= s.frames.Len() {
		return fmt.Errorf("frame %d of %d: %w", i, s.frames.Len(), errs.ErrInvalidRef)
	}
	if len(dst) != s.size.Pixels() {
		return fmt.Errorf("%w: %d bytes for a %s frame", errs.ErrInvalidFrameBuffer, len(dst), s.size)
	}

	f := s.frames.Frame(i)
	cols := s.size.Cols()
	for c, ref := range f {
		if !s.tiles.Valid(ref) {
			return fmt.Errorf("%w: frame %d cell %d", errs.ErrInvalidRef, i, c)
		}
		x, y := c%cols*format.TileWidth, c/cols*format.TileHeight
		s.tiles.Bitmap(ref).Render(dst[y*s.size.Width+x:], s.size.Width)
	}

	return nil
}

// Play renders every frame in order and presents it to sink, stopping
// when the sink asks to quit or ctx is done. It returns the number of
// frames presented.
func (s *Stream) Play(ctx context.Context, sink source.Sink, hint time.Duration) (int, error) {
	buf, release := pool.GetPixelSlice(s.size.Pixels())
	defer release()

	for i := range s.frames.Len() {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := s.Render(i, buf); err != nil {
			return i, err
		}
		quit, err := sink.Present(buf, hint)
		if err != nil {
			return i, fmt.Errorf("present frame %d: %w", i, err)
		}
		if quit {
			return i + 1, nil
		}
	}

	return s.frames.Len(), nil
}
