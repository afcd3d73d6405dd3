// Package frame implements the frame codec: grids of tile references
// delta-coded against the previous frame as alternating copy and literal
// runs.
//
// A run starts with an 8-bit header: bit 7 marks a copy run and bits 0..6
// hold the run length minus one, so a run covers at most MaxRun cells.
// Literal runs are followed by one tileBits-wide packed reference per cell.
// Headers and literal fields share one MSB-first bit stream per frame.
package frame

import (
	"fmt"

	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/internal/bitstream"
)

const (
	// MaxRun is the longest run a header can describe.
	MaxRun = 128

	copyFlag   = 0x80
	lengthMask = 0x7F
	headerBits = 8
)

// Size is a frame geometry in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is the 320×256 frame of the playback target.
var DefaultSize = Size{Width: format.DefaultFrameWidth, Height: format.DefaultFrameHeight}

// Validate checks that both dimensions are positive multiples of the tile size.
func (s Size) Validate() error {
	if s.Width <= 0 || s.Height <= 0 || s.Width%format.TileWidth != 0 || s.Height%format.TileHeight != 0 {
		return fmt.Errorf("%w: %dx%d is not a positive multiple of %dx%d",
			errs.ErrInvalidFrameSize, s.Width, s.Height, format.TileWidth, format.TileHeight)
	}

	return nil
}

// Cols returns the number of tile columns.
func (s Size) Cols() int { return s.Width / format.TileWidth }

// Rows returns the number of tile rows.
func (s Size) Rows() int { return s.Height / format.TileHeight }

// Cells returns the number of tiles in a frame.
func (s Size) Cells() int { return s.Cols() * s.Rows() }

// Pixels returns the size of an 8-bit frame buffer.
func (s Size) Pixels() int { return s.Width * s.Height }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Frame is a grid of tile references in raster order.
type Frame []format.Ref

// New returns a frame of n cells, all format.NoRef. It is the "previous
// frame" of the first frame in a sequence, so that frame never copies.
func New(n int) Frame {
	f := make(Frame, n)
	for i := range f {
		f[i] = format.NoRef
	}

	return f
}

// Encode appends the runs that turn prev into cur. Both frames must have
// the same length.
func Encode(w *bitstream.Writer, prev, cur Frame, tileBits int) {
	n := len(cur)
	for i := 0; i < n; {
		same := cur[i] == prev[i]

		j := i + 1
		for j < n && j-i < MaxRun && (cur[j] == prev[j]) == same {
			j++
		}

		header := uint64(j - i - 1) //nolint:gosec
		if same {
			w.Write(header|copyFlag, headerBits)
		} else {
			w.Write(header, headerBits)
			for _, ref := range cur[i:j] {
				w.Write(ref.Pack(tileBits), tileBits)
			}
		}

		i = j
	}
}

// Decode reads the runs of one frame into dst, copying from prev where
// the stream says so. dst and prev must have the same length and must not
// overlap.
func Decode(r *bitstream.Reader, prev, dst Frame, tileBits int) error {
	n := len(dst)
	for i := 0; i < n; {
		header, ok := r.Read(headerBits)
		if !ok {
			return fmt.Errorf("%w: run header at cell %d", errs.ErrTruncated, i)
		}

		length := int(header&lengthMask) + 1
		if i+length > n {
			return fmt.Errorf("%w: run of %d cells at cell %d overflows a %d-cell frame",
				errs.ErrSizeMismatch, length, i, n)
		}

		if header&copyFlag != 0 {
			for k := i; k < i+length; k++ {
				if prev[k].IsNone() {
					return fmt.Errorf("%w: copy run at cell %d has no previous frame", errs.ErrInvalidRef, k)
				}
				dst[k] = prev[k]
			}
		} else {
			for k := i; k < i+length; k++ {
				v, ok := r.Read(tileBits)
				if !ok {
					return fmt.Errorf("%w: literal at cell %d", errs.ErrTruncated, k)
				}
				dst[k] = format.Unpack(v, tileBits)
			}
		}

		i += length
	}

	return nil
}
