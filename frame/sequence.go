package frame

import (
	"fmt"
	"math"

	"github.com/arloliu/mosaic/endian"
	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/internal/bitstream"
	"github.com/arloliu/mosaic/internal/pool"
)

// lengthPrefix is the size of the big-endian byte count before each frame.
const lengthPrefix = 2

// Sequence is the ordered list of frames of a stream.
//
// Note: Sequence is NOT thread-safe.
type Sequence struct {
	cells  int
	frames []Frame
}

// NewSequence creates an empty sequence of frames with cells tiles each.
func NewSequence(cells int) *Sequence {
	return &Sequence{cells: cells}
}

// Cells returns the number of tiles per frame.
func (s *Sequence) Cells() int {
	return s.cells
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	return len(s.frames)
}

// Frame returns frame i. The slice aliases the sequence.
func (s *Sequence) Frame(i int) Frame {
	return s.frames[i]
}

// Add appends a copy of f.
func (s *Sequence) Add(f Frame) error {
	if len(f) != s.cells {
		return fmt.Errorf("%w: frame has %d cells, want %d", errs.ErrInvalidFrameBuffer, len(f), s.cells)
	}
	s.frames = append(s.frames, append(Frame(nil), f...))

	return nil
}

// RemapTiles rewrites every reference through a tile remap table
// returned by tile.Store.Rebuild.
func (s *Sequence) RemapTiles(table []format.Ref) error {
	for fi, f := range s.frames {
		for ci, ref := range f {
			if ref.IsNone() || int(ref.Index()) >= len(table) {
				return fmt.Errorf("%w: frame %d cell %d points at tile %d of %d",
					errs.ErrInvalidRef, fi, ci, ref.Index(), len(table))
			}

			mapped := table[ref.Index()]
			if mapped.IsNone() {
				return fmt.Errorf("%w: frame %d cell %d references removed tile %d",
					errs.ErrDanglingRef, fi, ci, ref.Index())
			}
			f[ci] = mapped.Transform(ref.Orientation())
		}
	}

	return nil
}

// Validate checks that every reference addresses one of tileCount tiles.
func (s *Sequence) Validate(tileCount int) error {
	for fi, f := range s.frames {
		for ci, ref := range f {
			if ref.IsNone() || int(ref.Index()) >= tileCount {
				return fmt.Errorf("%w: frame %d cell %d points at tile %d of %d",
					errs.ErrInvalidRef, fi, ci, ref.Index(), tileCount)
			}
		}
	}

	return nil
}

// Save appends every frame as a 16-bit big-endian byte length followed by
// its flushed run stream. A frame longer than 65535 bytes fails with
// errs.ErrCapacityExceeded.
func (s *Sequence) Save(buf *pool.ByteBuffer, tileBits int) error {
	engine := endian.GetBigEndianEngine()

	w := bitstream.NewWriter(nil)
	defer w.Release()

	prev := New(s.cells)
	for i, f := range s.frames {
		w.Reset()
		Encode(w, prev, f, tileBits)
		data := w.Bytes()

		if len(data) > math.MaxUint16 {
			return fmt.Errorf("%w: frame %d encodes to %d bytes", errs.ErrCapacityExceeded, i, len(data))
		}

		buf.B = engine.AppendUint16(buf.B, uint16(len(data))) //nolint:gosec
		buf.MustWrite(data)
		prev = f
	}

	return nil
}

// Load replaces the frames with count frames read from data at offset and
// returns the offset just past them. Each frame must decode to exactly its
// declared byte length.
func (s *Sequence) Load(data []byte, offset, count, tileBits int) (int, error) {
	engine := endian.GetBigEndianEngine()

	s.frames = s.frames[:0]
	prev := New(s.cells)
	for i := range count {
		if offset < 0 || offset+lengthPrefix > len(data) {
			return offset, fmt.Errorf("%w: length of frame %d", errs.ErrTruncated, i)
		}
		size := int(engine.Uint16(data[offset:]))
		offset += lengthPrefix

		if offset+size > len(data) {
			return offset, fmt.Errorf("%w: frame %d declares %d bytes, %d left",
				errs.ErrTruncated, i, size, len(data)-offset)
		}

		cur := make(Frame, s.cells)
		r := bitstream.NewReader(data[offset : offset+size])
		if err := Decode(r, prev, cur, tileBits); err != nil {
			return offset, fmt.Errorf("frame %d: %w", i, err)
		}
		if r.Offset() != size {
			return offset, fmt.Errorf("%w: frame %d used %d of %d bytes", errs.ErrSizeMismatch, i, r.Offset(), size)
		}

		s.frames = append(s.frames, cur)
		prev = cur
		offset += size
	}

	return offset, nil
}
