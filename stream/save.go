package stream

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/arloliu/mosaic/compress"
	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/internal/pool"
	"github.com/arloliu/mosaic/section"
)

// sections is a serialized stream before compression.
type sections struct {
	header section.StreamHeader
	raw    *pool.ByteBuffer
	bounds [3]int // end offsets of the block, tile and frame sections
}

func (x *sections) release() {
	pool.PutStreamBuffer(x.raw)
}

// section returns section i (0 blocks, 1 tiles, 2 frames).
func (x *sections) section(i int) []byte {
	start := 0
	if i > 0 {
		start = x.bounds[i-1]
	}

	return x.raw.Slice(start, x.bounds[i])
}

// marshal serializes the three sections with bit widths derived from the
// current store sizes. The stores are saved as they are: run
// Encoder.Optimize first to drop dead entries.
func (s *Stream) marshal() (*sections, error) {
	blocks := s.Blocks()

	blockBits, ok := format.IndexBits(blocks.Len())
	if !ok {
		return nil, fmt.Errorf("%w: %d blocks", errs.ErrCapacityExceeded, blocks.Len())
	}
	tileBits, ok := format.IndexBits(s.tiles.Len())
	if !ok {
		return nil, fmt.Errorf("%w: %d tiles", errs.ErrCapacityExceeded, s.tiles.Len())
	}
	if uint64(s.frames.Len()) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d frames", errs.ErrCapacityExceeded, s.frames.Len())
	}
	if err := s.frames.Validate(s.tiles.Len()); err != nil {
		return nil, err
	}

	x := &sections{raw: pool.GetStreamBuffer()}

	blocks.Save(x.raw)
	x.bounds[0] = x.raw.Len()

	if err := s.tiles.Save(x.raw, blockBits); err != nil {
		x.release()
		return nil, err
	}
	x.bounds[1] = x.raw.Len()

	if err := s.frames.Save(x.raw, tileBits); err != nil {
		x.release()
		return nil, err
	}
	x.bounds[2] = x.raw.Len()

	if uint64(x.raw.Len()) > math.MaxUint32 {
		x.release()
		return nil, fmt.Errorf("%w: %d uncompressed bytes", errs.ErrCapacityExceeded, x.raw.Len())
	}

	x.header = section.StreamHeader{
		BlockCount:       uint32(blocks.Len()),   //nolint:gosec
		TileCount:        uint32(s.tiles.Len()),  //nolint:gosec
		FrameCount:       uint32(s.frames.Len()), //nolint:gosec
		UncompressedSize: uint32(x.raw.Len()),    //nolint:gosec
		TileBits:         uint16(tileBits),       //nolint:gosec
		BlockBits:        uint16(blockBits),      //nolint:gosec
	}

	return x, nil
}

// encode compresses the sections chunk by chunk behind a StreamHeader.
// The returned buffer comes from the stream pool.
func (x *sections) encode(codec compress.Compressor) (*pool.ByteBuffer, compress.ChunkStats, error) {
	var stats compress.ChunkStats

	out := pool.GetStreamBuffer()
	out.ExtendOrGrow(section.HeaderSize)

	for i := range x.bounds {
		st, err := compress.WriteChunks(out, codec, x.section(i))
		if err != nil {
			pool.PutStreamBuffer(out)
			return nil, stats, err
		}
		stats.Add(st)
	}

	compressed := out.Len() - section.HeaderSize
	if uint64(compressed) > math.MaxUint32 {
		pool.PutStreamBuffer(out)
		return nil, stats, fmt.Errorf("%w: %d compressed bytes", errs.ErrCapacityExceeded, compressed)
	}
	x.header.CompressedSize = uint32(compressed) //nolint:gosec
	x.header.AppendTo(out.B[:0])

	return out, stats, nil
}

// Save writes the stream to w.
//
// Save refuses to write to a terminal before producing any output, and
// fails with errs.ErrCapacityExceeded when a store outgrows the reference
// index space or a frame outgrows its 16-bit length.
func (s *Stream) Save(w io.Writer, opts ...StreamOption) error {
	cfg, err := newStreamConfig(opts)
	if err != nil {
		return err
	}
	_, err = s.save(w, cfg.codec)

	return err
}

func (s *Stream) save(w io.Writer, codec compress.Compressor) (compress.ChunkStats, error) {
	if err := checkInteractive(w); err != nil {
		return compress.ChunkStats{}, err
	}

	x, err := s.marshal()
	if err != nil {
		return compress.ChunkStats{}, err
	}
	defer x.release()

	out, stats, err := x.encode(codec)
	if err != nil {
		return stats, err
	}
	defer pool.PutStreamBuffer(out)

	if _, err := out.WriteTo(w); err != nil {
		return stats, fmt.Errorf("write stream: %w", err)
	}

	return stats, nil
}

// checkInteractive rejects files attached to a terminal.
func checkInteractive(w io.Writer) error {
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return fmt.Errorf("%w: %s", errs.ErrInteractiveOutput, f.Name())
	}

	return nil
}
