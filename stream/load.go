package stream

import (
	"fmt"
	"io"

	"github.com/arloliu/mosaic/compress"
	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/section"
	"github.com/arloliu/mosaic/tile"
)

// decoded is a fully validated stream together with the container details
// Inspect reports.
type decoded struct {
	stream *Stream
	header section.StreamHeader
	raw    []byte
	bounds [3]int
	stats  compress.ChunkStats
}

// Load reads a stream written by Stream.Save or Encoder.Save.
//
// The frame size and compression are not part of the file; pass the
// options the stream was written with (defaults: frame.DefaultSize, LZ4).
//
// Load validates the header, the exact compressed length, every chunk and
// the total decompressed length, and requires the three sections to
// consume the decompressed bytes exactly. Any disagreement fails with
// errs.ErrSizeMismatch or errs.ErrTruncated; no partial stream is returned.
func Load(r io.Reader, opts ...StreamOption) (*Stream, error) {
	cfg, err := newStreamConfig(opts)
	if err != nil {
		return nil, err
	}

	d, err := decode(r, cfg)
	if err != nil {
		return nil, err
	}

	return d.stream, nil
}

func decode(r io.Reader, cfg *StreamConfig) (*decoded, error) {
	var hdr [section.HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidHeaderSize, err)
	}

	d := &decoded{}
	h, err := section.ParseStreamHeader(hdr[:])
	if err != nil {
		return nil, err
	}
	d.header = h

	// Every chunk carries a header and at least one payload byte and expands
	// to at most MaxChunkSize bytes.
	maxExpand := uint64(h.CompressedSize) / (section.ChunkHeaderSize + 1) * section.MaxChunkSize
	if uint64(h.UncompressedSize) > maxExpand {
		return nil, fmt.Errorf("%w: %d compressed bytes cannot hold %d uncompressed bytes",
			errs.ErrSizeMismatch, h.CompressedSize, h.UncompressedSize)
	}

	body, err := io.ReadAll(io.LimitReader(r, int64(h.CompressedSize)+1))
	if err != nil {
		return nil, fmt.Errorf("read stream body: %w", err)
	}
	switch {
	case len(body) < int(h.CompressedSize):
		return nil, fmt.Errorf("%w: body has %d of %d compressed bytes",
			errs.ErrTruncated, len(body), h.CompressedSize)
	case len(body) > int(h.CompressedSize):
		return nil, fmt.Errorf("%w: data follows the %d compressed bytes",
			errs.ErrSizeMismatch, h.CompressedSize)
	}

	d.raw, d.stats, err = compress.ReadChunks(cfg.codec, body, int(h.UncompressedSize))
	if err != nil {
		return nil, err
	}

	s, err := newStream(cfg.size, tile.WithoutUniformTiles())
	if err != nil {
		return nil, err
	}

	off, err := s.Blocks().Load(d.raw, 0, int(h.BlockCount))
	if err != nil {
		return nil, fmt.Errorf("block section: %w", err)
	}
	d.bounds[0] = off

	off, err = s.tiles.Load(d.raw, off, int(h.TileCount), int(h.BlockBits))
	if err != nil {
		return nil, fmt.Errorf("tile section: %w", err)
	}
	d.bounds[1] = off

	off, err = s.frames.Load(d.raw, off, int(h.FrameCount), int(h.TileBits))
	if err != nil {
		return nil, fmt.Errorf("frame section: %w", err)
	}
	d.bounds[2] = off

	if off != len(d.raw) {
		return nil, fmt.Errorf("%w: sections use %d of %d uncompressed bytes",
			errs.ErrSizeMismatch, off, len(d.raw))
	}
	if err := s.frames.Validate(s.tiles.Len()); err != nil {
		return nil, err
	}
	d.stream = s

	return d, nil
}
