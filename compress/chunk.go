package compress

import (
	"fmt"

	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/internal/pool"
	"github.com/arloliu/mosaic/section"
)

// ChunkStats summarizes the chunks of one or more sections.
type ChunkStats struct {
	Chunks     int // chunks written or read
	Compressed int // chunks stored in compressed form
	InBytes    int // uncompressed payload bytes
	OutBytes   int // stored bytes, chunk headers included
}

// Add accumulates o into s.
func (s *ChunkStats) Add(o ChunkStats) {
	s.Chunks += o.Chunks
	s.Compressed += o.Compressed
	s.InBytes += o.InBytes
	s.OutBytes += o.OutBytes
}

// Stored returns the number of chunks kept raw.
func (s ChunkStats) Stored() int {
	return s.Chunks - s.Compressed
}

// CompressionRatio returns the compression ratio (stored size / original size).
//
// Values above 1.0 are possible for tiny or incompressible sections, since
// every chunk carries a 4-byte header.
//
// Returns:
//   - float64: Compression ratio (0.0 if original size is zero)
func (s ChunkStats) CompressionRatio() float64 {
	if s.InBytes == 0 {
		return 0.0
	}

	return float64(s.OutBytes) / float64(s.InBytes)
}

// SpaceSavings returns the space savings as a percentage.
func (s ChunkStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// WriteChunks splits data into chunks of at most section.MaxChunkSize bytes
// and appends each one, with its header, to dst. A chunk is stored
// compressed only when the codec output is strictly smaller than the chunk.
//
// Parameters:
//   - dst: Buffer receiving chunk headers and payloads
//   - c: Compressor applied to every chunk
//   - data: Section bytes; empty data writes nothing
//
// Returns:
//   - ChunkStats: Counts for the chunks written
//   - error: Compressor error, wrapped with the chunk index
func WriteChunks(dst *pool.ByteBuffer, c Compressor, data []byte) (ChunkStats, error) {
	var stats ChunkStats
	for start := 0; start < len(data); start += section.MaxChunkSize {
		chunk := data[start:min(start+section.MaxChunkSize, len(data))]

		out, err := c.Compress(chunk)
		if err != nil {
			return stats, fmt.Errorf("compress chunk %d: %w", stats.Chunks, err)
		}

		compressed := len(out) > 0 && len(out) < len(chunk)
		if !compressed {
			out = chunk
		}

		h, err := section.NewChunkHeader(len(chunk), len(out), compressed)
		if err != nil {
			return stats, err
		}
		dst.B = h.AppendTo(dst.B)
		dst.MustWrite(out)

		stats.Chunks++
		if compressed {
			stats.Compressed++
		}
		stats.InBytes += len(chunk)
		stats.OutBytes += section.ChunkHeaderSize + len(out)
	}

	return stats, nil
}

// ReadChunks decompresses every chunk in data and returns the concatenated
// payloads, which must total exactly size bytes.
//
// Every chunk header is validated, and every decompressed chunk must match
// its declared length.
//
// Returns:
//   - []byte: Reassembled section bytes, len == size
//   - ChunkStats: Counts for the chunks read
//   - error: ErrTruncated, ErrInvalidChunkHeader or ErrSizeMismatch
func ReadChunks(d Decompressor, data []byte, size int) ([]byte, ChunkStats, error) {
	var stats ChunkStats
	out := make([]byte, 0, size)

	for pos := 0; pos < len(data); {
		h, err := section.ParseChunkHeader(data[pos:])
		if err != nil {
			return nil, stats, fmt.Errorf("chunk %d at offset %d: %w", stats.Chunks, pos, err)
		}
		pos += section.ChunkHeaderSize

		if len(data)-pos < h.OutLen {
			return nil, stats, fmt.Errorf("%w: chunk %d declares %d bytes, %d remain",
				errs.ErrTruncated, stats.Chunks, h.OutLen, len(data)-pos)
		}
		payload := data[pos : pos+h.OutLen]
		pos += h.OutLen

		if len(out)+h.InLen > size {
			return nil, stats, fmt.Errorf("%w: chunk %d overruns %d declared bytes",
				errs.ErrSizeMismatch, stats.Chunks, size)
		}

		if h.Compressed {
			payload, err = decompressChunk(d, payload, h.InLen)
			if err != nil {
				return nil, stats, fmt.Errorf("chunk %d: %w", stats.Chunks, err)
			}
			if len(payload) != h.InLen {
				return nil, stats, fmt.Errorf("%w: chunk %d decompressed to %d bytes, header declares %d",
					errs.ErrSizeMismatch, stats.Chunks, len(payload), h.InLen)
			}
			stats.Compressed++
		}
		out = append(out, payload...)

		stats.Chunks++
		stats.InBytes += h.InLen
		stats.OutBytes += section.ChunkHeaderSize + h.OutLen
	}

	if len(out) != size {
		return nil, stats, fmt.Errorf("%w: chunks hold %d bytes, header declares %d",
			errs.ErrSizeMismatch, len(out), size)
	}

	return out, stats, nil
}

func decompressChunk(d Decompressor, payload []byte, size int) ([]byte, error) {
	if sd, ok := d.(SizedDecompressor); ok {
		return sd.DecompressSized(payload, size)
	}

	return d.Decompress(payload)
}
