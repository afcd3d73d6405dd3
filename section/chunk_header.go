package section

import (
	"fmt"

	"github.com/arloliu/mosaic/endian"
	"github.com/arloliu/mosaic/errs"
)

// ChunkHeader precedes every chunk payload.
type ChunkHeader struct {
	InLen      int  // uncompressed length, 1..MaxChunkSize
	OutLen     int  // stored payload length, 1..MaxChunkSize
	Compressed bool // payload must go through the decompressor
}

// NewChunkHeader describes a chunk of inLen bytes stored as outLen bytes.
// A chunk that is not compressed stores exactly inLen bytes.
func NewChunkHeader(inLen, outLen int, compressed bool) (ChunkHeader, error) {
	h := ChunkHeader{InLen: inLen, OutLen: outLen, Compressed: compressed}
	if err := h.Validate(); err != nil {
		return ChunkHeader{}, err
	}

	return h, nil
}

// Validate rejects lengths that cannot be encoded or are inconsistent.
func (h ChunkHeader) Validate() error {
	if h.InLen < 1 || h.InLen > MaxChunkSize || h.OutLen < 1 || h.OutLen > MaxChunkSize {
		return fmt.Errorf("%w: lengths %d/%d outside 1..%d", errs.ErrInvalidChunkHeader, h.InLen, h.OutLen, MaxChunkSize)
	}
	if !h.Compressed && h.OutLen != h.InLen {
		return fmt.Errorf("%w: stored chunk of %d bytes declares %d", errs.ErrInvalidChunkHeader, h.InLen, h.OutLen)
	}

	return nil
}

// AppendTo appends the 4-byte encoding of h to dst.
func (h ChunkHeader) AppendTo(dst []byte) []byte {
	engine := endian.GetBigEndianEngine()

	out := uint16(h.OutLen - 1) //nolint:gosec
	if h.Compressed {
		out |= ChunkCompressed
	}
	dst = engine.AppendUint16(dst, uint16(h.InLen-1)) //nolint:gosec

	return engine.AppendUint16(dst, out)
}

// Bytes serializes the header into a new 4-byte slice.
func (h ChunkHeader) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, ChunkHeaderSize))
}

// ParseChunkHeader parses a ChunkHeader from the front of data.
func ParseChunkHeader(data []byte) (ChunkHeader, error) {
	if len(data) < ChunkHeaderSize {
		return ChunkHeader{}, fmt.Errorf("%w: chunk header needs %d bytes, have %d", errs.ErrTruncated, ChunkHeaderSize, len(data))
	}

	engine := endian.GetBigEndianEngine()
	in := engine.Uint16(data[0:2])
	out := engine.Uint16(data[2:4])

	h := ChunkHeader{
		InLen:      int(in) + 1,
		OutLen:     int(out&chunkLenMask) + 1,
		Compressed: out&ChunkCompressed != 0,
	}
	if err := h.Validate(); err != nil {
		return ChunkHeader{}, err
	}

	return h, nil
}
