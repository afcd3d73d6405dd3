package section

import (
	"fmt"

	"github.com/arloliu/mosaic/endian"
	"github.com/arloliu/mosaic/errs"
)

// StreamHeader is the fixed-size header at the start of a stream file.
type StreamHeader struct {
	BlockCount uint32 // byte offset 0-3
	TileCount  uint32 // byte offset 4-7
	FrameCount uint32 // byte offset 8-11
	// UncompressedSize is the total length of the three sections after
	// decompression.
	UncompressedSize uint32 // byte offset 12-15
	// CompressedSize is the number of chunk bytes that follow the header,
	// chunk headers included.
	CompressedSize uint32 // byte offset 16-19
	// TileBits is the width of a packed tile reference in the frame section.
	TileBits uint16 // byte offset 20-21
	// BlockBits is the width of a packed block reference in the tile section.
	BlockBits uint16 // byte offset 22-23
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing header (must be exactly 24 bytes)
//
// Returns:
//   - error: ErrInvalidHeaderSize if data is not 24 bytes, or ErrSizeMismatch from Validate
func (h *StreamHeader) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	engine := endian.GetBigEndianEngine()

	h.BlockCount = engine.Uint32(data[0:4])
	h.TileCount = engine.Uint32(data[4:8])
	h.FrameCount = engine.Uint32(data[8:12])
	h.UncompressedSize = engine.Uint32(data[12:16])
	h.CompressedSize = engine.Uint32(data[16:20])
	h.TileBits = engine.Uint16(data[20:22])
	h.BlockBits = engine.Uint16(data[22:24])

	return h.Validate()
}

// Bytes serializes the header into a new 24-byte slice.
func (h *StreamHeader) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// AppendTo appends the serialized header to dst.
func (h *StreamHeader) AppendTo(dst []byte) []byte {
	engine := endian.GetBigEndianEngine()

	dst = engine.AppendUint32(dst, h.BlockCount)
	dst = engine.AppendUint32(dst, h.TileCount)
	dst = engine.AppendUint32(dst, h.FrameCount)
	dst = engine.AppendUint32(dst, h.UncompressedSize)
	dst = engine.AppendUint32(dst, h.CompressedSize)
	dst = engine.AppendUint16(dst, h.TileBits)
	dst = engine.AppendUint16(dst, h.BlockBits)

	return dst
}

// Validate checks the bit widths against the declared counts: a width
// must hold 3 orientation bits plus an index for every entry.
func (h *StreamHeader) Validate() error {
	if h.BlockBits > 32 || h.TileBits > 32 {
		return fmt.Errorf("%w: bit widths %d/%d exceed 32", errs.ErrSizeMismatch, h.BlockBits, h.TileBits)
	}
	if h.TileCount > 0 && !fits(h.BlockCount, h.BlockBits) {
		return fmt.Errorf("%w: %d blocks do not fit %d-bit references", errs.ErrSizeMismatch, h.BlockCount, h.BlockBits)
	}
	if h.FrameCount > 0 && !fits(h.TileCount, h.TileBits) {
		return fmt.Errorf("%w: %d tiles do not fit %d-bit references", errs.ErrSizeMismatch, h.TileCount, h.TileBits)
	}

	return nil
}

func fits(count uint32, bits uint16) bool {
	if bits < 3 {
		return false
	}
	indexBits := bits - 3
	if indexBits >= 32 {
		return true
	}

	return uint64(count) <= uint64(1)<<indexBits
}

// ParseStreamHeader parses a StreamHeader from the front of data.
//
// Returns:
//   - StreamHeader: Parsed header struct
//   - error: ErrInvalidHeaderSize if data is shorter than 24 bytes, or validation errors
func ParseStreamHeader(data []byte) (StreamHeader, error) {
	if len(data) < HeaderSize {
		return StreamHeader{}, errs.ErrInvalidHeaderSize
	}

	h := StreamHeader{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return StreamHeader{}, err
	}

	return h, nil
}
