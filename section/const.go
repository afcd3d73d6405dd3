package section

import "math"

// offsets and sizes in the stream file
const (
	HeaderSize      = 24 // fixed stream header size in bytes
	ChunkHeaderSize = 4  // inLen-1 u16, outLen-1|flag u16

	// MaxChunkSize is the largest uncompressed (and stored) chunk payload.
	MaxChunkSize = 32768

	// ChunkCompressed marks a chunk whose payload went through the codec.
	ChunkCompressed = 0x8000
	chunkLenMask    = ChunkCompressed - 1

	// MaxFrameBytes is the largest encoded frame, bounded by its u16 length prefix.
	MaxFrameBytes = math.MaxUint16
)
