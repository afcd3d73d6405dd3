// Package section defines the binary layouts of the mosaic stream container.
//
// A stream file starts with a fixed 24-byte StreamHeader followed by
// CompressedSize bytes of chunks:
//
//	+----------------------------+
//	| StreamHeader (24 bytes)    |
//	+----------------------------+
//	| ChunkHeader | payload      |  section 1: block bitmaps
//	| ChunkHeader | payload      |
//	| ...                        |  section 2: tile cell grids
//	| ...                        |  section 3: frames
//	+----------------------------+
//
// Header layout (big-endian):
//
//	offset  size  field
//	0       4     BlockCount
//	4       4     TileCount
//	8       4     FrameCount
//	12      4     UncompressedSize
//	16      4     CompressedSize
//	20      2     TileBits
//	22      2     BlockBits
//
// Each section is split independently into chunks of at most MaxChunkSize
// bytes. A ChunkHeader stores inLen-1 and outLen-1; the top bit of the
// second field (ChunkCompressed) is set when the payload is compressed,
// otherwise the payload is the raw chunk and outLen equals inLen.
//
// The compression algorithm is not recorded; reader and writer agree on
// it out of band.
package section
