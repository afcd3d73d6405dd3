package format

// Fixed geometry of the stream format.
const (
	BlockWidth  = 8
	BlockHeight = 8
	BlockBytes  = (BlockWidth / 8) * BlockHeight // bytes in one 1bpp block bitmap

	TileWidth  = 16
	TileHeight = 16
	TileCols   = TileWidth / BlockWidth   // blocks per tile row
	TileRows   = TileHeight / BlockHeight // blocks per tile column
	TileCells  = TileCols * TileRows

	DefaultFrameWidth  = 320
	DefaultFrameHeight = 256

	// HashBuckets is the bucket count of both store hash tables.
	HashBuckets = 256
)
