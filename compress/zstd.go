package compress

// ZstdCompressor provides Zstandard compression for stream chunks.
//
// It trades encode speed for ratio, which suits tile and frame sections of
// long animations that are built once and played many times.
//
// The pure-Go klauspost/compress implementation is used by default; the
// cgo gozstd binding is kept behind the nobuild tag.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(chunk)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
