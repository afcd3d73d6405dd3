// Package compress provides the general-purpose byte codecs applied to
// mosaic stream sections, and the chunk framing around them.
//
// # Overview
//
// A stream stores three sections (block bitmaps, tile grids, frames). Each
// section is split into chunks of at most section.MaxChunkSize bytes and
// every chunk is compressed on its own. The compressed form is kept only
// when it is strictly smaller than the input; otherwise the chunk is
// stored raw and flagged as such in its header. Small independent chunks
// let the playback target decompress with a fixed 32 KiB window.
//
// # Supported Algorithms
//
//   - None: every chunk stored raw
//   - LZ4: fast block compression, the default
//   - S2: Snappy-compatible block compression
//   - Zstd: best ratio, slowest
//
// The algorithm is not recorded in the stream, so the same
// format.CompressionType must be used to read a stream back.
//
// # Usage
//
//	codec, _ := compress.GetCodec(format.CompressionLZ4)
//	stats, err := compress.WriteChunks(buf, codec, sectionBytes)
//	...
//	data, stats, err := compress.ReadChunks(codec, payload, uncompressedSize)
//
// # Thread Safety
//
// All codecs are stateless values backed by sync.Pool, and are safe for
// concurrent use.
package compress
