// Package mosaic provides a compact, content-addressed stream format for
// 1bpp animations.
//
// Mosaic is built for playback on small machines: grayscale frames are
// thresholded to one bit per pixel, cut into 16×16 tiles made of four 8×8
// blocks, and both tiles and blocks are stored once in dictionaries that
// deduplicate them under flips and inversion. A frame is then just a grid
// of tile references, delta-coded against the previous frame.
//
// # Core Features
//
//   - Two-level dictionaries (tiles of blocks) with orientation-aware dedupe
//   - Optional lossy merging of near-identical blocks and tiles
//   - Copy/literal run-length frame deltas with minimal-width references
//   - Chunked container with optional compression (LZ4, S2, Zstd, None)
//
// # Basic Usage
//
// Encoding a frame sequence:
//
//	import "github.com/arloliu/mosaic"
//
//	enc, _ := mosaic.NewDefaultEncoder()
//	for _, pixels := range frames { // 320×256 bytes of 8-bit luma each
//	    if err := enc.AddFrame(pixels); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	if err := enc.Save(out); err != nil {
//	    log.Fatal(err)
//	}
//
// Decoding it again:
//
//	s, _ := mosaic.Load(in)
//	buf := make([]byte, s.Size().Pixels())
//	for i := range s.FrameCount() {
//	    _ = s.Render(i, buf)
//	}
//
// # Package Structure
//
// This package wraps the stream package for the common cases. Use stream
// directly for the full set of options, and block, tile and frame for the
// individual codec stages.
package mosaic

import (
	"io"
	"os"

	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/stream"
)

var defaultEncoderOptions = []stream.EncoderOption{
	stream.WithCompression(format.CompressionLZ4),
	stream.WithBlockPasses(1),
}

// NewEncoder creates a stream encoder with custom options.
//
// Parameters:
//   - opts: Optional configuration functions (see stream.EncoderOption)
//
// Returns:
//   - *stream.Encoder: The created encoder
//   - error: An error if the configuration is invalid
//
// Available options:
//   - stream.WithFrameSize(frame.Size{...})
//   - stream.WithThreshold(0..255)
//   - stream.WithCompression(format.CompressionNone|Zstd|S2|LZ4)
//   - stream.WithMaxError(n) / stream.WithBlockPasses(n) / stream.WithTileMaxError(n)
//   - stream.WithMatchMode(block.MatchAllVariants|MatchIdentityOnly)
//   - stream.WithUniformTiles(true|false)
//   - stream.WithLogger(zerolog.Logger)
//
// Example:
//
//	enc, err := mosaic.NewEncoder(
//	    stream.WithFrameSize(frame.Size{Width: 160, Height: 128}),
//	    stream.WithCompression(format.CompressionZstd),
//	)
func NewEncoder(opts ...stream.EncoderOption) (*stream.Encoder, error) {
	return stream.NewEncoder(opts...)
}

// NewDefaultEncoder creates a lossless encoder for 320×256 frames with LZ4
// chunk compression.
func NewDefaultEncoder() (*stream.Encoder, error) {
	return stream.NewEncoder(defaultEncoderOptions...)
}

// NewLossyEncoder creates an encoder that merges blocks differing in at
// most maxError pixels over three passes, and tiles differing in at most
// twice that. Later options override these settings.
//
// Lossy merging trades fidelity for a smaller dictionary; a maxError of
// 2 to 4 is usually invisible on dithered footage.
func NewLossyEncoder(maxError int, opts ...stream.EncoderOption) (*stream.Encoder, error) {
	allOpts := append(append([]stream.EncoderOption{}, defaultEncoderOptions...),
		stream.WithMaxError(maxError),
		stream.WithBlockPasses(3),
		stream.WithTileMaxError(2*maxError),
	)

	return stream.NewEncoder(append(allOpts, opts...)...)
}

// Load reads a stream from r.
//
// The frame size and compression are not stored in the stream, so opts
// must match the encoder's settings when they differ from the defaults.
func Load(r io.Reader, opts ...stream.StreamOption) (*stream.Stream, error) {
	return stream.Load(r, opts...)
}

// LoadFile reads a stream from the file at path.
func LoadFile(path string, opts ...stream.StreamOption) (*stream.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return stream.Load(f, opts...)
}

// Inspect reads and validates a stream from r and reports its header,
// sections and chunk statistics.
func Inspect(r io.Reader, opts ...stream.StreamOption) (*stream.Report, error) {
	return stream.Inspect(r, opts...)
}
