package stream

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/frame"
	"github.com/arloliu/mosaic/tile"
)

// small is a 4×2 tile frame.
var small = frame.Size{Width: 64, Height: 32}

// patternFrames returns n frames built from a handful of tile patterns,
// with the occasional noisy tile, so that dedupe has work to do.
func patternFrames(rng *rand.Rand, size frame.Size, n int) [][]byte {
	patterns := make([][]byte, 6)
	for i := range patterns {
		p := make([]byte, format.TileWidth*format.TileHeight)
		for j := range p {
			if rng.Intn(3) == 0 {
				p[j] = 255
			}
		}
		patterns[i] = p
	}

	frames := make([][]byte, n)
	for f := range frames {
		px := make([]byte, size.Pixels())
		for ty := range size.Rows() {
			for tx := range size.Cols() {
				p := patterns[rng.Intn(len(patterns))]
				noisy := rng.Intn(5) == 0
				for y := range format.TileHeight {
					for x := range format.TileWidth {
						v := p[y*format.TileWidth+x]
						if noisy && rng.Intn(40) == 0 {
							v = 255 - v
						}
						px[(ty*format.TileHeight+y)*size.Width+tx*format.TileWidth+x] = v
					}
				}
			}
		}
		frames[f] = px
	}

	return frames
}

// thresholded is what a frame renders to at the default threshold.
func thresholded(px []byte) []byte {
	out := make([]byte, len(px))
	for i, v := range px {
		if v > tile.DefaultThreshold {
			out[i] = 0xFF
		}
	}

	return out
}

func render(t *testing.T, s *Stream, i int) []byte {
	t.Helper()
	buf := make([]byte, s.Size().Pixels())
	require.NoError(t, s.Render(i, buf))

	return buf
}

func newEncoder(t *testing.T, opts ...EncoderOption) *Encoder {
	t.Helper()
	enc, err := NewEncoder(append([]EncoderOption{WithFrameSize(small)}, opts...)...)
	require.NoError(t, err)

	return enc
}

// encode adds frames to a new encoder and saves it.
func encode(t *testing.T, frames [][]byte, opts ...EncoderOption) (*Encoder, []byte) {
	t.Helper()
	enc := newEncoder(t, opts...)
	for _, f := range frames {
		require.NoError(t, enc.AddFrame(f))
	}

	var buf bytes.Buffer
	require.NoError(t, enc.Save(&buf))

	return enc, buf.Bytes()
}
