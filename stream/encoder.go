package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/arloliu/mosaic/compress"
	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/frame"
	"github.com/arloliu/mosaic/internal/options"
	"github.com/arloliu/mosaic/internal/pool"
	"github.com/arloliu/mosaic/source"
	"github.com/arloliu/mosaic/tile"
)

// PreviewHint is the display time passed to the preview sink during Consume.
const PreviewHint = 400 * time.Millisecond

// Encoder builds a stream from 8-bit grayscale frames.
//
// Frames are added with AddFrame or Consume. Optimize then shrinks the
// block and tile stores and Save writes the container. Once optimized the
// encoder accepts no more frames.
//
// Note: Encoder is NOT thread-safe.
type Encoder struct {
	cfg       *EncoderConfig
	stream    *Stream
	log       zerolog.Logger
	inserted  int // tile insertions, for the dedupe ratio
	optimized bool
}

// NewEncoder creates an encoder with the given options.
//
// Example:
//
//	enc, err := stream.NewEncoder(
//	    stream.WithMaxError(4),
//	    stream.WithCompression(format.CompressionZstd),
//	)
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	cfg := newEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	tileOpts := []tile.Option{
		tile.WithThreshold(cfg.threshold),
		tile.WithMatchMode(cfg.mode),
	}
	if !cfg.uniform {
		tileOpts = append(tileOpts, tile.WithoutUniformTiles())
	}

	s, err := newStream(cfg.size, tileOpts...)
	if err != nil {
		return nil, err
	}

	return &Encoder{cfg: cfg, stream: s, log: cfg.logger}, nil
}

// AddFrame splits pixels, a width*height 8-bit frame, into tiles in raster
// order and appends the resulting frame.
func (e *Encoder) AddFrame(pixels []byte) error {
	if e.optimized {
		return errs.ErrEncoderFinished
	}

	size := e.cfg.size
	if len(pixels) != size.Pixels() {
		return fmt.Errorf("%w: %d bytes for a %s frame", errs.ErrInvalidFrameBuffer, len(pixels), size)
	}

	refs, release := pool.GetRefSlice(size.Cells())
	defer release()

	tiles := e.stream.tiles
	i := 0
	for y := 0; y < size.Height; y += format.TileHeight {
		for x := 0; x < size.Width; x += format.TileWidth {
			refs[i] = tiles.Insert(pixels[y*size.Width+x:], size.Width)
			i++
		}
	}
	if err := e.stream.frames.Add(frame.Frame(refs)); err != nil {
		return err
	}
	e.inserted += len(refs)

	e.log.Debug().
		Int("frames", e.stream.frames.Len()).
		Int("tiles", tiles.Len()).
		Int("blocks", tiles.Blocks().Len()).
		Float64("tile_ratio", e.tileRatio()).
		Msg("frame added")

	return nil
}

// tileRatio is the share of tile insertions that created a new tile, in percent.
func (e *Encoder) tileRatio() float64 {
	if e.inserted == 0 {
		return 0
	}

	return float64(e.stream.tiles.Len()) * 100 / float64(e.inserted)
}

// Consume adds frames from src until it returns io.EOF. Each added frame
// is shown on sink, if not nil, which may stop the loop early. ctx is
// checked between frames.
//
// Returns the number of frames added.
func (e *Encoder) Consume(ctx context.Context, src source.Source, sink source.Sink) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		buf, err := src.Frame(n)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("frame %d: %w", n, err)
		}

		if err := e.AddFrame(buf); err != nil {
			return n, fmt.Errorf("frame %d: %w", n, err)
		}
		n++

		if sink == nil {
			continue
		}
		quit, err := sink.Present(buf, PreviewHint)
		if err != nil {
			return n, fmt.Errorf("preview frame %d: %w", n-1, err)
		}
		if quit {
			return n, nil
		}
	}
}

// Optimize runs the store reduction pipeline:
//
//  1. up to WithBlockPasses approximate block passes, when WithMaxError is set
//  2. tile dedupe, then an approximate tile pass when WithTileMaxError is set
//  3. tile rebuild and frame remap
//  4. a block sweep dropping blocks only dead tiles used
//
// Rendered frames are unchanged when both error limits are zero. Optimize
// runs at most once; later calls do nothing.
func (e *Encoder) Optimize() error {
	if e.optimized {
		return nil
	}
	e.optimized = true

	tiles := e.stream.tiles
	start := time.Now()

	if e.cfg.maxError > 0 {
		for pass := range e.cfg.passes {
			blocks := tiles.Blocks()
			matches := blocks.FindMatches(e.cfg.maxError)
			reduced := blocks.Reduce()
			if err := tiles.RemapBlocks(blocks.Rebuild()); err != nil {
				return fmt.Errorf("block pass %d: %w", pass+1, err)
			}

			live, refs := tiles.Blocks().Live()
			e.log.Info().
				Int("pass", pass+1).
				Int("matches", matches).
				Int("reduced", reduced).
				Int("blocks", live).
				Uint64("refs", refs).
				Msg("block pass")

			if matches == 0 {
				break
			}
		}
	}

	merged := tiles.Dedupe()
	e.log.Info().Int("merged", merged).Msg("tile dedupe")

	if e.cfg.tileMaxError > 0 {
		matches := tiles.FindMatches(e.cfg.tileMaxError)
		reduced := tiles.Reduce()
		e.log.Info().Int("matches", matches).Int("reduced", reduced).Msg("tile pass")
	}

	if err := e.stream.frames.RemapTiles(tiles.Rebuild()); err != nil {
		return fmt.Errorf("tile rebuild: %w", err)
	}
	if err := tiles.SweepBlocks(); err != nil {
		return fmt.Errorf("block sweep: %w", err)
	}

	e.log.Info().
		Int("frames", e.stream.frames.Len()).
		Int("tiles", tiles.Len()).
		Int("blocks", tiles.Blocks().Len()).
		Dur("elapsed", time.Since(start)).
		Msg("optimized")

	return nil
}

// Stream returns the stream being built.
func (e *Encoder) Stream() *Stream {
	return e.stream
}

// Save optimizes the stream, if that has not happened yet, and writes it
// to w with the configured compression.
func (e *Encoder) Save(w io.Writer) error {
	if err := checkInteractive(w); err != nil {
		return err
	}
	if err := e.Optimize(); err != nil {
		return err
	}

	codec, err := compress.GetCodec(e.cfg.compression)
	if err != nil {
		return err
	}
	stats, err := e.stream.save(w, codec)
	if err != nil {
		return err
	}

	e.log.Info().
		Stringer("compression", e.cfg.compression).
		Int("chunks", stats.Chunks).
		Int("compressed", stats.Compressed).
		Int("in_bytes", stats.InBytes).
		Int("out_bytes", stats.OutBytes).
		Float64("savings", stats.SpaceSavings()).
		Msg("stream saved")

	return nil
}
