package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/frame"
	"github.com/arloliu/mosaic/source"
	"github.com/arloliu/mosaic/stream"
)

// errNoFrames is returned when the input pattern matches no file.
var errNoFrames = errors.New("no input frames")

func frameSize(width, height int) frame.Size {
	return frame.Size{Width: width, Height: height}
}

func runEncode(ctx context.Context, args []string, stderr io.Writer, logger zerolog.Logger) error {
	def := envDefaults()

	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		input       = fs.String("input", "images", "Directory holding the numbered frames")
		pattern     = fs.String("pattern", "image-%04d.raw", "File name pattern with a verb for the frame number")
		output      = fs.String("output", "anim.bin", "Output stream file, - for stdout")
		first       = fs.Int("first", 1, "First frame number")
		last        = fs.Int("last", -1, "Last frame number (-1 = until the first missing file)")
		threshold   = fs.Int("threshold", def.threshold, "Luma above which a pixel is white")
		maxError    = fs.Int("max-error", 0, "Differing pixels allowed when merging blocks (0 = exact)")
		passes      = fs.Int("passes", 1, "Approximate block passes")
		tileError   = fs.Int("tile-error", 0, "Differing pixels allowed when merging tiles (0 = exact)")
		compression = fs.String("compression", def.compression, "Chunk compression: lz4, s2, zstd or none")
		width       = fs.Int("width", format.DefaultFrameWidth, "Frame width in pixels")
		height      = fs.Int("height", format.DefaultFrameHeight, "Frame height in pixels")
		pngInput    = fs.Bool("png", false, "Read PNG files (implied by a .png pattern)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	comp, err := format.ParseCompressionType(*compression)
	if err != nil {
		return err
	}
	size := frameSize(*width, *height)

	dirOpts := []source.DirOption{
		source.WithFrameSize(size),
		source.WithRange(*first, *last),
	}
	var src source.Source
	if *pngInput || strings.HasSuffix(strings.ToLower(*pattern), ".png") {
		src, err = source.NewPNGDir(*input, *pattern, dirOpts...)
	} else {
		src, err = source.NewRawDir(*input, *pattern, dirOpts...)
	}
	if err != nil {
		return err
	}

	enc, err := stream.NewEncoder(
		stream.WithFrameSize(size),
		stream.WithThreshold(*threshold),
		stream.WithCompression(comp),
		stream.WithBlockPasses(*passes),
		stream.WithMaxError(*maxError),
		stream.WithTileMaxError(*tileError),
		stream.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	logger.Info().
		Str("input", *input).
		Str("pattern", *pattern).
		Stringer("size", size).
		Stringer("compression", comp).
		Msg("starting encode")

	start := time.Now()
	n, err := enc.Consume(ctx, src, nil)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w matching %s in %s", errNoFrames, *pattern, *input)
	}
	logger.Info().Int("frames", n).Dur("elapsed", time.Since(start)).Msg("frames read")

	if err := writeStream(*output, enc); err != nil {
		return err
	}
	logger.Info().Str("output", *output).Dur("elapsed", time.Since(start)).Msg("encode done")

	return nil
}

// writeStream saves enc to path, removing a partly written file on error.
func writeStream(path string, enc *stream.Encoder) error {
	if path == "-" {
		return enc.Save(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := enc.Save(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return err
	}

	return f.Close()
}
