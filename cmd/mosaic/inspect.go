package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/stream"
)

func runInspect(args []string, stderr io.Writer, logger zerolog.Logger) error {
	def := envDefaults()

	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		input       = fs.String("input", "anim.bin", "Stream file to inspect")
		output      = fs.String("output", "anim", "Prefix of the dumped .blocks, .tiles, .frames and .txt files")
		compression = fs.String("compression", def.compression, "Chunk compression the stream was written with")
		width       = fs.Int("width", format.DefaultFrameWidth, "Frame width in pixels")
		height      = fs.Int("height", format.DefaultFrameHeight, "Frame height in pixels")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts, err := streamOptions(*width, *height, *compression)
	if err != nil {
		return err
	}

	f, err := os.Open(*input)
	if err != nil {
		return err
	}
	defer f.Close()

	rep, err := stream.Inspect(f, opts...)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", *input, err)
	}

	for _, sec := range rep.Sections {
		name := *output + "." + sec.Name
		if err := os.WriteFile(name, sec.Data, 0o644); err != nil { //nolint:gosec
			return err
		}
		logger.Debug().Str("file", name).Int("bytes", len(sec.Data)).Msg("section written")
	}

	if err := writeReport(*output+".txt", rep); err != nil {
		return err
	}

	logger.Info().
		Uint32("frames", rep.Header.FrameCount).
		Uint32("tiles", rep.Header.TileCount).
		Uint32("blocks", rep.Header.BlockCount).
		Str("output", *output).
		Msg("inspect done")

	return nil
}

func writeReport(path string, rep *stream.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := rep.WriteText(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
