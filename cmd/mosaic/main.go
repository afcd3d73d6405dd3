// Command mosaic encodes numbered grayscale frames into a mosaic stream
// and dumps the sections of an existing stream.
//
//	mosaic encode -input images -pattern image-%04d.raw -output anim.bin
//	mosaic inspect -input anim.bin -output anim
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/internal/logx"
	"github.com/arloliu/mosaic/stream"
	"github.com/arloliu/mosaic/tile"
)

const usage = `Usage: mosaic <command> [options]

Commands:
  encode    encode a numbered frame sequence into a stream
  inspect   validate a stream and dump its sections

Run "mosaic <command> -h" for the options of a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	logger := newLogger(stderr)

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch args[0] {
	case "encode":
		err = runEncode(ctx, args[1:], stderr, logger)
	case "inspect":
		err = runInspect(args[1:], stderr, logger)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stderr, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "mosaic: unknown command %q\n\n%s", args[0], usage)
		return 1
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		logger.Error().Err(err).Str("command", args[0]).Msg("failed")
		return 1
	}

	return 0
}

// newLogger returns the command logger at the MOSAIC_LOG_LEVEL level.
func newLogger(stderr io.Writer) zerolog.Logger {
	var logger zerolog.Logger
	if stderr == os.Stderr {
		logger = logx.NewLogger()
	} else {
		logger = logx.NewLoggerTo(stderr)
	}

	return logger.Level(logx.ParseLevel(os.Getenv("MOSAIC_LOG_LEVEL")))
}

// defaults holds the option defaults that can come from the environment.
type defaults struct {
	compression string
	threshold   int
}

func envDefaults() defaults {
	d := defaults{
		compression: "lz4",
		threshold:   tile.DefaultThreshold,
	}
	if env := os.Getenv("MOSAIC_COMPRESSION"); env != "" {
		d.compression = env
	}
	if env := os.Getenv("MOSAIC_THRESHOLD"); env != "" {
		if v, err := strconv.Atoi(env); err == nil {
			d.threshold = v
		}
	}

	return d
}

// streamOptions builds the options shared by the decoding side.
func streamOptions(width, height int, compression string) ([]stream.StreamOption, error) {
	comp, err := format.ParseCompressionType(compression)
	if err != nil {
		return nil, err
	}

	return []stream.StreamOption{
		stream.WithStreamFrameSize(frameSize(width, height)),
		stream.WithStreamCompression(comp),
	}, nil
}
