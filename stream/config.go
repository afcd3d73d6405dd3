package stream

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arloliu/mosaic/block"
	"github.com/arloliu/mosaic/compress"
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/frame"
	"github.com/arloliu/mosaic/internal/options"
	"github.com/arloliu/mosaic/tile"
)

// DefaultCompression is the chunk codec used when none is configured.
const DefaultCompression = format.CompressionLZ4

// StreamConfig holds the settings shared by Stream.Save, Load and Inspect.
// Neither setting is recorded in the file, so reader and writer must agree.
type StreamConfig struct {
	size        frame.Size
	compression format.CompressionType
	codec       compress.Codec
}

func newStreamConfig(opts []StreamOption) (*StreamConfig, error) {
	c := &StreamConfig{size: frame.DefaultSize}
	if err := c.setCompression(DefaultCompression); err != nil {
		return nil, err
	}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *StreamConfig) setCompression(comp format.CompressionType) error {
	codec, err := compress.GetCodec(comp)
	if err != nil {
		return err
	}
	c.compression = comp
	c.codec = codec

	return nil
}

// StreamOption configures Stream.Save, Load and Inspect.
type StreamOption = options.Option[*StreamConfig]

// WithStreamCompression sets the chunk codec. The default is LZ4.
func WithStreamCompression(comp format.CompressionType) StreamOption {
	return options.New(func(c *StreamConfig) error {
		return c.setCompression(comp)
	})
}

// WithStreamFrameSize sets the frame geometry used to decode frames.
// The default is frame.DefaultSize.
func WithStreamFrameSize(size frame.Size) StreamOption {
	return options.New(func(c *StreamConfig) error {
		if err := size.Validate(); err != nil {
			return err
		}
		c.size = size

		return nil
	})
}

// EncoderConfig holds the settings of an Encoder.
type EncoderConfig struct {
	size         frame.Size
	threshold    int
	compression  format.CompressionType
	passes       int
	maxError     int
	tileMaxError int
	mode         block.MatchMode
	uniform      bool
	logger       zerolog.Logger
}

func newEncoderConfig() *EncoderConfig {
	return &EncoderConfig{
		size:        frame.DefaultSize,
		threshold:   tile.DefaultThreshold,
		compression: DefaultCompression,
		passes:      1,
		mode:        block.MatchAllVariants,
		uniform:     true,
		logger:      zerolog.Nop(),
	}
}

// EncoderOption represents a functional option for configuring an Encoder.
type EncoderOption = options.Option[*EncoderConfig]

// WithFrameSize sets the frame geometry. Both dimensions must be positive
// multiples of the tile size.
func WithFrameSize(size frame.Size) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if err := size.Validate(); err != nil {
			return err
		}
		c.size = size

		return nil
	})
}

// WithThreshold sets the luma above which a pixel is white. The default is 200.
func WithThreshold(threshold int) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if threshold < 0 || threshold > 255 {
			return fmt.Errorf("threshold %d out of range [0, 255]", threshold)
		}
		c.threshold = threshold

		return nil
	})
}

// WithCompression sets the chunk codec used by Save. The default is LZ4.
func WithCompression(comp format.CompressionType) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if _, err := compress.GetCodec(comp); err != nil {
			return err
		}
		c.compression = comp

		return nil
	})
}

// WithBlockPasses sets how many approximate block passes Optimize runs.
// Passes stop early once one finds nothing to merge.
func WithBlockPasses(passes int) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if passes < 1 {
			return fmt.Errorf("block passes must be positive, got %d", passes)
		}
		c.passes = passes

		return nil
	})
}

// WithMaxError sets the largest number of differing pixels for two blocks
// to be merged. Zero, the default, disables approximate block matching.
func WithMaxError(maxError int) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if maxError < 0 {
			return fmt.Errorf("max error must not be negative, got %d", maxError)
		}
		c.maxError = maxError

		return nil
	})
}

// WithTileMaxError sets the largest number of differing pixels for two
// tiles to be merged. Zero, the default, disables approximate tile matching.
func WithTileMaxError(maxError int) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if maxError < 0 {
			return fmt.Errorf("tile max error must not be negative, got %d", maxError)
		}
		c.tileMaxError = maxError

		return nil
	})
}

// WithMatchMode selects the orientations considered by approximate matching.
func WithMatchMode(m block.MatchMode) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.mode = m
	})
}

// WithUniformTiles controls whether the all-black and all-white tiles are
// seeded at offsets 0 and 1. Enabled by default.
func WithUniformTiles(enabled bool) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.uniform = enabled
	})
}

// WithLogger sets the logger for progress and optimisation reports.
// The default discards everything.
func WithLogger(logger zerolog.Logger) EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.logger = logger
	})
}
