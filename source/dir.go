package source

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/disintegration/gift"

	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/frame"
	"github.com/arloliu/mosaic/internal/options"
)

// DirConfig selects the files of a directory source.
type DirConfig struct {
	size  frame.Size
	first int
	last  int // inclusive, negative means unbounded
}

// DirOption configures a directory source.
type DirOption = options.Option[*DirConfig]

// WithFrameSize sets the frame geometry. The default is frame.DefaultSize.
func WithFrameSize(size frame.Size) DirOption {
	return options.New(func(c *DirConfig) error {
		if err := size.Validate(); err != nil {
			return err
		}
		c.size = size

		return nil
	})
}

// WithRange restricts the source to file numbers first..last inclusive.
// A negative last leaves the end open: the sequence stops at the first
// missing file.
func WithRange(first, last int) DirOption {
	return options.New(func(c *DirConfig) error {
		if first < 0 || (last >= 0 && last < first) {
			return fmt.Errorf("source: invalid range %d..%d", first, last)
		}
		c.first, c.last = first, last

		return nil
	})
}

// dir resolves frame indices to numbered files.
type dir struct {
	DirConfig
	root    string
	pattern string
}

func newDir(root, pattern string, opts []DirOption) (dir, error) {
	d := dir{
		DirConfig: DirConfig{size: frame.DefaultSize, last: -1},
		root:      root,
		pattern:   pattern,
	}
	if err := options.Apply(&d.DirConfig, opts...); err != nil {
		return dir{}, err
	}

	return d, nil
}

// open returns the file for index, or io.EOF past the range or at the
// first missing file.
func (d dir) open(index int) (*os.File, error) {
	n := d.first + index
	if index < 0 || (d.last >= 0 && n > d.last) {
		return nil, io.EOF
	}

	f, err := os.Open(filepath.Join(d.root, fmt.Sprintf(d.pattern, n)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	return f, nil
}

// Size returns the frame geometry.
func (d dir) Size() frame.Size {
	return d.size
}

// RawDir reads frames stored as raw width*height 8-bit files, e.g.
// images/image-0001.raw.
type RawDir struct {
	dir
}

var _ Source = (*RawDir)(nil)

// NewRawDir creates a source over root/pattern, where pattern is a
// fmt verb for the file number such as "image-%04d.raw".
func NewRawDir(root, pattern string, opts ...DirOption) (*RawDir, error) {
	d, err := newDir(root, pattern, opts)
	if err != nil {
		return nil, err
	}

	return &RawDir{dir: d}, nil
}

// Frame implements Source. Only the first width*height bytes of a file are
// used; a shorter file is an error.
func (s *RawDir) Frame(index int) ([]byte, error) {
	f, err := s.open(index)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, s.size.Pixels())
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errs.ErrInvalidFrameBuffer, f.Name(), err)
	}

	return buf, nil
}

// PNGDir reads PNG files, converts them to 8-bit luma and scales them to
// the frame size by nearest neighbour.
type PNGDir struct {
	dir
	filter *gift.GIFT
}

var _ Source = (*PNGDir)(nil)

// NewPNGDir creates a source over root/pattern, e.g. "frame-%05d.png".
func NewPNGDir(root, pattern string, opts ...DirOption) (*PNGDir, error) {
	d, err := newDir(root, pattern, opts)
	if err != nil {
		return nil, err
	}

	return &PNGDir{
		dir: d,
		filter: gift.New(
			gift.Grayscale(),
			gift.Resize(d.size.Width, d.size.Height, gift.NearestNeighborResampling),
		),
	}, nil
}

// Frame implements Source.
func (s *PNGDir) Frame(index int) ([]byte, error) {
	f, err := s.open(index)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", f.Name(), err)
	}

	return s.luma(img), nil
}

func (s *PNGDir) luma(img image.Image) []byte {
	gray := image.NewGray(image.Rect(0, 0, s.size.Width, s.size.Height))
	s.filter.Draw(gray, img)

	return gray.Pix
}
