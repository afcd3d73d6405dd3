package source

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/frame"
)

var small = frame.Size{Width: 32, Height: 16}

func writeRaw(t *testing.T, dir string, n int, fill byte, size int) {
	t.Helper()
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = fill
	}
	name := filepath.Join(dir, fmt.Sprintf("image-%04d.raw", n))
	require.NoError(t, os.WriteFile(name, buf, 0o600))
}

func TestFrames(t *testing.T) {
	a := make([]byte, small.Pixels())
	b := make([]byte, small.Pixels())
	b[0] = 9

	src, err := NewFrames(small, a, b)
	require.NoError(t, err)
	require.Equal(t, 2, src.Len())

	got, err := src.Frame(1)
	require.NoError(t, err)
	require.Equal(t, byte(9), got[0])

	_, err = src.Frame(2)
	require.ErrorIs(t, err, io.EOF)

	_, err = NewFrames(small, a, b[:10])
	require.ErrorIs(t, err, errs.ErrInvalidFrameBuffer)

	_, err = NewFrames(frame.Size{Width: 10, Height: 16})
	require.ErrorIs(t, err, errs.ErrInvalidFrameSize)
}

func TestRawDir(t *testing.T) {
	dir := t.TempDir()
	for n := 5; n <= 7; n++ {
		writeRaw(t, dir, n, byte(n), small.Pixels()+3)
	}

	t.Run("open range stops at first missing file", func(t *testing.T) {
		src, err := NewRawDir(dir, "image-%04d.raw", WithFrameSize(small), WithRange(5, -1))
		require.NoError(t, err)
		require.Equal(t, small, src.Size())

		for i := range 3 {
			buf, err := src.Frame(i)
			require.NoError(t, err)
			require.Len(t, buf, small.Pixels())
			require.Equal(t, byte(5+i), buf[0])
		}
		_, err = src.Frame(3)
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("closed range", func(t *testing.T) {
		src, err := NewRawDir(dir, "image-%04d.raw", WithFrameSize(small), WithRange(5, 6))
		require.NoError(t, err)

		_, err = src.Frame(1)
		require.NoError(t, err)
		_, err = src.Frame(2)
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("short file", func(t *testing.T) {
		writeRaw(t, dir, 9, 1, 10)
		src, err := NewRawDir(dir, "image-%04d.raw", WithFrameSize(small), WithRange(9, 9))
		require.NoError(t, err)

		_, err = src.Frame(0)
		require.ErrorIs(t, err, errs.ErrInvalidFrameBuffer)
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewRawDir(dir, "%d", WithRange(4, 2))
		require.Error(t, err)

		_, err = NewRawDir(dir, "%d", WithFrameSize(frame.Size{Width: 8, Height: 8}))
		require.ErrorIs(t, err, errs.ErrInvalidFrameSize)
	})
}

func TestPNGDir(t *testing.T) {
	dir := t.TempDir()

	// a half-size image: left half black, right half white
	img := image.NewGray(image.Rect(0, 0, small.Width/2, small.Height/2))
	for y := range small.Height / 2 {
		for x := range small.Width / 2 {
			if x >= small.Width/4 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	f, err := os.Create(filepath.Join(dir, "frame-1.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	src, err := NewPNGDir(dir, "frame-%d.png", WithFrameSize(small), WithRange(1, -1))
	require.NoError(t, err)

	buf, err := src.Frame(0)
	require.NoError(t, err)
	require.Len(t, buf, small.Pixels())

	for y := range small.Height {
		for x := range small.Width {
			want := 0
			if x >= small.Width/2 {
				want = 255
			}
			require.InDelta(t, want, int(buf[y*small.Width+x]), 1, "pixel %d,%d", x, y)
		}
	}

	_, err = src.Frame(1)
	require.ErrorIs(t, err, io.EOF)
}

func TestPNGDir_NotAPNG(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame-0.png"), []byte("nope"), 0o600))

	src, err := NewPNGDir(dir, "frame-%d.png", WithFrameSize(small))
	require.NoError(t, err)

	_, err = src.Frame(0)
	require.Error(t, err)
}

func TestSinkFunc(t *testing.T) {
	var got time.Duration
	sink := SinkFunc(func(_ []byte, hint time.Duration) (bool, error) {
		got = hint
		return true, nil
	})

	quit, err := sink.Present(nil, 40*time.Millisecond)
	require.NoError(t, err)
	require.True(t, quit)
	require.Equal(t, 40*time.Millisecond, got)
}
