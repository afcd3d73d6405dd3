package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/mosaic/format"
)

const (
	testWidth  = 64
	testHeight = 32
)

var sizeArgs = []string{"-width", strconv.Itoa(testWidth), "-height", strconv.Itoa(testHeight)}

// writeFrames writes n raw frames image-0001.raw.. with a moving white bar.
func writeFrames(t *testing.T, n int) string {
	t.Helper()
	dir := t.TempDir()
	for i := 1; i <= n; i++ {
		px := make([]byte, testWidth*testHeight)
		for y := range testHeight {
			for x := range testWidth {
				if (x+i*3)%24 < 8 {
					px[y*testWidth+x] = 255
				}
			}
		}
		name := filepath.Join(dir, fmt.Sprintf("image-%04d.raw", i))
		require.NoError(t, os.WriteFile(name, px, 0o600))
	}

	return dir
}

func TestRun_EncodeInspect(t *testing.T) {
	in := writeFrames(t, 6)
	out := t.TempDir()
	bin := filepath.Join(out, "anim.bin")
	prefix := filepath.Join(out, "anim")

	args := append([]string{"encode", "-input", in, "-output", bin, "-max-error", "2"}, sizeArgs...)
	require.Equal(t, 0, run(args, io.Discard))

	args = append([]string{"inspect", "-input", bin, "-output", prefix}, sizeArgs...)
	require.Equal(t, 0, run(args, io.Discard))

	blocks, err := os.ReadFile(prefix + ".blocks")
	require.NoError(t, err)
	require.NotEmpty(t, blocks)
	require.Zero(t, len(blocks)%format.BlockBytes)

	for _, ext := range []string{".tiles", ".frames"} {
		data, err := os.ReadFile(prefix + ext)
		require.NoError(t, err, ext)
		require.NotEmpty(t, data, ext)
	}

	report, err := os.ReadFile(prefix + ".txt")
	require.NoError(t, err)
	require.Contains(t, string(report), "frames")
	require.Contains(t, string(report), "6")
	require.Contains(t, string(report), "xxh64")
}

func TestRun_EnvDefaults(t *testing.T) {
	t.Setenv("MOSAIC_COMPRESSION", "none")
	t.Setenv("MOSAIC_THRESHOLD", "100")

	def := envDefaults()
	require.Equal(t, "none", def.compression)
	require.Equal(t, 100, def.threshold)

	in := writeFrames(t, 2)
	out := t.TempDir()
	bin := filepath.Join(out, "anim.bin")
	prefix := filepath.Join(out, "dump")

	args := append([]string{"encode", "-input", in, "-output", bin, "-last", "2"}, sizeArgs...)
	require.Equal(t, 0, run(args, io.Discard))

	args = append([]string{"inspect", "-input", bin, "-output", prefix}, sizeArgs...)
	require.Equal(t, 0, run(args, io.Discard))

	report, err := os.ReadFile(prefix + ".txt")
	require.NoError(t, err)
	require.Contains(t, string(report), "(0 compressed,")
}

func TestRun_Errors(t *testing.T) {
	in := writeFrames(t, 1)
	out := filepath.Join(t.TempDir(), "anim.bin")

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"decode"}},
		{"bad flag", []string{"encode", "-frobnicate"}},
		{"bad compression", append([]string{"encode", "-input", in, "-output", out, "-compression", "gzip"}, sizeArgs...)},
		{"bad frame size", []string{"encode", "-input", in, "-output", out, "-width", "10"}},
		{"no frames", append([]string{"encode", "-input", in, "-output", out, "-first", "50"}, sizeArgs...)},
		{"short frames", []string{"encode", "-input", in, "-output", out}},
		{"missing stream", []string{"inspect", "-input", filepath.Join(in, "nope.bin")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, 1, run(tt.args, io.Discard))
		})
	}

	_, err := os.Stat(out)
	require.True(t, os.IsNotExist(err), "failed encodes leave no output")
}

func TestRun_Help(t *testing.T) {
	require.Equal(t, 0, run([]string{"help"}, io.Discard))
	require.Equal(t, 0, run([]string{"encode", "-h"}, io.Discard))
}

func TestNewLogger_Level(t *testing.T) {
	t.Setenv("MOSAIC_LOG_LEVEL", "debug")
	require.Equal(t, zerolog.DebugLevel, newLogger(os.Stderr).GetLevel())

	t.Setenv("MOSAIC_LOG_LEVEL", "")
	require.Equal(t, zerolog.InfoLevel, newLogger(io.Discard).GetLevel())
}
