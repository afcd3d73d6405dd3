package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/format"
)

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

// sectionLike mimics a tile section: long runs of small repeated records.
func sectionLike(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 7 * 3)
	}

	return data
}

func randomBytes(n int, seed int64) []byte {
	data := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(data) //nolint:gosec

	return data
}

func TestCompressionType_String(t *testing.T) {
	tests := []struct {
		name     string
		cType    format.CompressionType
		expected string
	}{
		{"none compression", format.CompressionNone, "None"},
		{"zstd compression", format.CompressionZstd, "Zstd"},
		{"s2 compression", format.CompressionS2, "S2"},
		{"lz4 compression", format.CompressionLZ4, "LZ4"},
		{"unknown compression", format.CompressionType(0xFF), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.cType.String())
		})
	}
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := CreateCodec(ct)
			require.NoError(t, err)
			require.NotNil(t, codec)

			builtin, err := GetCodec(ct)
			require.NoError(t, err)
			require.IsType(t, codec, builtin)
		})
	}

	_, err := CreateCodec(format.CompressionType(0))
	require.ErrorIs(t, err, errs.ErrInvalidCompression)

	_, err = GetCodec(format.CompressionType(9))
	require.ErrorIs(t, err, errs.ErrInvalidCompression)
}

func TestCodec_RoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"section":  sectionLike(20000),
		"random":   randomBytes(4096, 1),
		"zeros":    make([]byte, 32768),
		"one byte": {0x42},
	}

	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		for name, data := range inputs {
			t.Run(ct.String()+"/"+name, func(t *testing.T) {
				compressed, err := codec.Compress(data)
				require.NoError(t, err)

				decompressed, err := codec.Decompress(compressed)
				require.NoError(t, err)
				require.True(t, bytes.Equal(data, decompressed))

				if sd, ok := codec.(SizedDecompressor); ok {
					decompressed, err = sd.DecompressSized(compressed, len(data))
					require.NoError(t, err)
					require.True(t, bytes.Equal(data, decompressed))
				}
			})
		}
	}
}

func TestCodec_EmptyInput(t *testing.T) {
	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		compressed, err := codec.Compress(nil)
		require.NoError(t, err)
		require.Empty(t, compressed)

		decompressed, err := codec.Decompress(nil)
		require.NoError(t, err)
		require.Empty(t, decompressed)
	}
}

func TestCodec_CompressesRepetitiveData(t *testing.T) {
	data := sectionLike(32768)
	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		compressed, err := codec.Compress(data)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(data)/4, ct.String())
	}
}

func TestCodec_CorruptedInput(t *testing.T) {
	garbage := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x01, 0x02}

	_, err := NewZstdCompressor().Decompress(garbage)
	require.Error(t, err)

	// declares 16 bytes, then a copy reaching far before the output start
	_, err = NewS2Compressor().Decompress([]byte{0x10, 0xFF, 0xFF, 0xFF, 0x00, 0x01})
	require.Error(t, err)

	_, err = NewLZ4Compressor().DecompressSized(garbage, 16)
	require.Error(t, err)
}

func TestS2_DecompressSizedMismatch(t *testing.T) {
	data := sectionLike(1000)
	compressed, err := NewS2Compressor().Compress(data)
	require.NoError(t, err)

	_, err = NewS2Compressor().DecompressSized(compressed, 999)
	require.Error(t, err)
}

func TestNoOp_SharesInput(t *testing.T) {
	data := []byte{1, 2, 3}
	out, err := NewNoOpCompressor().Compress(data)
	require.NoError(t, err)
	require.Same(t, &data[0], &out[0])
}
