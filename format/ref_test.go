package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefParts(t *testing.T) {
	r := NewRef(1234, FlipX|Invert)

	require.Equal(t, uint32(1234), r.Index())
	require.Equal(t, FlipX|Invert, r.Orientation())
	require.False(t, r.IsNone())
	require.True(t, NoRef.IsNone())

	r = r.Transform(Invert | FlipY)
	require.Equal(t, FlipX|FlipY, r.Orientation())
	require.Equal(t, uint32(1234), r.Index())
}

func TestRefPackUnpack(t *testing.T) {
	tests := []struct {
		name  string
		ref   Ref
		width int
	}{
		{"zero width index", NewRef(0, FlipY), 3},
		{"small", NewRef(5, FlipX|FlipY|Invert), 6},
		{"no flags", NewRef(1000, 0), 13},
		{"max", NewRef(MaxIndex, Invert), 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.ref.Pack(tt.width)
			require.Less(t, v, uint64(1)<<tt.width)
			require.Equal(t, tt.ref, Unpack(v, tt.width))
		})
	}
}

func TestPackPlacesFlagsInHighBits(t *testing.T) {
	v := NewRef(1, FlipX).Pack(5)
	require.Equal(t, uint64(0b10001), v)

	v = NewRef(2, Invert).Pack(5)
	require.Equal(t, uint64(0b00110), v)
}

func TestIndexBits(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 3},
		{1, 3},
		{2, 4},
		{3, 5},
		{4, 5},
		{5, 6},
		{256, 11},
		{257, 12},
		{int(MaxIndex) + 1, 32},
	}

	for _, tt := range tests {
		got, ok := IndexBits(tt.count)
		require.True(t, ok, "count %d", tt.count)
		require.Equal(t, tt.want, got, "count %d", tt.count)
	}

	_, ok := IndexBits(int(MaxIndex) + 2)
	require.False(t, ok)
}

func TestVariantsAreDistinct(t *testing.T) {
	seen := make(map[Orientation]bool)
	for _, v := range Variants {
		require.False(t, seen[v])
		seen[v] = true
		require.Equal(t, v, UnpackOrientation(v.Packed()))
	}
	require.Len(t, seen, 8)
	require.Equal(t, Orientation(0), Variants[0])
}

func TestParseCompressionType(t *testing.T) {
	for _, c := range []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4} {
		parsed, err := ParseCompressionType(map[CompressionType]string{
			CompressionNone: "none", CompressionZstd: "zstd", CompressionS2: "s2", CompressionLZ4: "lz4",
		}[c])
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}

	_, err := ParseCompressionType("brotli")
	require.Error(t, err)
	require.Equal(t, "Unknown", CompressionType(0).String())
}
