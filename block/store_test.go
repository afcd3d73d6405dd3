package block

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/internal/pool"
)

// glyph is asymmetric under every flip, so its eight variants are distinct.
var glyph = Bitmap{
	0b00000001,
	0b00000011,
	0b00000111,
	0b00001111,
	0b00000000,
	0b00000000,
	0b00000000,
	0b00000000,
}

func newStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := NewStore(opts...)
	require.NoError(t, err)

	return s
}

func randomBitmap(rng *rand.Rand) Bitmap {
	var bm Bitmap
	for i := range bm {
		bm[i] = byte(rng.Intn(256))
	}

	return bm
}

func TestFromPixels(t *testing.T) {
	const pitch = 12
	pixels := make([]byte, pitch*8)
	pixels[0] = 201         // x=0,y=0 above threshold
	pixels[1] = 200         // equal is not set
	pixels[7+3*pitch] = 255 // x=7,y=3
	pixels[8] = 255         // outside the window
	pixels[2+7*pitch] = 250 // x=2,y=7

	bm := FromPixels(pixels, pitch, 200)

	require.Equal(t, byte(0b00000001), bm[0])
	require.Equal(t, byte(0b10000000), bm[3])
	require.Equal(t, byte(0b00000100), bm[7])
	require.True(t, bm.Pixel(0, 0))
	require.False(t, bm.Pixel(1, 0))
	require.Equal(t, 3, bm.Hash())
}

func TestBitmapTransforms(t *testing.T) {
	require.Equal(t, byte(0b10000000), glyph.FlipX()[0])
	require.Equal(t, byte(0b00001111), glyph.FlipY()[4])
	require.Equal(t, 64-glyph.Hash(), glyph.Invert().Hash())

	for _, v := range format.Variants {
		tr := glyph.Transform(v)
		require.Equal(t, glyph, tr.Transform(v), "variant %08x is an involution", uint32(v))
		require.Equal(t, 64, tr.Distance(tr.Invert()))
	}

	seen := map[Bitmap]bool{}
	for _, v := range format.Variants {
		seen[glyph.Transform(v)] = true
	}
	require.Len(t, seen, 8)
}

func TestInsert_DeduplicatesEveryVariant(t *testing.T) {
	s := newStore(t)

	first := s.Insert(glyph)
	require.Equal(t, format.NewRef(0, 0), first)

	for _, v := range format.Variants {
		ref := s.Insert(glyph.Transform(v))
		require.Equal(t, uint32(0), ref.Index())
		require.Equal(t, v, ref.Orientation())
		require.Equal(t, glyph.Transform(v), s.Resolve(ref))
	}

	require.Equal(t, 1, s.Len())
	require.Equal(t, uint32(9), s.Get(0).Count)
}

func TestInsert_SymmetricPrefersEarlierVariant(t *testing.T) {
	s := newStore(t)
	var black Bitmap
	s.Insert(black)

	// all-white is reachable via Invert and every flip combined with it;
	// the first in priority order wins.
	white := black.Invert()
	require.Equal(t, format.NewRef(0, format.Invert), s.Insert(white))
}

func TestInsert_ResolveRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1)) //nolint:gosec
	s := newStore(t)

	for range 2000 {
		bm := randomBitmap(rng)
		ref := s.Insert(bm)
		require.Equal(t, bm, s.Resolve(ref))
	}

	_, refs := s.Live()
	require.Equal(t, uint64(2000), refs)
}

func TestFindMatchesReduceRebuild_Conservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7)) //nolint:gosec
	s := newStore(t)

	var inserted []format.Ref
	for range 500 {
		bm := randomBitmap(rng)
		// bias towards a few popular shapes with small noise
		if rng.Intn(2) == 0 {
			bm = glyph
			bm[rng.Intn(8)] ^= 1 << rng.Intn(8)
		}
		inserted = append(inserted, s.Insert(bm))
	}

	_, before := s.Live()

	const maxError = 2
	matched := s.FindMatches(maxError)
	require.Positive(t, matched)

	s.Reduce()
	for i := range s.Len() {
		b := s.Get(uint32(i))
		if b.Remap.IsNone() {
			continue
		}
		target := s.Get(b.Remap.Index())
		require.True(t, target.Remap.IsNone(), "remap chains are flat after Reduce")
		require.Positive(t, target.Count)
	}

	live, _ := s.Live()
	table := s.Rebuild()
	require.Equal(t, live, s.Len())

	_, after := s.Live()
	require.Equal(t, before, after)

	for i, ref := range inserted {
		nr := table[ref.Index()].Transform(ref.Orientation())
		require.False(t, nr.IsNone(), "insert %d lost its block", i)
		require.True(t, s.Valid(nr))
	}
}

func TestFindMatches_Exact(t *testing.T) {
	s := newStore(t)

	popular := glyph
	for range 5 {
		s.Insert(popular)
	}
	noisy := popular.FlipX()
	noisy[7] = 0b00000001
	ref := s.Insert(noisy)
	require.Equal(t, uint32(1), ref.Index())

	require.Equal(t, 1, s.FindMatches(1))
	b := s.Get(1)
	require.Equal(t, format.NewRef(0, format.FlipX), b.Remap)
	require.Equal(t, uint32(1), s.Get(0).Incoming)
	require.Equal(t, 1, s.Resolve(b.Remap).Distance(noisy))

	require.Equal(t, 1, s.Reduce())
	require.Equal(t, uint32(6), s.Get(0).Count)

	table := s.Rebuild()
	require.Equal(t, []format.Ref{format.NewRef(0, 0), format.NewRef(0, format.FlipX)}, table)
	require.Equal(t, 1, s.Len())
	require.Zero(t, s.Get(0).Incoming)
}

func TestMatch_SkipsRemappedBlocks(t *testing.T) {
	s := newStore(t)
	for range 5 {
		s.Insert(glyph)
	}
	noisy := glyph.FlipX()
	noisy[7] = 0b00000001
	s.Insert(noisy)
	require.Equal(t, format.NewRef(1, 0), s.Match(noisy))

	require.Equal(t, 1, s.FindMatches(1))
	require.Equal(t, 1, s.Reduce())
	require.Equal(t, format.NoRef, s.Match(noisy), "folded into block 0")

	ref := s.Insert(noisy)
	require.Equal(t, format.NewRef(2, 0), ref)
	require.Zero(t, s.Get(1).Count)
	require.Equal(t, uint32(6), s.Get(0).Count)

	table := s.Rebuild()
	require.Equal(t, format.NewRef(0, format.FlipX), table[1])
	require.Equal(t, 2, s.Len())
}

func TestFindMatches_IdentityOnly(t *testing.T) {
	s := newStore(t, WithMatchMode(MatchIdentityOnly))

	for range 5 {
		s.Insert(glyph)
	}
	noisy := glyph.FlipX()
	noisy[7] = 0b00000001
	s.Insert(noisy)

	require.Zero(t, s.FindMatches(1), "the flipped neighbour is out of reach without variants")
	require.Equal(t, 1, s.FindMatches(21))
	require.Equal(t, format.Orientation(0), s.Get(1).Remap.Orientation())
}

func TestFindMatches_Disabled(t *testing.T) {
	s := newStore(t)
	s.Insert(glyph)
	s.Insert(glyph.Invert())
	require.Zero(t, s.FindMatches(0))
}

func TestWithMatchMode_Invalid(t *testing.T) {
	_, err := NewStore(WithMatchMode(MatchMode(9)))
	require.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(3)) //nolint:gosec
	s := newStore(t)
	for range 64 {
		s.Insert(randomBitmap(rng))
	}

	buf := pool.NewByteBuffer(16)
	buf.MustWrite([]byte{0xEE})
	s.Save(buf)
	require.Equal(t, 1+s.Len()*format.BlockBytes, buf.Len())

	loaded := newStore(t)
	end, err := loaded.Load(buf.Bytes(), 1, s.Len())
	require.NoError(t, err)
	require.Equal(t, buf.Len(), end)
	require.Equal(t, s.Len(), loaded.Len())

	for i := range s.Len() {
		require.Equal(t, s.Get(uint32(i)).Bits, loaded.Get(uint32(i)).Bits)
		require.Zero(t, loaded.Get(uint32(i)).Count)
	}

	// loaded blocks are findable again
	ref := loaded.Insert(s.Get(5).Bits.FlipY())
	require.Equal(t, uint32(5), ref.Index())
	require.Equal(t, s.Len(), loaded.Len())
}

func TestLoad_Truncated(t *testing.T) {
	s := newStore(t)
	_, err := s.Load(make([]byte, 15), 0, 2)
	require.ErrorIs(t, err, errs.ErrTruncated)
}
