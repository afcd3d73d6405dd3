// Package block implements the block store: a content-addressed,
// orientation-aware dictionary of 8×8 one-bit bitmaps.
//
// A bitmap and all eight of its flip/invert variants share one stored
// entry; a format.Ref names the entry and the orientation that turns the
// stored bitmap back into the inserted one.
package block

import (
	"fmt"

	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/internal/arena"
	"github.com/arloliu/mosaic/internal/options"
	"github.com/arloliu/mosaic/internal/pool"
	"github.com/arloliu/mosaic/internal/refstore"
)

// maxHash is the largest value Bitmap.Hash can return.
const maxHash = format.BlockWidth * format.BlockHeight

// Block is one stored bitmap and its bookkeeping.
type Block struct {
	Bits Bitmap
	refstore.Meta

	// Incoming counts how many entries picked this block as their
	// approximate match during FindMatches. It is diagnostic only.
	Incoming uint32
}

// RefMeta implements refstore.Entry.
func (b *Block) RefMeta() *refstore.Meta { return &b.Meta }

func blockHash(b *Block) int { return b.Bits.Hash() }

// MatchMode selects the orientations tried by FindMatches.
type MatchMode int

const (
	// MatchAllVariants tries all eight orientations.
	MatchAllVariants MatchMode = iota
	// MatchIdentityOnly only compares blocks as stored.
	MatchIdentityOnly
)

// Variants returns the orientations tried under m, in priority order.
func (m MatchMode) Variants() []format.Orientation {
	if m == MatchIdentityOnly {
		return format.Variants[:1]
	}

	return format.Variants[:]
}

// String returns the flag spelling of m.
func (m MatchMode) String() string {
	if m == MatchIdentityOnly {
		return "identity"
	}

	return "all"
}

// Option configures a Store.
type Option = options.Option[*Store]

// WithMatchMode sets the orientations FindMatches considers.
func WithMatchMode(m MatchMode) Option {
	return options.New(func(s *Store) error {
		if m != MatchAllVariants && m != MatchIdentityOnly {
			return fmt.Errorf("block: unknown match mode %d", m)
		}
		s.mode = m

		return nil
	})
}

// Store is the block dictionary.
//
// Note: Store is NOT thread-safe.
type Store struct {
	blocks  *arena.Arena[Block]
	buckets *refstore.Buckets
	mode    MatchMode
}

// NewStore creates an empty store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		blocks:  arena.New[Block](),
		buckets: refstore.NewBuckets(),
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

// Len returns the number of stored blocks, live or not.
func (s *Store) Len() int {
	return s.blocks.Len()
}

// Get returns the block at offset. The pointer is invalidated by the next Insert.
func (s *Store) Get(offset uint32) *Block {
	return s.blocks.Get(offset)
}

// Live returns the number of blocks with a non-zero count and the total
// number of references they hold.
func (s *Store) Live() (int, uint64) {
	return refstore.LiveCount[Block](s.blocks)
}

// Match looks bm up under every orientation in priority order and returns
// the first exact hit, or format.NoRef. Entries already remapped elsewhere
// are skipped: Reduce moved their count to the target, and a count added
// afterwards would make Rebuild keep the folded entry.
func (s *Store) Match(bm Bitmap) format.Ref {
	for _, v := range format.Variants {
		t := bm.Transform(v)
		for idx := s.buckets.Head(t.Hash()); idx != refstore.NoIndex; {
			b := s.blocks.Get(idx)
			if b.Bits == t && b.Remap.IsNone() {
				return format.NewRef(idx, v)
			}
			idx = b.Next
		}
	}

	return format.NoRef
}

// Insert adds one reference to bm and returns it. An existing entry that
// equals bm under some orientation is reused and its count incremented;
// otherwise bm is stored as-is with count 1.
func (s *Store) Insert(bm Bitmap) format.Ref {
	if ref := s.Match(bm); !ref.IsNone() {
		s.blocks.Get(ref.Index()).Count++
		return ref
	}

	off, recs := s.blocks.Allocate(1)
	b := &recs[0]
	b.Bits = bm
	b.Reset(1)
	s.buckets.Push(&b.Meta, off, bm.Hash())

	return format.NewRef(off, 0)
}

// Resolve returns the bitmap ref denotes.
func (s *Store) Resolve(ref format.Ref) Bitmap {
	return s.blocks.Get(ref.Index()).Bits.Transform(ref.Orientation())
}

// Valid reports whether ref addresses a stored block.
func (s *Store) Valid(ref format.Ref) bool {
	return !ref.IsNone() && int(ref.Index()) < s.blocks.Len()
}

// FindMatches proposes, for every live block, the nearest block within
// maxError differing pixels that is referenced more often, and records it
// as the block's remap. It returns the number of remaps recorded.
//
// A maxError of zero disables the pass.
func (s *Store) FindMatches(maxError int) int {
	return refstore.FindMatches[Block](s.blocks, s.buckets, refstore.Matcher{
		Variants: s.mode.Variants(),
		MaxError: maxError,
		MaxHash:  maxHash,
		Probe: func(index uint32, o format.Orientation) refstore.Probe {
			t := s.blocks.Get(index).Bits.Transform(o)
			return refstore.Probe{
				Hash: t.Hash(),
				Distance: func(cand uint32) int {
					return t.Distance(s.blocks.Get(cand).Bits)
				},
			}
		},
		OnMatch: func(target uint32) {
			s.blocks.Get(target).Incoming++
		},
	})
}

// Reduce collapses the remap chains left by FindMatches so that every
// remapped block points straight at a surviving block. It returns the
// number of blocks collapsed.
func (s *Store) Reduce() int {
	return refstore.Reduce[Block](s.blocks)
}

// Rebuild drops every block with a zero count and returns the remap table
// from old offsets to new references; see refstore.Compact.
func (s *Store) Rebuild() []format.Ref {
	fresh, table := refstore.Compact[Block](s.blocks, s.buckets, blockHash)
	for i := range fresh.Len() {
		fresh.Get(uint32(i)).Incoming = 0 //nolint:gosec
	}
	s.blocks = fresh

	return table
}

// Save appends every stored block, 8 bytes each, in offset order.
func (s *Store) Save(buf *pool.ByteBuffer) {
	for i := range s.blocks.Len() {
		b := s.blocks.Get(uint32(i)) //nolint:gosec
		buf.MustWrite(b.Bits[:])
	}
}

// Load replaces the store contents with count blocks read from data at
// offset and returns the offset just past them. Loaded blocks have a zero
// count.
func (s *Store) Load(data []byte, offset, count int) (int, error) {
	end := offset + count*format.BlockBytes
	if count < 0 || offset < 0 || end > len(data) {
		return offset, fmt.Errorf("%w: block section needs %d bytes at offset %d, have %d",
			errs.ErrTruncated, count*format.BlockBytes, offset, len(data)-offset)
	}

	s.blocks.Reset()
	s.buckets.Reset()

	_, recs := s.blocks.Allocate(count)
	for i := range recs {
		b := &recs[i]
		copy(b.Bits[:], data[offset:])
		b.Reset(0)
		s.buckets.Push(&b.Meta, uint32(i), b.Bits.Hash()) //nolint:gosec
		offset += format.BlockBytes
	}

	return offset, nil
}
