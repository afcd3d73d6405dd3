// Package tile implements the tile store: a content-addressed dictionary
// of 16×16 tiles, each made of four block references.
//
// Tiles are deduplicated under the same eight orientations as blocks. A
// tile's hash is the sum of the hashes of its stored (untransformed)
// blocks, which every tile orientation leaves unchanged.
package tile

import (
	"fmt"

	"github.com/arloliu/mosaic/block"
	"github.com/arloliu/mosaic/errs"
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/internal/arena"
	"github.com/arloliu/mosaic/internal/bitstream"
	"github.com/arloliu/mosaic/internal/options"
	"github.com/arloliu/mosaic/internal/pool"
	"github.com/arloliu/mosaic/internal/refstore"
)

const (
	// DefaultThreshold is the luma above which a pixel is white.
	DefaultThreshold = 200

	// maxHash is the largest tile hash: four full blocks.
	maxHash = format.TileCells * format.BlockWidth * format.BlockHeight

	// Offsets of the seeded uniform tiles.
	BlackTile = 0
	WhiteTile = 1
)

// Tile is one stored tile and its bookkeeping.
type Tile struct {
	Cells Cells
	refstore.Meta
}

// RefMeta implements refstore.Entry.
func (t *Tile) RefMeta() *refstore.Meta { return &t.Meta }

// Option configures a Store.
type Option = options.Option[*Store]

// WithThreshold sets the luma threshold used by Insert.
func WithThreshold(threshold int) Option {
	return options.New(func(s *Store) error {
		if threshold < 0 || threshold > 255 {
			return fmt.Errorf("tile: threshold %d out of range [0, 255]", threshold)
		}
		s.threshold = byte(threshold)

		return nil
	})
}

// WithMatchMode sets the orientations the tile and block FindMatches passes consider.
func WithMatchMode(m block.MatchMode) Option {
	return options.New(func(s *Store) error {
		if m != block.MatchAllVariants && m != block.MatchIdentityOnly {
			return fmt.Errorf("tile: unknown match mode %d", m)
		}
		s.mode = m

		return nil
	})
}

// WithoutUniformTiles leaves the store empty instead of seeding the
// all-black and all-white tiles at offsets 0 and 1.
func WithoutUniformTiles() Option {
	return options.NoError(func(s *Store) {
		s.uniform = false
	})
}

// Store is the tile dictionary. It owns the block store its cells point into.
//
// Note: Store is NOT thread-safe.
type Store struct {
	tiles     *arena.Arena[Tile]
	buckets   *refstore.Buckets
	blocks    *block.Store
	threshold byte
	mode      block.MatchMode
	uniform   bool
}

// NewStore creates a tile store with its own block store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		tiles:     arena.New[Tile](),
		buckets:   refstore.NewBuckets(),
		threshold: DefaultThreshold,
		uniform:   true,
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}

	blocks, err := block.NewStore(block.WithMatchMode(s.mode))
	if err != nil {
		return nil, err
	}
	s.blocks = blocks

	if s.uniform {
		s.seedUniform()
	}

	return s, nil
}

// seedUniform stores the all-black and all-white tiles with a zero count.
// The white tile is stored with inverted children rather than as an
// inverted reference to the black one, so both keep their own offset.
// Seeds hold no references, to blocks or otherwise.
func (s *Store) seedUniform() {
	var black block.Bitmap
	seeds := []format.Ref{
		s.blocks.Insert(black),
		s.blocks.Insert(black.Invert()),
	}

	for _, ref := range seeds {
		s.blocks.Get(ref.Index()).Count--

		off, recs := s.tiles.Allocate(1)
		t := &recs[0]
		t.Cells = Cells{ref, ref, ref, ref}
		t.Reset(0)
		s.buckets.Push(&t.Meta, off, s.hash(t.Cells))
	}
}

// Blocks returns the block store.
func (s *Store) Blocks() *block.Store {
	return s.blocks
}

// Len returns the number of stored tiles, live or not.
func (s *Store) Len() int {
	return s.tiles.Len()
}

// Get returns the tile at offset. The pointer is invalidated by the next Insert.
func (s *Store) Get(offset uint32) *Tile {
	return s.tiles.Get(offset)
}

// Live returns the number of tiles with a non-zero count and the total
// number of references they hold.
func (s *Store) Live() (int, uint64) {
	return refstore.LiveCount[Tile](s.tiles)
}

// Threshold returns the luma threshold used by Insert.
func (s *Store) Threshold() byte {
	return s.threshold
}

// hash sums the stored block hashes of the cells. Cells detached by
// RemapBlocks contribute nothing.
func (s *Store) hash(c Cells) int {
	h := 0
	for _, ref := range c {
		if !ref.IsNone() {
			h += s.blocks.Get(ref.Index()).Bits.Hash()
		}
	}

	return h
}

func (s *Store) tileHash(t *Tile) int { return s.hash(t.Cells) }

// equal compares two cell layouts by their rendered bitmaps, since a
// symmetric block can be reached through more than one orientation.
func (s *Store) equal(a, b Cells) bool {
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if a[i].IsNone() || b[i].IsNone() {
			return false
		}
		if s.blocks.Resolve(a[i]) != s.blocks.Resolve(b[i]) {
			return false
		}
	}

	return true
}

// match returns the first stored tile equal to c under some orientation,
// trying orientations in priority order. Only tiles accepted by keep are
// considered.
func (s *Store) match(c Cells, keep func(idx uint32, t *Tile) bool) format.Ref {
	h := s.hash(c)
	for _, v := range format.Variants {
		tc := c.Transform(v)
		for idx := s.buckets.Head(h); idx != refstore.NoIndex; {
			t := s.tiles.Get(idx)
			if keep(idx, t) && s.equal(t.Cells, tc) {
				return format.NewRef(idx, v)
			}
			idx = t.Next
		}
	}

	return format.NoRef
}

// Insert thresholds the 16×16 window of 8-bit pixels starting at pixels[0],
// inserts its four blocks and then the tile itself.
func (s *Store) Insert(pixels []byte, pitch int) format.Ref {
	var c Cells
	for i := range c {
		cx, cy := i%format.TileCols, i/format.TileCols
		start := cy*format.BlockHeight*pitch + cx*format.BlockWidth
		c[i] = s.blocks.Insert(block.FromPixels(pixels[start:], pitch, s.threshold))
	}

	return s.InsertCells(c)
}

// InsertCells adds one reference to the tile made of cells and returns it.
// An existing tile equal to it under some orientation is reused and its
// count incremented; otherwise the tile is stored with count 1.
func (s *Store) InsertCells(c Cells) format.Ref {
	// a remapped tile was folded into its target; counting it again would revive it
	ref := s.match(c, func(_ uint32, t *Tile) bool { return t.Remap.IsNone() })
	if !ref.IsNone() {
		s.tiles.Get(ref.Index()).Count++
		return ref
	}

	off, recs := s.tiles.Allocate(1)
	t := &recs[0]
	t.Cells = c
	t.Reset(1)
	s.buckets.Push(&t.Meta, off, s.hash(c))

	return format.NewRef(off, 0)
}

// Resolve returns the cells ref denotes.
func (s *Store) Resolve(ref format.Ref) Cells {
	return s.tiles.Get(ref.Index()).Cells.Transform(ref.Orientation())
}

// Bitmap renders the tile ref denotes.
func (s *Store) Bitmap(ref format.Ref) Bitmap {
	c := s.Resolve(ref)

	var cells [format.TileCells]block.Bitmap
	for i, r := range c {
		cells[i] = s.blocks.Resolve(r)
	}

	return compose(cells)
}

// Valid reports whether ref addresses a stored tile.
func (s *Store) Valid(ref format.Ref) bool {
	return !ref.IsNone() && int(ref.Index()) < s.tiles.Len()
}

// Dedupe merges live tiles that became identical, typically after
// RemapBlocks. Each live tile is compared against the earlier live
// survivors of its bucket; on a hit it is remapped there and its count
// moves to the survivor. It returns the number of tiles merged.
func (s *Store) Dedupe() int {
	merged := 0
	for i := range s.tiles.Len() {
		idx := uint32(i) //nolint:gosec
		cur := s.tiles.Get(idx)
		if cur.Count == 0 || !cur.Remap.IsNone() {
			continue
		}

		ref := s.match(cur.Cells, func(cand uint32, t *Tile) bool {
			return cand < idx && t.Count > 0 && t.Remap.IsNone()
		})
		if ref.IsNone() {
			continue
		}

		survivor := s.tiles.Get(ref.Index())
		survivor.Count += cur.Count
		cur.Count = 0
		cur.Remap = ref
		merged++
	}

	return merged
}

// FindMatches is the approximate tile pass: every live tile is remapped to
// the nearest more-referenced tile whose rendered pixels differ in at most
// maxError places. The hash window only bounds the search heuristically,
// as tile hashes are computed from stored blocks. It returns the number of
// remaps recorded; zero maxError disables the pass.
func (s *Store) FindMatches(maxError int) int {
	return refstore.FindMatches[Tile](s.tiles, s.buckets, refstore.Matcher{
		Variants: s.mode.Variants(),
		MaxError: maxError,
		MaxHash:  maxHash,
		Probe: func(index uint32, o format.Orientation) refstore.Probe {
			c := s.tiles.Get(index).Cells
			probe := s.resolveCells(c.Transform(o))

			return refstore.Probe{
				Hash: s.hash(c),
				Distance: func(cand uint32) int {
					other := s.resolveCells(s.tiles.Get(cand).Cells)
					d := 0
					for i := range probe {
						d += probe[i].Distance(other[i])
					}

					return d
				},
			}
		},
	})
}

func (s *Store) resolveCells(c Cells) [format.TileCells]block.Bitmap {
	var out [format.TileCells]block.Bitmap
	for i, r := range c {
		if !r.IsNone() {
			out[i] = s.blocks.Resolve(r)
		}
	}

	return out
}

// Reduce collapses tile remap chains; see refstore.Reduce.
func (s *Store) Reduce() int {
	return refstore.Reduce[Tile](s.tiles)
}

// Rebuild drops every tile with a zero count, seeded tiles included, and
// returns the remap table from old offsets to new references.
func (s *Store) Rebuild() []format.Ref {
	fresh, table := refstore.Compact[Tile](s.tiles, s.buckets, s.tileHash)
	s.tiles = fresh

	return table
}

// RemapBlocks rewrites every cell through a block remap table returned by
// block.Store.Rebuild and relinks the hash chains.
//
// A live tile whose cell maps to format.NoRef fails with errs.ErrDanglingRef.
// A dead tile in that situation is detached: its cells are cleared and it
// is left out of the hash chains until the next Rebuild drops it.
func (s *Store) RemapBlocks(table []format.Ref) error {
	for i := range s.tiles.Len() {
		t := s.tiles.Get(uint32(i)) //nolint:gosec

		var next Cells
		dangling := false
		for c, ref := range t.Cells {
			if ref.IsNone() {
				next[c] = format.NoRef
				dangling = true

				continue
			}
			if int(ref.Index()) >= len(table) {
				return fmt.Errorf("%w: tile %d cell %d points at block %d of %d",
					errs.ErrInvalidRef, i, c, ref.Index(), len(table))
			}

			mapped := table[ref.Index()]
			if mapped.IsNone() {
				next[c] = format.NoRef
				dangling = true

				continue
			}
			next[c] = mapped.Transform(ref.Orientation())
		}

		if dangling {
			if t.Count > 0 {
				return fmt.Errorf("%w: live tile %d references a removed block", errs.ErrDanglingRef, i)
			}
			next = Cells{format.NoRef, format.NoRef, format.NoRef, format.NoRef}
		}
		t.Cells = next
	}

	s.buckets.Reset()
	for i := range s.tiles.Len() {
		off := uint32(i) //nolint:gosec
		t := s.tiles.Get(off)
		if t.Cells[0].IsNone() {
			continue
		}
		s.buckets.Push(&t.Meta, off, s.hash(t.Cells))
	}

	return nil
}

// SweepBlocks recounts block references from the live tiles, drops the
// blocks no live tile uses any more and rewrites the cells accordingly.
// Run it after Rebuild so that dead tiles do not keep their blocks alive.
func (s *Store) SweepBlocks() error {
	for i := range s.blocks.Len() {
		s.blocks.Get(uint32(i)).Count = 0 //nolint:gosec
	}
	for i := range s.tiles.Len() {
		t := s.tiles.Get(uint32(i)) //nolint:gosec
		if t.Count == 0 {
			continue
		}
		for _, ref := range t.Cells {
			if !ref.IsNone() {
				s.blocks.Get(ref.Index()).Count += t.Count
			}
		}
	}

	return s.RemapBlocks(s.blocks.Rebuild())
}

// Save appends every tile as four blockBits-wide packed references,
// bit-packed across tiles and padded to a whole byte at the end.
func (s *Store) Save(buf *pool.ByteBuffer, blockBits int) error {
	w := bitstream.NewWriter(buf)
	defer w.Release()

	for i := range s.tiles.Len() {
		t := s.tiles.Get(uint32(i)) //nolint:gosec
		for c, ref := range t.Cells {
			if !s.blocks.Valid(ref) {
				return fmt.Errorf("%w: tile %d cell %d", errs.ErrInvalidRef, i, c)
			}
			w.Write(ref.Pack(blockBits), blockBits)
		}
	}
	w.Flush()

	return nil
}

// Load replaces the tiles with count tiles read from data at offset and
// returns the offset just past the section. Every cell must address a
// block already loaded into Blocks(). Loaded tiles have a zero count.
func (s *Store) Load(data []byte, offset, count, blockBits int) (int, error) {
	if offset < 0 || offset > len(data) || count < 0 {
		return offset, fmt.Errorf("%w: tile section at offset %d", errs.ErrTruncated, offset)
	}
	if avail := (len(data) - offset) * 8; count > 0 && (blockBits <= 0 || count > avail/(format.TileCells*blockBits)) {
		return offset, fmt.Errorf("%w: %d tiles of %d-bit cells need more than %d bytes",
			errs.ErrTruncated, count, blockBits, len(data)-offset)
	}

	s.tiles.Reset()
	s.buckets.Reset()

	r := bitstream.NewReader(data[offset:])
	_, recs := s.tiles.Allocate(count)
	for i := range recs {
		t := &recs[i]
		for c := range t.Cells {
			v, ok := r.Read(blockBits)
			if !ok {
				return offset, fmt.Errorf("%w: tile %d of %d", errs.ErrTruncated, i, count)
			}
			ref := format.Unpack(v, blockBits)
			if !s.blocks.Valid(ref) {
				return offset, fmt.Errorf("%w: tile %d cell %d points at block %d of %d",
					errs.ErrInvalidRef, i, c, ref.Index(), s.blocks.Len())
			}
			t.Cells[c] = ref
		}
		t.Reset(0)
		s.buckets.Push(&t.Meta, uint32(i), s.hash(t.Cells)) //nolint:gosec
	}

	return offset + r.Offset(), nil
}
