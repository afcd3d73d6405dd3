// Package refstore holds the bookkeeping shared by the block and tile stores:
// reference counts, hash-chain links, remap targets and the passes that
// operate on them (approximate matching, remap-chain reduction and
// compaction).
//
// Both stores keep their entries in an arena.Arena and embed Meta in the
// entry type; the generic functions here reach Meta through the Entry
// constraint.
package refstore

import (
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/internal/arena"
)

// NoIndex terminates a hash chain.
const NoIndex = uint32(format.NoRef)

// Meta is the per-entry bookkeeping of a content-addressed store.
type Meta struct {
	Count uint32     // live references to this entry; 0 means logically removed
	Next  uint32     // next entry in the same hash bucket, or NoIndex
	Remap format.Ref // replacement once superseded, or format.NoRef
}

// Reset initialises m for a freshly stored entry with the given count.
func (m *Meta) Reset(count uint32) {
	m.Count = count
	m.Next = NoIndex
	m.Remap = format.NoRef
}

// Entry is satisfied by a pointer to a store entry that embeds Meta.
type Entry[T any] interface {
	*T
	RefMeta() *Meta
}

// Buckets maps a hash bucket to the offset of the first entry in its chain.
type Buckets [format.HashBuckets]uint32

// NewBuckets returns an empty bucket table.
func NewBuckets() *Buckets {
	b := &Buckets{}
	b.Reset()

	return b
}

// Reset empties every bucket.
func (b *Buckets) Reset() {
	for i := range b {
		b[i] = NoIndex
	}
}

// Key folds a hash into a bucket index.
func Key(hash int) int {
	return hash & (format.HashBuckets - 1)
}

// Push links offset at the head of the chain for hash.
func (b *Buckets) Push(m *Meta, offset uint32, hash int) {
	k := Key(hash)
	m.Next = b[k]
	b[k] = offset
}

// Head returns the first offset in the chain for hash.
func (b *Buckets) Head(hash int) uint32 {
	return b[Key(hash)]
}

// Relink rebuilds every chain from scratch in offset order, so later
// entries sit closer to the head, exactly as if they had been inserted
// one by one.
func Relink[T any, P Entry[T]](a *arena.Arena[T], b *Buckets, hash func(*T) int) {
	b.Reset()
	for i := range a.Len() {
		off := uint32(i) //nolint:gosec
		e := a.Get(off)
		b.Push(P(e).RefMeta(), off, hash(e))
	}
}

// LiveCount returns the number of entries with a non-zero count and the
// sum of their counts.
func LiveCount[T any, P Entry[T]](a *arena.Arena[T]) (live int, refs uint64) {
	for i := range a.Len() {
		m := P(a.Get(uint32(i))).RefMeta() //nolint:gosec
		if m.Count > 0 {
			live++
			refs += uint64(m.Count)
		}
	}

	return live, refs
}
