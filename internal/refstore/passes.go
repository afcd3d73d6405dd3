package refstore

import (
	"github.com/arloliu/mosaic/format"
	"github.com/arloliu/mosaic/internal/arena"
)

// Probe describes one orientation of the entry being matched.
type Probe struct {
	// Hash is the hash of the entry after applying the orientation.
	Hash int
	// Distance returns the error between the oriented entry and the
	// candidate at the given offset.
	Distance func(candidate uint32) int
}

// ProbeFunc prepares a Probe for entry index under orientation o.
type ProbeFunc func(index uint32, o format.Orientation) Probe

// Matcher configures an approximate-match pass.
type Matcher struct {
	// Variants are the orientations tried for every entry, in order.
	Variants []format.Orientation
	// MaxError is the largest accepted distance and the half-width of the
	// searched hash window.
	MaxError int
	// MaxHash is the largest hash value an entry can produce.
	MaxHash int
	// Probe builds the per-orientation hash and distance function.
	Probe ProbeFunc
	// OnMatch, when set, is called with the offset chosen for each matched entry.
	OnMatch func(target uint32)
}

// FindMatches records, for every live entry, the closest entry within
// MaxError that has a strictly greater count, as Remap = candidate|orientation.
//
// Candidates are found by scanning the hash buckets in [h-MaxError, h+MaxError]
// around the oriented entry's hash: the hash is a population count, so the
// Hamming distance between two entries bounds the difference of their
// hashes. Requiring a larger count makes every remap point towards a
// more-referenced entry, so remaps can never form a cycle.
//
// It returns the number of entries that received a remap.
func FindMatches[T any, P Entry[T]](a *arena.Arena[T], b *Buckets, m Matcher) int {
	if m.MaxError <= 0 || m.Probe == nil {
		return 0
	}

	matches := 0
	n := a.Len()
	for i := range n {
		idx := uint32(i) //nolint:gosec
		cur := P(a.Get(idx)).RefMeta()
		if cur.Count == 0 {
			continue
		}

		bestErr := m.MaxError
		best := format.NoRef

		for _, v := range m.Variants {
			probe := m.Probe(idx, v)
			lo, hi := window(probe.Hash, m.MaxError, m.MaxHash)

			for key := lo; key <= hi; key++ {
				for cand := b[key]; cand != NoIndex; {
					cm := P(a.Get(cand)).RefMeta()
					next := cm.Next

					if cand != idx && cm.Count > cur.Count {
						if d := probe.Distance(cand); d <= bestErr {
							bestErr = d
							best = format.NewRef(cand, v)
						}
					}

					cand = next
				}
			}
		}

		if !best.IsNone() {
			cur.Remap = best
			matches++
			if m.OnMatch != nil {
				m.OnMatch(best.Index())
			}
		}
	}

	return matches
}

// window returns the inclusive range of bucket keys to scan, visiting
// each bucket at most once.
func window(hash, maxError, maxHash int) (int, int) {
	lo := hash - maxError
	if lo < 0 {
		lo = 0
	}
	hi := hash + maxError
	if hi > maxHash {
		hi = maxHash
	}

	if hi-lo+1 >= format.HashBuckets {
		return 0, format.HashBuckets - 1
	}

	// keys are folded by the bucket mask; a range that wraps is scanned
	// from 0 so no bucket is visited twice.
	if Key(lo) > Key(hi) {
		return 0, format.HashBuckets - 1
	}

	return Key(lo), Key(hi)
}

// Reduce collapses remap chains so that every remapped entry points
// directly at a surviving entry.
//
// For each live entry with a remap the chain is walked while summing the
// counts of the walked entries. When the next hop's count is smaller than
// the running sum the chain is cut: the current entry takes the sum,
// drops its remap and becomes the survivor. Otherwise the walk ends at an
// entry without a remap, which absorbs the sum. Entries collapsed earlier
// in the same pass carry no count and are stepped over.
//
// Walked entries get count 0 and a remap to the survivor whose orientation
// is the XOR of the hop orientations from that entry to the end of the chain.
//
// It returns the number of entries collapsed.
func Reduce[T any, P Entry[T]](a *arena.Arena[T]) int {
	var (
		path []uint32
		hops []format.Orientation
	)

	reductions := 0
	n := a.Len()
	for i := range n {
		root := uint32(i) //nolint:gosec
		rm := P(a.Get(root)).RefMeta()
		if rm.Count == 0 || rm.Remap.IsNone() {
			continue
		}

		path, hops = path[:0], hops[:0]
		cur := root
		var count uint32

		for steps := 0; steps <= n; steps++ {
			cm := P(a.Get(cur)).RefMeta()
			if cm.Remap.IsNone() {
				cm.Count += count
				break
			}

			count += cm.Count

			next := cm.Remap.Index()
			hop := cm.Remap.Orientation()
			nm := P(a.Get(next)).RefMeta()
			for nm.Count == 0 && !nm.Remap.IsNone() {
				hop ^= nm.Remap.Orientation()
				next = nm.Remap.Index()
				nm = P(a.Get(next)).RefMeta()
			}

			if nm.Count < count {
				cm.Count = count
				cm.Remap = format.NoRef

				break
			}

			path = append(path, cur)
			hops = append(hops, hop)
			cur = next
		}

		var acc format.Orientation
		for k := len(path) - 1; k >= 0; k-- {
			acc ^= hops[k]
			pm := P(a.Get(path[k])).RefMeta()
			pm.Remap = format.NewRef(cur, acc)
			pm.Count = 0
		}
		reductions += len(path)
	}

	return reductions
}

// Compact copies every live entry of old into a fresh arena, relinking the
// hash chains, and returns it with a remap table indexed by old offset.
//
// Live entries map to their new offset; dead entries map to the new
// offset of their remap target with the remap orientation applied, or to
// format.NoRef when they have no remap.
func Compact[T any, P Entry[T]](old *arena.Arena[T], b *Buckets, hash func(*T) int) (*arena.Arena[T], []format.Ref) {
	fresh := arena.New[T]()
	table := make([]format.Ref, old.Len())
	b.Reset()

	for i := range old.Len() {
		src := old.Get(uint32(i)) //nolint:gosec
		if P(src).RefMeta().Count == 0 {
			table[i] = format.NoRef
			continue
		}

		off, recs := fresh.Allocate(1)
		recs[0] = *src
		dm := P(&recs[0]).RefMeta()
		dm.Remap = format.NoRef
		b.Push(dm, off, hash(&recs[0]))

		table[i] = format.NewRef(off, 0)
	}

	for i := range old.Len() {
		sm := P(old.Get(uint32(i))).RefMeta() //nolint:gosec
		if sm.Count > 0 || sm.Remap.IsNone() {
			continue
		}

		target := table[sm.Remap.Index()]
		if target.IsNone() {
			continue
		}
		table[i] = target.Transform(sm.Remap.Orientation())
	}

	return fresh, table
}
