// Package arena provides offset-addressed, append-only storage of fixed-size records.
//
// Records are addressed by their uint32 offset, never by pointer: growth
// relocates the backing slice, so a *T returned by Get is only valid until
// the next Allocate.
package arena

// initialCapacity is the capacity of the first allocation.
const initialCapacity = 64

// Arena is an append-only sequence of T records.
//
// Note: Arena is NOT thread-safe.
type Arena[T any] struct {
	items []T
}

// New creates an empty arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Allocate appends n zero-valued records and returns the offset of the
// first one together with a view of the new records.
//
// Capacity doubles, or grows to exactly fit a request larger than double.
// Existing records keep their offsets.
func (a *Arena[T]) Allocate(n int) (uint32, []T) {
	base := len(a.items)
	if n <= 0 {
		return uint32(base), nil //nolint:gosec
	}

	need := base + n
	if need > cap(a.items) {
		newCap := cap(a.items) * 2
		if newCap == 0 {
			newCap = initialCapacity
		}
		if newCap < need {
			newCap = need
		}

		grown := make([]T, base, newCap)
		copy(grown, a.items)
		a.items = grown
	}

	a.items = a.items[:need]
	records := a.items[base:need]
	clear(records)

	return uint32(base), records //nolint:gosec
}

// Get returns a view of the record at offset. It panics if offset is out of range.
func (a *Arena[T]) Get(offset uint32) *T {
	return &a.items[offset]
}

// Len returns the number of allocated records.
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// Cap returns the number of records the arena can hold before it grows.
func (a *Arena[T]) Cap() int {
	return cap(a.items)
}

// Reset drops every record while keeping the allocated capacity.
func (a *Arena[T]) Reset() {
	a.items = a.items[:0]
}
