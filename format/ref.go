package format

import "math/bits"

// Orientation is the 3-bit transform carried in the top bits of a Ref.
//
// Flip-x, flip-y and invert are involutions that commute with each other,
// so two orientations compose with a plain XOR.
type Orientation uint32

const (
	FlipX  Orientation = 0x80000000 // mirror left-right
	FlipY  Orientation = 0x40000000 // mirror top-bottom
	Invert Orientation = 0x20000000 // complement every pixel

	// OrientationMask selects the orientation bits of a Ref.
	OrientationMask = FlipX | FlipY | Invert
)

// OrientationBits is the number of bits an Orientation occupies in a packed field.
const OrientationBits = 3

// Variants lists the eight orientations in match priority order.
// The first four can be produced by a blitter; the rest need the CPU
// to mirror bits horizontally.
var Variants = [8]Orientation{
	0,
	FlipY,
	Invert,
	Invert | FlipY,
	FlipX,
	FlipX | FlipY,
	Invert | FlipX,
	Invert | FlipX | FlipY,
}

// Has reports whether all bits of flag are set.
func (o Orientation) Has(flag Orientation) bool {
	return o&flag == flag
}

// Packed returns the orientation as a 3-bit value: flip-x is the MSB.
func (o Orientation) Packed() uint32 {
	return uint32(o) >> 29
}

// UnpackOrientation is the inverse of Orientation.Packed.
func UnpackOrientation(v uint32) Orientation {
	return Orientation((v & 0x7) << 29)
}

// Ref addresses an entry in a store: an arena offset in the low 29 bits
// and an Orientation in the top three.
type Ref uint32

const (
	// NoRef marks an absent reference.
	NoRef Ref = 0xFFFFFFFF

	// IndexMask selects the offset bits of a Ref.
	IndexMask = ^uint32(OrientationMask)

	// MaxIndex is the largest offset a Ref can carry without colliding with NoRef.
	MaxIndex = IndexMask - 1
)

// NewRef builds a Ref from an offset and an orientation.
func NewRef(index uint32, o Orientation) Ref {
	return Ref(index&IndexMask | uint32(o&OrientationMask))
}

// Index returns the arena offset.
func (r Ref) Index() uint32 {
	return uint32(r) & IndexMask
}

// Orientation returns the orientation bits.
func (r Ref) Orientation() Orientation {
	return Orientation(r) & OrientationMask
}

// IsNone reports whether r is NoRef.
func (r Ref) IsNone() bool {
	return r == NoRef
}

// Transform composes o onto the reference's orientation.
func (r Ref) Transform(o Orientation) Ref {
	return r ^ Ref(o&OrientationMask)
}

// Pack encodes r into a width-bit field: the orientation takes the top
// three bits and the offset the rest.
func (r Ref) Pack(width int) uint64 {
	indexBits := width - OrientationBits

	return uint64(r.Orientation().Packed())<<indexBits | uint64(r.Index())
}

// Unpack decodes a field written by Ref.Pack.
func Unpack(v uint64, width int) Ref {
	indexBits := width - OrientationBits
	index := uint32(v & (1<<indexBits - 1)) //nolint:gosec
	o := UnpackOrientation(uint32(v >> indexBits)) //nolint:gosec

	return NewRef(index, o)
}

// IndexBits returns the packed field width for a store holding count
// entries: ceil(log2(count)) + 3. It fails when count does not fit the
// addressable index space.
func IndexBits(count int) (int, bool) {
	if count < 0 || uint64(count) > uint64(MaxIndex)+1 {
		return 0, false
	}
	if count <= 1 {
		return OrientationBits, true
	}

	return bits.Len32(uint32(count-1)) + OrientationBits, true //nolint:gosec
}
