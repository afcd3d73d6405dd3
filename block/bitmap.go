package block

import (
	"math/bits"

	"github.com/arloliu/mosaic/format"
)

// Bitmap is an 8×8 one-bit image, one byte per row from the top. Bit i of
// a row (LSB first) is the pixel at x=i; a set bit is white.
type Bitmap [format.BlockHeight]byte

// FromPixels thresholds an 8×8 window of 8-bit pixels whose top-left pixel
// is pixels[0]. A pixel is set when it is strictly greater than threshold.
func FromPixels(pixels []byte, pitch int, threshold byte) Bitmap {
	var bm Bitmap
	for y := range format.BlockHeight {
		row := pixels[y*pitch : y*pitch+format.BlockWidth]
		var b byte
		for x, p := range row {
			if p > threshold {
				b |= 1 << x
			}
		}
		bm[y] = b
	}

	return bm
}

// Pixel reports whether the pixel at (x, y) is set.
func (b Bitmap) Pixel(x, y int) bool {
	return b[y]>>x&1 == 1
}

// Hash returns the number of set pixels. Flips preserve it and invert maps
// h to 64-h, so nearby bitmaps land in nearby buckets.
func (b Bitmap) Hash() int {
	h := 0
	for _, row := range b {
		h += bits.OnesCount8(row)
	}

	return h
}

// Distance returns the Hamming distance between two bitmaps.
func (b Bitmap) Distance(o Bitmap) int {
	d := 0
	for i := range b {
		d += bits.OnesCount8(b[i] ^ o[i])
	}

	return d
}

// FlipX mirrors the bitmap left to right.
func (b Bitmap) FlipX() Bitmap {
	var out Bitmap
	for i, row := range b {
		out[i] = bits.Reverse8(row)
	}

	return out
}

// FlipY mirrors the bitmap top to bottom.
func (b Bitmap) FlipY() Bitmap {
	var out Bitmap
	for i, row := range b {
		out[len(b)-1-i] = row
	}

	return out
}

// Invert complements every pixel.
func (b Bitmap) Invert() Bitmap {
	var out Bitmap
	for i, row := range b {
		out[i] = ^row
	}

	return out
}

// Transform applies o: flip-x, then flip-y, then invert.
func (b Bitmap) Transform(o format.Orientation) Bitmap {
	if o.Has(format.FlipX) {
		b = b.FlipX()
	}
	if o.Has(format.FlipY) {
		b = b.FlipY()
	}
	if o.Has(format.Invert) {
		b = b.Invert()
	}

	return b
}
