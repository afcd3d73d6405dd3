package tile

import (
	"github.com/arloliu/mosaic/block"
	"github.com/arloliu/mosaic/format"
)

// Bitmap is a rendered 16×16 one-bit tile, one uint16 per row; bit i of a
// row is the pixel at x=i.
type Bitmap [format.TileHeight]uint16

// Pixel reports whether the pixel at (x, y) is set.
func (b Bitmap) Pixel(x, y int) bool {
	return b[y]>>x&1 == 1
}

// compose assembles a tile from its four resolved cells.
func compose(cells [format.TileCells]block.Bitmap) Bitmap {
	var out Bitmap
	for c, bm := range cells {
		cx, cy := c%format.TileCols, c/format.TileCols
		for r, row := range bm {
			out[cy*format.BlockHeight+r] |= uint16(row) << (cx * format.BlockWidth)
		}
	}

	return out
}

// Render writes the tile as 8-bit pixels (0 or 255) into dst, whose
// top-left pixel is dst[0].
func (b Bitmap) Render(dst []byte, pitch int) {
	for y, row := range b {
		line := dst[y*pitch : y*pitch+format.TileWidth]
		for x := range line {
			if row>>x&1 == 1 {
				line[x] = 0xFF
			} else {
				line[x] = 0
			}
		}
	}
}

// Cells is the four block references of a tile, row-major.
type Cells [format.TileCells]format.Ref

// Transform returns the cell layout of the tile under orientation o:
// flips mirror the cell grid and fold the flip into each child, invert
// folds into each child only.
func (c Cells) Transform(o format.Orientation) Cells {
	out := c
	if o.Has(format.FlipX) {
		out = Cells{out[1], out[0], out[3], out[2]}
	}
	if o.Has(format.FlipY) {
		out = Cells{out[2], out[3], out[0], out[1]}
	}
	for i := range out {
		out[i] = out[i].Transform(o)
	}

	return out
}
