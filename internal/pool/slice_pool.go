package pool

import (
	"sync"

	"github.com/arloliu/mosaic/format"
)

// Slice pools for the per-frame scratch buffers of the encoder and the
// container loader.
var (
	pixelSlicePool = sync.Pool{
		New: func() any { return &[]byte{} },
	}
	refSlicePool = sync.Pool{
		New: func() any { return &[]format.Ref{} },
	}
)

// GetPixelSlice returns a zeroed byte slice of length size, typically one
// 8-bit grayscale frame. The caller must call the returned cleanup function
// when done with the slice.
//
// Example:
//
//	pixels, cleanup := pool.GetPixelSlice(width * height)
//	defer cleanup()
func GetPixelSlice(size int) ([]byte, func()) {
	ptr, _ := pixelSlicePool.Get().(*[]byte)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]byte, size)
	} else {
		slice = slice[:size]
		clear(slice)
	}
	*ptr = slice

	return slice, func() { pixelSlicePool.Put(ptr) }
}

// GetRefSlice returns a ref slice of length size filled with format.NoRef.
// The caller must call the returned cleanup function when done with the slice.
func GetRefSlice(size int) ([]format.Ref, func()) {
	ptr, _ := refSlicePool.Get().(*[]format.Ref)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]format.Ref, size)
	} else {
		slice = slice[:size]
	}
	for i := range slice {
		slice[i] = format.NoRef
	}
	*ptr = slice

	return slice, func() { refSlicePool.Put(ptr) }
}
