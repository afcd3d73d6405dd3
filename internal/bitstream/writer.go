// Package bitstream implements the MSB-first bit writer and reader used by
// the frame, tile and block sections.
//
// Bits are accumulated in a 64-bit register and spilled to a
// pool.ByteBuffer in big-endian byte order, so the first bit written is
// the most significant bit of the first byte.
package bitstream

import (
	"encoding/binary"

	"github.com/arloliu/mosaic/internal/pool"
)

// Writer packs variable-width fields into bytes, most significant bit first.
//
// Note: Writer is NOT thread-safe.
type Writer struct {
	bitBuf   uint64 // pending bits, right-aligned
	bitCount int    // number of valid bits in bitBuf
	buf      *pool.ByteBuffer
	pooled   bool
}

// NewWriter creates a writer that appends to buf. When buf is nil the
// writer takes a section buffer from the pool and hands it back on Release.
func NewWriter(buf *pool.ByteBuffer) *Writer {
	if buf == nil {
		return &Writer{buf: pool.GetSectionBuffer(), pooled: true}
	}

	return &Writer{buf: buf}
}

// Write appends the low n bits of value. n must be in [0, 64].
func (w *Writer) Write(value uint64, n int) {
	if n == 0 {
		return
	}

	if n < 64 {
		value &= (1 << n) - 1
	}

	available := 64 - w.bitCount
	if n <= available {
		if n == 64 {
			w.bitBuf = value
		} else {
			w.bitBuf = (w.bitBuf << n) | value
		}
		w.bitCount += n

		if w.bitCount == 64 {
			w.spill()
		}

		return
	}

	// split across the register boundary
	rest := n - available
	w.bitBuf = (w.bitBuf << available) | (value >> rest)
	w.bitCount = 64
	w.spill()

	w.bitBuf = value & ((1 << rest) - 1)
	w.bitCount = rest
}

// Flush pads the pending bits with zeros up to the next byte boundary and
// moves them to the buffer. Writing after Flush starts on a fresh byte.
func (w *Writer) Flush() {
	w.spill()
}

// Bytes flushes and returns the written bytes. The slice aliases the
// underlying buffer and is valid until the next Write or Release.
func (w *Writer) Bytes() []byte {
	w.spill()

	return w.buf.Bytes()
}

// Len returns the number of bytes written so far, counting pending bits as
// a whole byte.
func (w *Writer) Len() int {
	return w.buf.Len() + (w.bitCount+7)/8
}

// Reset discards everything written, keeping the buffer.
func (w *Writer) Reset() {
	w.bitBuf = 0
	w.bitCount = 0
	w.buf.Reset()
}

// Release returns a pooled buffer to the pool. The writer is unusable
// afterwards.
func (w *Writer) Release() {
	if w.buf == nil {
		return
	}

	if w.pooled {
		pool.PutSectionBuffer(w.buf)
	}
	w.buf = nil
	w.bitBuf = 0
	w.bitCount = 0
}

func (w *Writer) spill() {
	if w.bitCount == 0 {
		return
	}

	numBytes := (w.bitCount + 7) / 8
	aligned := w.bitBuf << (64 - w.bitCount)

	start := w.buf.Len()
	w.buf.ExtendOrGrow(numBytes)
	bs := w.buf.Slice(start, start+numBytes)

	if numBytes == 8 {
		binary.BigEndian.PutUint64(bs, aligned)
	} else {
		for i := range numBytes {
			bs[i] = byte(aligned >> (56 - i*8))
		}
	}

	w.bitBuf = 0
	w.bitCount = 0
}
