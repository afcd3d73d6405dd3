package bitstream

import "encoding/binary"

// Reader extracts MSB-first fields from a byte slice.
//
// Every read reports exhaustion with false instead of panicking, so
// callers can turn a short payload into a truncation error.
type Reader struct {
	data     []byte
	bytePos  int    // next byte to load into bitBuf
	bitBuf   uint64 // loaded bits, left-aligned
	bitCount int    // number of valid bits in bitBuf
}

// NewReader creates a reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Read returns the next n bits right-aligned. n must be in [0, 64].
func (r *Reader) Read(n int) (uint64, bool) {
	if n == 0 {
		return 0, true
	}

	if n <= r.bitCount {
		v := r.bitBuf >> (64 - n)
		r.shift(n)

		return v, true
	}

	if r.Remaining() < n {
		return 0, false
	}

	var v uint64
	for n > 0 {
		if r.bitCount == 0 && !r.fill() {
			return 0, false
		}

		take := min(n, r.bitCount)
		v = (v << take) | (r.bitBuf >> (64 - take))
		r.shift(take)
		n -= take
	}

	return v, true
}

// Offset returns the number of bytes consumed, counting a partially read
// byte as consumed.
func (r *Reader) Offset() int {
	consumed := r.bytePos*8 - r.bitCount
	return (consumed + 7) / 8
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return (len(r.data)-r.bytePos)*8 + r.bitCount
}

func (r *Reader) shift(n int) {
	if n == 64 {
		r.bitBuf = 0
	} else {
		r.bitBuf <<= n
	}
	r.bitCount -= n
}

// fill loads up to 8 bytes into an empty register.
func (r *Reader) fill() bool {
	avail := len(r.data) - r.bytePos
	if avail <= 0 {
		return false
	}

	if avail >= 8 {
		r.bitBuf = binary.BigEndian.Uint64(r.data[r.bytePos:])
		r.bitCount = 64
		r.bytePos += 8

		return true
	}

	r.bitBuf = 0
	for i := range avail {
		r.bitBuf |= uint64(r.data[r.bytePos+i]) << (56 - i*8)
	}
	r.bitCount = avail * 8
	r.bytePos += avail

	return true
}
