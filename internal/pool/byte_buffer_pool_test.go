package pool

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, bb.Cap())
}

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(SectionBufferDefaultSize)

	n, err := bb.Write([]byte("tile"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	bb.MustWrite([]byte("s"))
	require.NoError(t, bb.WriteByte('!'))
	assert.Equal(t, []byte("tiles!"), bb.Bytes())

	capBefore := bb.Cap()
	bb.Reset()
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, capBefore, bb.Cap(), "Reset should keep capacity")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.MustWrite([]byte{1, 2, 3})

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []byte{1, 2, 3}, out.Bytes())

	_, err = bb.WriteTo(failingWriter{})
	require.Error(t, err)
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("no-op with spare capacity", func(t *testing.T) {
		bb := NewByteBuffer(SectionBufferDefaultSize)
		bb.Grow(100)
		assert.Equal(t, SectionBufferDefaultSize, bb.Cap())
	})

	t.Run("small buffer grows by default size", func(t *testing.T) {
		bb := NewByteBuffer(SectionBufferDefaultSize)
		bb.MustWrite(make([]byte, SectionBufferDefaultSize))
		bb.Grow(1)
		assert.Equal(t, 2*SectionBufferDefaultSize, bb.Cap())
		assert.Equal(t, SectionBufferDefaultSize, bb.Len())
	})

	t.Run("large buffer grows by a quarter", func(t *testing.T) {
		size := 8 * SectionBufferDefaultSize
		bb := NewByteBuffer(size)
		bb.MustWrite(make([]byte, size))
		bb.Grow(1)
		assert.Equal(t, size+size/4, bb.Cap())
	})

	t.Run("honours large requests", func(t *testing.T) {
		bb := NewByteBuffer(16)
		bb.Grow(10 * SectionBufferDefaultSize)
		assert.GreaterOrEqual(t, bb.Cap(), 10*SectionBufferDefaultSize)
	})

	t.Run("preserves data", func(t *testing.T) {
		bb := NewByteBuffer(4)
		bb.MustWrite([]byte("abcd"))
		bb.Grow(SectionBufferDefaultSize * 2)
		assert.Equal(t, []byte("abcd"), bb.Bytes())
	})
}

func TestByteBuffer_ExtendOrGrow(t *testing.T) {
	bb := NewByteBuffer(4)
	require.True(t, bb.Extend(4))
	require.False(t, bb.Extend(1))

	bb.ExtendOrGrow(8)
	assert.Equal(t, 12, bb.Len())

	s := bb.Slice(4, 12)
	assert.Len(t, s, 8)

	bb.SetLength(2)
	assert.Equal(t, 2, bb.Len())

	assert.Panics(t, func() { bb.SetLength(bb.Cap() + 1) })
	assert.Panics(t, func() { bb.Slice(3, 2) })
}

func TestByteBufferPool_MaxThreshold(t *testing.T) {
	p := NewByteBufferPool(64, 128)

	bb := p.Get()
	require.NotNil(t, bb)
	bb.MustWrite([]byte("data"))
	p.Put(bb)
	assert.Equal(t, 0, bb.Len(), "Put should reset the buffer")

	big := NewByteBuffer(1024)
	p.Put(big)
	got := p.Get()
	assert.NotSame(t, big, got, "buffers over the threshold are not retained")

	assert.NotPanics(t, func() { p.Put(nil) })
}

func TestDefaultPools(t *testing.T) {
	sec := GetSectionBuffer()
	require.GreaterOrEqual(t, sec.Cap(), SectionBufferDefaultSize)
	PutSectionBuffer(sec)

	st := GetStreamBuffer()
	require.GreaterOrEqual(t, st.Cap(), StreamBufferDefaultSize)
	PutStreamBuffer(st)
}

func TestDefaultPools_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for range 100 {
				bb := GetSectionBuffer()
				bb.MustWrite([]byte{byte(id)})
				assert.Equal(t, 1, bb.Len())
				PutSectionBuffer(bb)
			}
		}(i)
	}
	wg.Wait()
}
