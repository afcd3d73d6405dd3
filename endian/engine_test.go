package endian

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestCheckEndianness(t *testing.T) {
	var testValue uint16 = 0x0102
	testBytes := (*[2]byte)(unsafe.Pointer(&testValue))

	switch testBytes[0] {
	case 0x01:
		require.Equal(t, binary.BigEndian, CheckEndianness())
		require.True(t, IsNativeBigEndian())
	case 0x02:
		require.Equal(t, binary.LittleEndian, CheckEndianness())
		require.False(t, IsNativeBigEndian())
	default:
		require.Failf(t, "unexpected byte value", "got: %v", testBytes[0])
	}
}

func TestBigEndianEngine(t *testing.T) {
	engine := GetBigEndianEngine()

	buf := engine.AppendUint32(nil, 0x01020304)
	buf = engine.AppendUint16(buf, 0x0506)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, buf)

	require.Equal(t, uint32(0x01020304), engine.Uint32(buf[0:4]))
	require.Equal(t, uint16(0x0506), engine.Uint16(buf[4:6]))
}
