// Package endian provides the byte-order engine used by mosaic's binary sections.
//
// The stream format is big-endian throughout (the playback target is a
// big-endian machine). EndianEngine combines encoding/binary's ByteOrder
// and AppendByteOrder so section writers can append fields without a
// scratch buffer:
//
//	engine := endian.GetBigEndianEngine()
//	buf = engine.AppendUint32(buf, header.BlockCount)
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeBigEndian reports whether the host stores integers big-endian,
// i.e. whether stream sections can be read without byte swapping.
func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// GetBigEndianEngine returns the engine used for every on-disk integer.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
