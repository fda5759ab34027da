// Package endian provides byte order utilities for the snapshot codec.
//
// It combines the ByteOrder and AppendByteOrder interfaces of
// encoding/binary into a single EndianEngine so encode paths can use the
// allocation-free append forms and decode paths the indexed forms through
// one value. binary.LittleEndian and binary.BigEndian both satisfy the
// interface; little-endian is the ndbin default.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine is the combined read/write/append byte-order interface.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// CheckEndianness determines the host's native byte order.
func CheckEndianness() binary.ByteOrder {
	// For 0x0100, a little-endian host stores the 0x00 byte first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}
