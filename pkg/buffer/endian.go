package buffer

import "encoding/binary"

// Endian selects the byte order of multi-byte values on the wire.
type Endian int

const (
	// BigEndian puts the most significant byte first. It's the default.
	BigEndian Endian = iota
	// LittleEndian puts the least significant byte first.
	LittleEndian
)

// ByteOrder returns the encoding/binary order for the endianness.
func (e Endian) ByteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// String implements fmt.Stringer.
func (e Endian) String() string {
	if e == LittleEndian {
		return "little"
	}
	return "big"
}
