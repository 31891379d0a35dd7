package codec

import "encoding/binary"

// WriteU16LE appends a little-endian 16-bit value to buf.
func WriteU16LE(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

// WriteU32LE appends a little-endian 32-bit value to buf.
func WriteU32LE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// WriteU48LE appends the low 48 bits of v as 6 little-endian bytes.
func WriteU48LE(buf []byte, v uint64) []byte {
	var tmp [6]byte
	tmp[0] = byte(v)
	tmp[1] = byte(v >> 8)
	tmp[2] = byte(v >> 16)
	tmp[3] = byte(v >> 24)
	tmp[4] = byte(v >> 32)
	tmp[5] = byte(v >> 40)
	return append(buf, tmp[:]...)
}

// WriteU64LE appends a little-endian 64-bit value to buf.
func WriteU64LE(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// ReadU16LE reads a little-endian 16-bit value.
func ReadU16LE(buf []byte) uint16 { return binary.LittleEndian.Uint16(buf) }

// ReadU32LE reads a little-endian 32-bit value.
func ReadU32LE(buf []byte) uint32 { return binary.LittleEndian.Uint32(buf) }

// ReadU48LE reads the low 48 bits of a little-endian 6-byte field.
func ReadU48LE(buf []byte) uint64 {
	return uint64(buf[0]) | uint64(buf[1])<<8 | uint64(buf[2])<<16 |
		uint64(buf[3])<<24 | uint64(buf[4])<<32 | uint64(buf[5])<<40
}

// ReadU64LE reads a little-endian 64-bit value.
func ReadU64LE(buf []byte) uint64 { return binary.LittleEndian.Uint64(buf) }
