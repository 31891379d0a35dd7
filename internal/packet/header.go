// Package packet assembles IRIG-106 Chapter 10 packets: the common
// 24-byte header, and the TMATS, Time-F1, and MS1553-F1 payload
// encodings. Every multi-byte integer is little-endian.
package packet

import (
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
)

const (
	Sync uint16 = 0xEB25

	DataTypeTMATS    uint8 = 0x01
	DataTypeTimeF1   uint8 = 0x11
	DataTypeMS1553F1 uint8 = 0x19

	// Conventional channel IDs, per spec.md §3.
	ChannelTMATS uint16 = 0x000
	ChannelTime  uint16 = 0x001
	ChannelBusA  uint16 = 0x002
	ChannelBusB  uint16 = 0x003

	HeaderSize = 24
)

// Header is the common 24-byte Chapter 10 packet header.
type Header struct {
	ChannelID           uint16
	PacketLength        uint32
	DataLength           uint32
	DataTypeVersion      uint8
	SequenceNumber       uint8
	PacketFlags          uint8
	DataType             uint8
	RelativeTimeCounter  uint64 // low 48 bits significant
}

// Encode serializes the header to its 24-byte wire form, computing
// the checksum over the first 22 bytes.
func (h Header) Encode() []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = codec.WriteU16LE(buf, Sync)
	buf = codec.WriteU16LE(buf, h.ChannelID)
	buf = codec.WriteU32LE(buf, h.PacketLength)
	buf = codec.WriteU32LE(buf, h.DataLength)
	buf = append(buf, h.DataTypeVersion, h.SequenceNumber, h.PacketFlags, h.DataType)
	buf = codec.WriteU48LE(buf, h.RelativeTimeCounter)
	checksum := HeaderChecksum(buf)
	buf = codec.WriteU16LE(buf, checksum)
	return buf
}

// HeaderChecksum sums the header's first 22 bytes as eleven
// little-endian 16-bit words, modulo 2^16.
func HeaderChecksum(first22Bytes []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(first22Bytes); i += 2 {
		sum += uint32(codec.ReadU16LE(first22Bytes[i : i+2]))
	}
	return uint16(sum & 0xFFFF)
}

// DecodeHeader parses a 24-byte header and reports whether its
// checksum is valid.
func DecodeHeader(buf []byte) (Header, bool) {
	h, syncOK, checksumOK := DecodeHeaderLoose(buf)
	return h, syncOK && checksumOK
}

// DecodeHeaderLoose parses a 24-byte header unconditionally, reporting
// sync and checksum validity separately so a caller such as the
// validator can surface each as a distinct finding instead of a single
// pass/fail bit.
func DecodeHeaderLoose(buf []byte) (h Header, syncOK, checksumOK bool) {
	h = Header{
		ChannelID:           codec.ReadU16LE(buf[2:4]),
		PacketLength:        codec.ReadU32LE(buf[4:8]),
		DataLength:           codec.ReadU32LE(buf[8:12]),
		DataTypeVersion:      buf[12],
		SequenceNumber:       buf[13],
		PacketFlags:          buf[14],
		DataType:             buf[15],
		RelativeTimeCounter:  codec.ReadU48LE(buf[16:22]),
	}
	wantChecksum := codec.ReadU16LE(buf[22:24])
	gotChecksum := HeaderChecksum(buf[0:22])
	syncOK = codec.ReadU16LE(buf[0:2]) == Sync
	checksumOK = wantChecksum == gotChecksum
	return h, syncOK, checksumOK
}

// padTo4 returns payload padded with zero bytes to a 4-byte boundary,
// plus how many padding bytes were added.
func padTo4(payload []byte) ([]byte, int) {
	rem := len(payload) % 4
	if rem == 0 {
		return payload, 0
	}
	pad := 4 - rem
	return append(payload, make([]byte, pad)...), pad
}
