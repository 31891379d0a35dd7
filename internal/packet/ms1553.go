package packet

import (
	"fmt"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
)

// BlockStatus is the IPDH's 2-byte block-status word, per spec.md
// §4.6's fixed bit layout.
type BlockStatus struct {
	BusB                bool // bit 0: 0 = bus A, 1 = bus B
	WordCountError      bool
	SyncError           bool
	WordCountErrorInGap bool
	ResponseTimeout     bool
	FormatError         bool
	RT2RT               bool
	MessageError        bool
	BCReceived          bool
}

// Encode packs the flags into their fixed bit positions.
func (b BlockStatus) Encode() uint16 {
	var w uint16
	if b.BusB {
		w |= 1 << 0
	}
	if b.WordCountError {
		w |= 1 << 1
	}
	if b.SyncError {
		w |= 1 << 2
	}
	if b.WordCountErrorInGap {
		w |= 1 << 3
	}
	if b.ResponseTimeout {
		w |= 1 << 4
	}
	if b.FormatError {
		w |= 1 << 5
	}
	if b.RT2RT {
		w |= 1 << 6
	}
	if b.MessageError {
		w |= 1 << 7
	}
	if b.BCReceived {
		w |= 1 << 8
	}
	return w
}

// MessageBlock is one IPDH plus its raw 1553 word sequence, ready to
// be serialized inside an MS1553-F1 packet.
type MessageBlock struct {
	IPTS   uint64 // 48-bit RTC ticks, carried in a 64-bit little-endian field
	Status BlockStatus
	Gap1   uint8 // half-microseconds
	Gap2   uint8
	Words  []uint16 // full wire-order word sequence; see OrderWords/OrderWordsRT2RT
}

const ipdhSize = 14

// Encode serializes one IPDH followed by its raw 1553 words.
func (m MessageBlock) Encode() []byte {
	buf := make([]byte, 0, ipdhSize+2*len(m.Words))
	buf = codec.WriteU64LE(buf, m.IPTS)
	buf = codec.WriteU16LE(buf, m.Status.Encode())
	buf = append(buf, m.Gap1, m.Gap2)
	buf = codec.WriteU16LE(buf, uint16(2*len(m.Words)))
	for _, w := range m.Words {
		buf = codec.WriteU16LE(buf, w)
	}
	return buf
}

// DecodeMessageBlock parses one IPDH plus its word payload from buf,
// returning the block and the number of bytes consumed.
func DecodeMessageBlock(buf []byte) (MessageBlock, int, error) {
	if len(buf) < ipdhSize {
		return MessageBlock{}, 0, fmt.Errorf("packet: message block shorter than IPDH (%d bytes)", len(buf))
	}
	block := MessageBlock{
		IPTS:   codec.ReadU64LE(buf[0:8]),
		Status: decodeBlockStatus(codec.ReadU16LE(buf[8:10])),
		Gap1:   buf[10],
		Gap2:   buf[11],
	}
	wordBytes := int(codec.ReadU16LE(buf[12:14]))
	if ipdhSize+wordBytes > len(buf) {
		return MessageBlock{}, 0, fmt.Errorf("packet: message block declares %d word bytes beyond buffer", wordBytes)
	}
	for i := 0; i < wordBytes; i += 2 {
		block.Words = append(block.Words, codec.ReadU16LE(buf[ipdhSize+i:ipdhSize+i+2]))
	}
	return block, ipdhSize + wordBytes, nil
}

func decodeBlockStatus(w uint16) BlockStatus {
	return BlockStatus{
		BusB:                w&(1<<0) != 0,
		WordCountError:      w&(1<<1) != 0,
		SyncError:           w&(1<<2) != 0,
		WordCountErrorInGap: w&(1<<3) != 0,
		ResponseTimeout:     w&(1<<4) != 0,
		FormatError:         w&(1<<5) != 0,
		RT2RT:               w&(1<<6) != 0,
		MessageError:        w&(1<<7) != 0,
		BCReceived:          w&(1<<8) != 0,
	}
}

// OrderWords arranges a single command/status transaction's words in
// wire order for BC2RT, RT2BC, and mode-code directions.
func OrderWords(tr codec.TransferDirection, command uint16, data []uint16, status uint16) []uint16 {
	switch tr {
	case codec.RT2BC:
		words := make([]uint16, 0, 2+len(data))
		words = append(words, command, status)
		words = append(words, data...)
		return words
	default: // BC2RT, ModeCode
		words := make([]uint16, 0, 2+len(data))
		words = append(words, command)
		words = append(words, data...)
		words = append(words, status)
		return words
	}
}

// OrderWordsRT2RT arranges an RT-to-RT transaction: receive-command,
// transmit-command, transmit-status, data, receive-status.
func OrderWordsRT2RT(receiveCommand, transmitCommand uint16, data []uint16, transmitStatus, receiveStatus uint16) []uint16 {
	words := make([]uint16, 0, 3+len(data)+1)
	words = append(words, receiveCommand, transmitCommand, transmitStatus)
	words = append(words, data...)
	words = append(words, receiveStatus)
	return words
}

// BuildMS1553Packet assembles a complete MS1553-F1 (0x19) packet from
// a slice of already-ordered message blocks.
func BuildMS1553Packet(channelID uint16, blocks []MessageBlock, timeTagBits uint8, seq uint8, rtc uint64) []byte {
	var payload []byte
	csdw := uint32(len(blocks)&0xFFFFFF) | uint32(timeTagBits&0x03)<<30
	payload = codec.WriteU32LE(payload, csdw)
	for _, b := range blocks {
		payload = append(payload, b.Encode()...)
	}
	return Build(DataTypeMS1553F1, channelID, seq, rtc, payload)
}
