package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
)

func TestHeaderRoundTrips(t *testing.T) {
	h := Header{ChannelID: ChannelBusA, PacketLength: 32, DataLength: 8, DataType: DataTypeMS1553F1, SequenceNumber: 5, RelativeTimeCounter: 0x0102030405}
	buf := h.Encode()
	require.Len(t, buf, HeaderSize)
	decoded, ok := DecodeHeader(buf)
	require.True(t, ok)
	assert.Equal(t, h.ChannelID, decoded.ChannelID)
	assert.Equal(t, h.SequenceNumber, decoded.SequenceNumber)
	assert.Equal(t, h.RelativeTimeCounter, decoded.RelativeTimeCounter)
}

func TestHeaderDecodeRejectsBadChecksum(t *testing.T) {
	h := Header{ChannelID: 1, PacketLength: 24, DataType: DataTypeTMATS}
	buf := h.Encode()
	buf[22] ^= 0xFF // corrupt checksum
	_, ok := DecodeHeader(buf)
	assert.False(t, ok)
}

func TestBuildPadsPacketLengthToFour(t *testing.T) {
	payload := make([]byte, 6) // not a multiple of 4, needs 2 bytes padding
	buf := Build(DataTypeTMATS, ChannelTMATS, 0, 0, payload)
	assert.Equal(t, 0, (len(buf))%4)
	h, ok := DecodeHeader(buf)
	require.True(t, ok)
	assert.Equal(t, uint32(6), h.DataLength)
	assert.Equal(t, uint32(HeaderSize+8), h.PacketLength)
}

func TestTMATSPacketStartsWithZeroCSDW(t *testing.T) {
	doc := &icd.ICD{Bus: "A", Messages: []icd.Message{{Name: "TEST", Rate: 1, RT: 1, SA: 1, WC: 1, TR: codec.BC2RT}}}
	buf := BuildTMATSPacket(doc, "smoke", 0, 0)
	h, ok := DecodeHeader(buf)
	require.True(t, ok)
	assert.Equal(t, DataTypeTMATS, h.DataType)
	payload := buf[HeaderSize : HeaderSize+int(h.DataLength)]
	assert.Equal(t, []byte{0, 0, 0, 0}, payload[0:4])
	assert.Contains(t, string(payload[4:]), "TEST")
}

func TestTimePacketDefaultsToInternalIRIGB(t *testing.T) {
	buf := BuildTimePacket(TimeSourceInternal, TimeFormatIRIGB, TimeBodyFromSeconds(0), 0, 0)
	h, ok := DecodeHeader(buf)
	require.True(t, ok)
	assert.Equal(t, DataTypeTimeF1, h.DataType)
	payload := buf[HeaderSize : HeaderSize+int(h.DataLength)]
	assert.Equal(t, uint32(0), codec.ReadU32LE(payload[0:4])&0xFF) // source=0, format=0
}

func TestOrderWordsBC2RT(t *testing.T) {
	words := OrderWords(codec.BC2RT, 0x1111, []uint16{0xAAAA, 0xBBBB}, 0x2222)
	assert.Equal(t, []uint16{0x1111, 0xAAAA, 0xBBBB, 0x2222}, words)
}

func TestOrderWordsRT2BC(t *testing.T) {
	words := OrderWords(codec.RT2BC, 0x1111, []uint16{0xAAAA, 0xBBBB}, 0x2222)
	assert.Equal(t, []uint16{0x1111, 0x2222, 0xAAAA, 0xBBBB}, words)
}

func TestOrderWordsRT2RT(t *testing.T) {
	words := OrderWordsRT2RT(0x1111, 0x3333, []uint16{0xAAAA}, 0x4444, 0x2222)
	assert.Equal(t, []uint16{0x1111, 0x3333, 0x4444, 0xAAAA, 0x2222}, words)
}

func TestMS1553PacketDataLengthMatchesBlocks(t *testing.T) {
	block := MessageBlock{IPTS: 100, Words: []uint16{1, 2, 3}}
	buf := BuildMS1553Packet(ChannelBusA, []MessageBlock{block}, 0, 0, 0)
	h, ok := DecodeHeader(buf)
	require.True(t, ok)
	wantDataLength := 4 + ipdhSize + 2*3
	assert.Equal(t, uint32(wantDataLength), h.DataLength)
}

func TestMS1553PacketCSDWMessageCount(t *testing.T) {
	blocks := []MessageBlock{{Words: []uint16{1}}, {Words: []uint16{2}}, {Words: []uint16{3}}}
	buf := BuildMS1553Packet(ChannelBusA, blocks, 0, 0, 0)
	h, ok := DecodeHeader(buf)
	require.True(t, ok)
	payload := buf[HeaderSize : HeaderSize+int(h.DataLength)]
	csdw := codec.ReadU32LE(payload[0:4])
	assert.Equal(t, uint32(3), csdw&0xFFFFFF)
}

func TestBlockStatusEncodesBusBit(t *testing.T) {
	s := BlockStatus{BusB: true, MessageError: true}
	w := s.Encode()
	assert.Equal(t, uint16(1<<0|1<<7), w)
}
