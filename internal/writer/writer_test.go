package writer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/packet"
)

func testICD() *icd.ICD {
	return &icd.ICD{Bus: "A", Messages: []icd.Message{
		{Name: "TEST", Rate: 1, RT: 1, SA: 1, WC: 1, TR: codec.BC2RT},
	}}
}

func decodeAll(t *testing.T, buf []byte) []packet.Header {
	t.Helper()
	var headers []packet.Header
	for len(buf) > 0 {
		h, ok := packet.DecodeHeader(buf)
		require.True(t, ok, "bad header at offset %d", len(buf))
		headers = append(headers, h)
		buf = buf[h.PacketLength:]
	}
	return headers
}

func TestNewWritesTMATSThenTimeFirst(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, testICD(), "smoke", DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	headers := decodeAll(t, buf.Bytes())
	require.Len(t, headers, 2)
	assert.Equal(t, packet.DataTypeTMATS, headers[0].DataType)
	assert.Equal(t, packet.DataTypeTimeF1, headers[1].DataType)
}

func TestWriteMessageAccumulatesAndFlushesOnClose(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, testICD(), "smoke", DefaultConfig())
	require.NoError(t, err)

	block := packet.MessageBlock{Words: packet.OrderWords(codec.BC2RT, 0x0821, nil, 0x0800)}
	require.NoError(t, w.WriteMessage(packet.ChannelBusA, 1_000_000, block))
	require.NoError(t, w.WriteMessage(packet.ChannelBusA, 2_000_000, block))
	require.NoError(t, w.Close())

	headers := decodeAll(t, buf.Bytes())
	// TMATS + Time-F1 bootstrap, then one MS1553-F1 packet holding both messages.
	require.Len(t, headers, 3)
	assert.Equal(t, packet.DataTypeMS1553F1, headers[2].DataType)
	assert.Equal(t, 2, w.Stats().MessagesWritten)
}

func TestWriteMessageRejectsNonMonotonicIPTS(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, testICD(), "smoke", DefaultConfig())
	require.NoError(t, err)

	block := packet.MessageBlock{Words: []uint16{0x0800}}
	require.NoError(t, w.WriteMessage(packet.ChannelBusA, 2_000_000, block))
	err = w.WriteMessage(packet.ChannelBusA, 1_000_000, block)
	require.Error(t, err)
	var iptsErr *NonMonotonicIPTSError
	require.ErrorAs(t, err, &iptsErr)
	assert.Equal(t, uint64(2_000_000), iptsErr.Last)
	assert.Equal(t, uint64(1_000_000), iptsErr.Got)
}

func TestWriteMessageFlushesWhenSizeExceedsTarget(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{TargetPacketBytes: 40, TimePacketIntervalS: 1e9} // effectively disable time flush
	w, err := New(&buf, testICD(), "smoke", cfg)
	require.NoError(t, err)

	block := packet.MessageBlock{Words: []uint16{0x0800, 0x0001, 0x0002}}
	require.NoError(t, w.WriteMessage(packet.ChannelBusA, 0, block))
	require.NoError(t, w.WriteMessage(packet.ChannelBusA, 1000, block))
	require.NoError(t, w.WriteMessage(packet.ChannelBusA, 2000, block))
	require.NoError(t, w.Close())

	headers := decodeAll(t, buf.Bytes())
	ms1553Count := 0
	for _, h := range headers {
		if h.DataType == packet.DataTypeMS1553F1 {
			ms1553Count++
		}
	}
	assert.GreaterOrEqual(t, ms1553Count, 2, "expected the byte budget to force more than one MS1553-F1 packet")
}

func TestWriteMessageEmitsTimePacketOnInterval(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{TargetPacketBytes: 65536, TimePacketIntervalS: 0.001}
	w, err := New(&buf, testICD(), "smoke", cfg)
	require.NoError(t, err)

	block := packet.MessageBlock{Words: []uint16{0x0800}}
	require.NoError(t, w.WriteMessage(packet.ChannelBusA, 0, block))
	require.NoError(t, w.WriteMessage(packet.ChannelBusA, 2_000_000, block)) // 2ms later, past the 1ms interval
	require.NoError(t, w.Close())

	headers := decodeAll(t, buf.Bytes())
	timeCount := 0
	for _, h := range headers {
		if h.DataType == packet.DataTypeTimeF1 {
			timeCount++
		}
	}
	assert.GreaterOrEqual(t, timeCount, 2)
}
