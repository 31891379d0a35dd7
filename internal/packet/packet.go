package packet

// Build assembles one complete packet: header plus payload, padded to
// a 4-byte boundary. dataLength reported in the header excludes
// padding; packetLength includes it, per spec.md §4.6.
func Build(dataType uint8, channelID uint16, seq uint8, rtc uint64, payload []byte) []byte {
	padded, _ := padTo4(payload)
	h := Header{
		ChannelID:           channelID,
		PacketLength:        uint32(HeaderSize + len(padded)),
		DataLength:           uint32(len(payload)),
		DataTypeVersion:      0,
		SequenceNumber:       seq,
		PacketFlags:          0,
		DataType:             dataType,
		RelativeTimeCounter:  rtc & 0xFFFFFFFFFFFF,
	}
	return append(h.Encode(), padded...)
}
