package validator

import (
	"io"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/packet"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/readback"
)

// Validate re-opens path and checks it against every fixed rule in
// spec.md §4.8, returning a report whose Pass field is false if any
// ERROR-severity finding was recorded.
func Validate(path string, doc *icd.ICD) (AcceptanceReport, error) {
	r, err := readback.Open(path)
	if err != nil {
		return AcceptanceReport{}, err
	}
	defer r.Close()

	idx, err := readback.ReadAll(r)
	if err != nil && err != io.EOF {
		return AcceptanceReport{}, err
	}

	v := &run{doc: doc}
	v.checkHeaders(idx.Packets)
	v.checkPacketOrdering(idx.Packets)
	v.checkIPTSMonotonic(idx.Packets)
	v.checkMessageCounts(idx.Packets)
	v.checkCommandStatusCrossCheck(idx.Packets)
	return newReport(v.findings), nil
}

type run struct {
	doc      *icd.ICD
	findings []Diagnostic
}

func (v *run) add(d Diagnostic) { v.findings = append(v.findings, d) }

func (v *run) checkHeaders(packets []readback.PacketView) {
	for _, p := range packets {
		if !p.SyncOK {
			v.add(Diagnostic{Code: "bad-sync", Severity: SeverityError, Offset: p.Offset, Message: "sync pattern mismatch"})
			continue
		}
		if !p.ChecksumOK {
			v.add(Diagnostic{Code: "bad-checksum", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "header checksum mismatch"})
		}
		if p.Header.PacketLength%4 != 0 {
			v.add(Diagnostic{Code: "unaligned-packet-length", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "packet_length is not a multiple of 4"})
		}
		switch p.Header.DataType {
		case packet.DataTypeTMATS, packet.DataTypeTimeF1, packet.DataTypeMS1553F1:
		default:
			v.add(Diagnostic{Code: "unknown-data-type", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "unrecognized data_type"})
		}
	}
}

func (v *run) checkPacketOrdering(packets []readback.PacketView) {
	tmatsCount := 0
	sawTime := false
	for i, p := range packets {
		switch p.Header.DataType {
		case packet.DataTypeTMATS:
			tmatsCount++
			if i != 0 {
				v.add(Diagnostic{Code: "tmats-not-first", Severity: SeverityError, Offset: p.Offset, Message: "TMATS packet located after the first packet"})
			}
		case packet.DataTypeTimeF1:
			sawTime = true
		case packet.DataTypeMS1553F1:
			if !sawTime {
				v.add(Diagnostic{Code: "data-before-time", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "MS1553-F1 packet appears before any Time-F1 packet"})
			}
		}
	}
	if tmatsCount != 1 {
		v.add(Diagnostic{Code: "tmats-count", Severity: SeverityError, Message: "expected exactly one TMATS packet"})
	}
}

func (v *run) checkIPTSMonotonic(packets []readback.PacketView) {
	lastByChannel := map[uint16]uint64{}
	for _, p := range packets {
		if p.Header.DataType != packet.DataTypeMS1553F1 {
			continue
		}
		blocks, _, err := decodeBlocks(p.Payload)
		if err != nil {
			v.add(Diagnostic{Code: "ms1553-decode-error", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: err.Error()})
			continue
		}
		for _, b := range blocks {
			if last, ok := lastByChannel[p.Header.ChannelID]; ok && b.IPTS < last {
				v.add(Diagnostic{Code: "ipts-non-monotonic", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "IPTS decreased within a channel"})
			}
			lastByChannel[p.Header.ChannelID] = b.IPTS
		}
	}
}

func (v *run) checkMessageCounts(packets []readback.PacketView) {
	for _, p := range packets {
		if p.Header.DataType != packet.DataTypeMS1553F1 {
			continue
		}
		if len(p.Payload) < 4 {
			v.add(Diagnostic{Code: "ms1553-short-csdw", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "MS1553-F1 payload shorter than its CSDW"})
			continue
		}
		csdw := codec.ReadU32LE(p.Payload[0:4])
		declaredCount := csdw & 0xFFFFFF
		blocks, consumed, err := decodeBlocks(p.Payload)
		if err != nil {
			continue // already reported by checkIPTSMonotonic
		}
		if uint32(len(blocks)) != declaredCount {
			v.add(Diagnostic{Code: "message-count-mismatch", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "CSDW message_count does not match the number of IPDH blocks present"})
		}
		wantDataLength := 4 + consumed
		if int(p.Header.DataLength) != wantDataLength {
			v.add(Diagnostic{Code: "data-length-mismatch", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "data_length does not match CSDW plus block bytes"})
		}
	}
}

func (v *run) checkCommandStatusCrossCheck(packets []readback.PacketView) {
	for _, p := range packets {
		if p.Header.DataType != packet.DataTypeMS1553F1 {
			continue
		}
		blocks, _, err := decodeBlocks(p.Payload)
		if err != nil {
			continue
		}
		for _, b := range blocks {
			v.checkOneBlock(p, b)
		}
	}
}

func (v *run) checkOneBlock(p readback.PacketView, b packet.MessageBlock) {
	if len(b.Words) == 0 {
		v.add(Diagnostic{Code: "empty-block", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "message block carries no words"})
		return
	}
	commandWord := b.Words[0]
	rt, transmit, sa, wc := codec.DecodeCommandWord(commandWord)

	msg, ok := v.messageByAddressing(p.Header.ChannelID, rt, sa)
	if !ok {
		return // not every packet's traffic is necessarily ICD-modeled (e.g. error-injected traffic); nothing to cross-check
	}

	if codec.IsModeCode(sa) {
		if wc != msg.WC {
			v.add(Diagnostic{Code: "mode-code-wc-mismatch", Severity: SeverityWarn, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "mode-code word count does not match the ICD's declared mode-code value"})
		}
		return
	}

	var statusWord uint16
	switch msg.TR {
	case codec.RT2BC:
		if len(b.Words) < 2 {
			return
		}
		statusWord = b.Words[1]
	default: // BC2RT, ModeCode
		statusWord = b.Words[len(b.Words)-1]
	}
	statusRT, _ := codec.DecodeStatusWord(statusWord)
	if statusRT != rt {
		v.add(Diagnostic{Code: "status-rt-mismatch", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "status word RT does not match command word RT"})
	}

	if !transmit && msg.TR == codec.RT2BC {
		v.add(Diagnostic{Code: "tr-bit-mismatch", Severity: SeverityWarn, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "T/R bit does not match the ICD's declared transfer direction"})
	}

	dataWordCount := len(b.Words) - 2 // command + status
	if dataWordCount < 0 {
		dataWordCount = 0
	}
	if dataWordCount != wc {
		v.add(Diagnostic{Code: "wc-data-mismatch", Severity: SeverityError, Offset: p.Offset, ChannelID: p.Header.ChannelID, Message: "command word count does not match the number of data words present"})
	}
}

func (v *run) messageByAddressing(channelID uint16, rt, sa int) (icd.Message, bool) {
	if v.doc == nil {
		return icd.Message{}, false
	}
	for _, m := range v.doc.Messages {
		if m.RT == rt && m.SA == sa {
			return m, true
		}
	}
	return icd.Message{}, false
}

func decodeBlocks(payload []byte) ([]packet.MessageBlock, int, error) {
	if len(payload) < 4 {
		return nil, 0, io.ErrUnexpectedEOF
	}
	cursor := 4
	var blocks []packet.MessageBlock
	for cursor < len(payload) {
		b, n, err := packet.DecodeMessageBlock(payload[cursor:])
		if err != nil {
			return blocks, cursor - 4, err
		}
		blocks = append(blocks, b)
		cursor += n
	}
	return blocks, cursor - 4, nil
}
