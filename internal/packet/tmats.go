package packet

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
)

// BuildTMATSText renders a minimal but schematically valid TMATS
// attribute stream describing the recording's general info, bus
// definitions, and message definitions, derived entirely from doc.
// Attributes are emitted in sorted-key order so output is
// deterministic.
func BuildTMATSText(doc *icd.ICD, scenarioName string) string {
	attrs := map[string]string{
		`G\DSI\N`: "1",
		`G\106`:   "A",
		`G\OD`:    "ch10-1553-flightgen",
		`G\DST`:   scenarioName,
	}

	busChannel := ChannelBusA
	if doc.Bus == "B" {
		busChannel = ChannelBusB
	}
	attrs[`R-1\CDT`] = "1553"
	attrs[`R-1\BUS-1\ID`] = doc.Bus
	attrs[fmt.Sprintf(`B-%d\DLN`, busChannel)] = fmt.Sprintf("%d", len(doc.Messages))

	names := make([]string, 0, len(doc.Messages))
	for i, msg := range doc.Messages {
		n := i + 1
		attrs[fmt.Sprintf(`M-%d\ID`, n)] = msg.Name
		attrs[fmt.Sprintf(`M-%d\RT1\ADDR`, n)] = fmt.Sprintf("%d", msg.RT)
		attrs[fmt.Sprintf(`M-%d\RT1\SA1\NUM`, n)] = fmt.Sprintf("%d", msg.SA)
		attrs[fmt.Sprintf(`M-%d\RT1\SA1\WC`, n)] = fmt.Sprintf("%d", msg.WC)
		attrs[fmt.Sprintf(`M-%d\RT1\SA1\TYP`, n)] = string(msg.TR)
		attrs[fmt.Sprintf(`M-%d\RT1\SA1\RATE`, n)] = fmt.Sprintf("%g", msg.Rate)
		names = append(names, msg.Name)
	}
	attrs[`G\COM-1`] = "messages: " + strings.Join(names, ",")

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(attrs[k])
		b.WriteString(";\r\n")
	}
	return b.String()
}

// BuildTMATSPacket assembles a complete TMATS (0x01) packet: a
// 4-byte, zero-initialized channel-specific data word followed by the
// TMATS ASCII text.
func BuildTMATSPacket(doc *icd.ICD, scenarioName string, seq uint8, rtc uint64) []byte {
	text := BuildTMATSText(doc, scenarioName)
	payload := make([]byte, 4)
	payload = append(payload, []byte(text)...)
	return Build(DataTypeTMATS, ChannelTMATS, seq, rtc, payload)
}
