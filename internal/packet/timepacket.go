package packet

import "github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"

// TimeSource and TimeFormat name the CSDW enumerations for Time-F1
// packets, per spec.md §4.6.
type TimeSource uint8
type TimeFormat uint8

const (
	TimeSourceInternal        TimeSource = 0
	TimeSourceExternal        TimeSource = 1
	TimeSourceInternalFromRMM TimeSource = 2
	TimeSourceExternalFromRMM TimeSource = 3

	TimeFormatIRIGB TimeFormat = 0
	TimeFormatIRIGA TimeFormat = 1
	TimeFormatIRIGG TimeFormat = 2
	TimeFormatRTC   TimeFormat = 3
	TimeFormatUTCGPS TimeFormat = 4
)

// TimeBody is the decomposed wall/virtual time a Time-F1 packet
// carries, packed as BCD digits into the 8-byte body.
type TimeBody struct {
	Day          int // 1-366
	Hour         int
	Minute       int
	Second       int
	Millisecond  int
	Microsecond  int
}

// bcdByte packs two decimal digits (0-9 each) into one byte, high
// nibble first.
func bcdByte(hi, lo int) byte {
	return byte((hi%10)<<4 | (lo % 10))
}

// Encode packs the time body into 8 bytes: day (2 bytes, 3 BCD
// digits), hour, minute, second (1 byte each), then the three
// millisecond digits followed by the three microsecond digits across
// the last 3 bytes.
func (t TimeBody) Encode() [8]byte {
	var buf [8]byte
	buf[0] = bcdByte(0, t.Day/100)
	buf[1] = bcdByte((t.Day/10)%10, t.Day%10)
	buf[2] = bcdByte(t.Hour/10, t.Hour%10)
	buf[3] = bcdByte(t.Minute/10, t.Minute%10)
	buf[4] = bcdByte(t.Second/10, t.Second%10)
	buf[5] = bcdByte(t.Millisecond/100, (t.Millisecond/10)%10)
	buf[6] = bcdByte(t.Millisecond%10, t.Microsecond/100)
	buf[7] = bcdByte((t.Microsecond/10)%10, t.Microsecond%10)
	return buf
}

// BuildTimePacket assembles a complete Time-F1 (0x11) packet from a
// time source/format pair and a decomposed time body.
func BuildTimePacket(source TimeSource, format TimeFormat, body TimeBody, seq uint8, rtc uint64) []byte {
	var payload []byte
	csdw := uint32(source&0x0F) | uint32(format&0x0F)<<4
	payload = codec.WriteU32LE(payload, csdw)
	bodyBytes := body.Encode()
	payload = append(payload, bodyBytes[:]...)
	return Build(DataTypeTimeF1, ChannelTime, seq, rtc, payload)
}

// TimeBodyFromSeconds decomposes an elapsed-seconds virtual time into
// a TimeBody, treating t=0 as day 1, 00:00:00.000000.
func TimeBodyFromSeconds(elapsedSeconds float64) TimeBody {
	totalMicros := int64(elapsedSeconds * 1e6)
	micros := totalMicros % 1000
	totalMillis := totalMicros / 1000
	millis := totalMillis % 1000
	totalSeconds := totalMillis / 1000
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	totalHours := totalMinutes / 60
	hours := totalHours % 24
	days := 1 + totalHours/24
	return TimeBody{
		Day:         int(days),
		Hour:        int(hours),
		Minute:      int(minutes),
		Second:      int(seconds),
		Millisecond: int(millis),
		Microsecond: int(micros),
	}
}
