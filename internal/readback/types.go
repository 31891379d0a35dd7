package readback

import "github.com/Anthonymm0994/ch10-1553-flightgen/internal/packet"

// PacketView is one packet as re-read from a written file: its header
// (possibly with a bad sync/checksum, which the validator reports
// rather than the reader) plus the raw payload bytes after the
// header, excluding 4-byte padding.
type PacketView struct {
	Offset     int64
	Header     packet.Header
	SyncOK     bool
	ChecksumOK bool
	Payload    []byte
}

// FileIndex accumulates the packets seen during one pass over a file,
// in file order.
type FileIndex struct {
	Packets []PacketView
}
