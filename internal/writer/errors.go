package writer

import "fmt"

// NonMonotonicIPTSError reports a message whose IPTS is less than the
// last one accepted on the same channel, which spec.md §4.7 treats as
// a scheduler bug rather than something the writer silently repairs.
type NonMonotonicIPTSError struct {
	ChannelID uint16
	Last      uint64
	Got       uint64
}

func (e *NonMonotonicIPTSError) Error() string {
	return fmt.Sprintf("writer: channel 0x%03X received IPTS %d after %d", e.ChannelID, e.Got, e.Last)
}

// CancelledError is returned when a caller-provided cancellation token
// fires mid-stream.
type CancelledError struct{}

func (e *CancelledError) Error() string { return "writer: generation cancelled" }
