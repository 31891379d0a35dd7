package writer

import (
	"io"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/packet"
)

// Stats summarizes one run's output, returned to the pipeline driver
// and recorded in the run ledger.
type Stats struct {
	PacketsWritten  int
	MessagesWritten int
	BytesWritten    int64
}

type channelState struct {
	pending      []packet.MessageBlock
	pendingBytes int
	lastIPTS     uint64
	seq          uint8
}

// Writer accumulates encoded messages per channel and flushes them as
// MS1553-F1 packets, interleaved with periodic Time-F1 packets, onto
// sink. The first packet written is always TMATS, followed by an
// initial Time-F1 packet, per spec.md §4.7's bootstrap rule.
type Writer struct {
	sink io.Writer
	cfg  Config

	doc          *icd.ICD
	scenarioName string

	channels         map[uint16]*channelState
	timeSeq          uint8
	lastTimePacketNs int64
	wroteBootstrap   bool

	stats Stats
}

// New constructs a Writer and immediately writes the bootstrap TMATS
// and first Time-F1 packet, matching spec.md §4.7.
func New(sink io.Writer, doc *icd.ICD, scenarioName string, cfg Config) (*Writer, error) {
	w := &Writer{
		sink:         sink,
		cfg:          cfg,
		doc:          doc,
		scenarioName: scenarioName,
		channels:     map[uint16]*channelState{},
	}
	if err := w.bootstrap(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) bootstrap() error {
	tmats := packet.BuildTMATSPacket(w.doc, w.scenarioName, 0, 0)
	if err := w.emit(tmats); err != nil {
		return err
	}
	timePkt := packet.BuildTimePacket(packet.TimeSourceInternal, packet.TimeFormatIRIGB, packet.TimeBodyFromSeconds(0), w.timeSeq, 0)
	w.timeSeq++
	if err := w.emit(timePkt); err != nil {
		return err
	}
	w.wroteBootstrap = true
	w.lastTimePacketNs = 0
	return nil
}

func (w *Writer) emit(buf []byte) error {
	n, err := w.sink.Write(buf)
	if err != nil {
		return err
	}
	w.stats.PacketsWritten++
	w.stats.BytesWritten += int64(n)
	return nil
}

// WriteMessage accepts one scheduled message's encoded block for
// channelID at timeNs, in non-decreasing IPTS order. It flushes the
// channel's accumulated packet if the new block would exceed the
// configured byte budget, and emits a Time-F1 packet whenever the
// configured interval has elapsed.
func (w *Writer) WriteMessage(channelID uint16, timeNs int64, block packet.MessageBlock) error {
	cs := w.channelFor(channelID)
	iptsValue := uint64(timeNs)
	if len(cs.pending) > 0 || cs.lastIPTS != 0 {
		if iptsValue < cs.lastIPTS {
			return &NonMonotonicIPTSError{ChannelID: channelID, Last: cs.lastIPTS, Got: iptsValue}
		}
	}
	block.IPTS = iptsValue
	cs.lastIPTS = iptsValue

	blockBytes := len(block.Encode())
	const csdwSize = 4
	if cs.pendingBytes+blockBytes+csdwSize > w.cfg.TargetPacketBytes && len(cs.pending) > 0 {
		if err := w.flushChannel(channelID); err != nil {
			return err
		}
		cs = w.channelFor(channelID)
	}

	cs.pending = append(cs.pending, block)
	cs.pendingBytes += blockBytes
	w.stats.MessagesWritten++

	if intervalNs := int64(w.cfg.TimePacketIntervalS * 1e9); intervalNs > 0 && timeNs-w.lastTimePacketNs >= intervalNs {
		if err := w.flushAll(); err != nil {
			return err
		}
		timePkt := packet.BuildTimePacket(packet.TimeSourceInternal, packet.TimeFormatIRIGB, packet.TimeBodyFromSeconds(float64(timeNs)/1e9), w.timeSeq, uint64(timeNs))
		w.timeSeq++
		if err := w.emit(timePkt); err != nil {
			return err
		}
		w.lastTimePacketNs = timeNs
	}
	return nil
}

func (w *Writer) channelFor(channelID uint16) *channelState {
	cs, ok := w.channels[channelID]
	if !ok {
		cs = &channelState{}
		w.channels[channelID] = cs
	}
	return cs
}

func (w *Writer) flushChannel(channelID uint16) error {
	cs := w.channels[channelID]
	if cs == nil || len(cs.pending) == 0 {
		return nil
	}
	rtc := cs.pending[len(cs.pending)-1].IPTS
	buf := packet.BuildMS1553Packet(channelID, cs.pending, 0, cs.seq, rtc)
	cs.seq++ // wraps naturally at 256 via uint8 overflow
	cs.pending = nil
	cs.pendingBytes = 0
	return w.emit(buf)
}

func (w *Writer) flushAll() error {
	for channelID := range w.channels {
		if err := w.flushChannel(channelID); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes every channel's remaining pending packet. Callers
// must call Close exactly once after the last WriteMessage.
func (w *Writer) Close() error {
	return w.flushAll()
}

// Stats returns the accumulated run statistics so far.
func (w *Writer) Stats() Stats { return w.stats }
