package codec

// TransferDirection names the four ways a 1553 message can run on the
// bus, matching the ICD's tr field.
type TransferDirection string

const (
	BC2RT     TransferDirection = "BC2RT"
	RT2BC     TransferDirection = "RT2BC"
	RT2RT     TransferDirection = "RT2RT"
	ModeCode  TransferDirection = "MODE"
)

// StatusFlags names the individual status-word bits a message or error
// injector may set, per spec.md's fixed bit layout.
type StatusFlags struct {
	MessageError       bool
	InstrumentationBit bool
	ServiceRequest     bool
	BroadcastReceived  bool
	Busy               bool
	SubsystemFlag      bool
	DynamicBusControl  bool
	TerminalFlag       bool
}

// EncodeCommandWord builds a 1553 command word: bits 15-11 = rt, bit 10
// = T/R (1 for a transmit command, i.e. RT->BC), bits 9-5 = sa, bits 4-0
// = wc mod 32 (32 encodes as 0).
func EncodeCommandWord(rt int, transmit bool, sa int, wc int) uint16 {
	wcField := wc % 32
	var word uint16
	word |= uint16(rt&0x1F) << 11
	if transmit {
		word |= 1 << 10
	}
	word |= uint16(sa&0x1F) << 5
	word |= uint16(wcField & 0x1F)
	return word
}

// DecodeCommandWord splits a command word back into its fields. wc is
// reported as 32 when the wire field is 0.
func DecodeCommandWord(word uint16) (rt int, transmit bool, sa int, wc int) {
	rt = int((word >> 11) & 0x1F)
	transmit = (word>>10)&0x1 == 1
	sa = int((word >> 5) & 0x1F)
	wcField := int(word & 0x1F)
	wc = wcField
	if wc == 0 {
		wc = 32
	}
	return
}

// EncodeStatusWord builds a 1553 status word from the terminal's
// address and its flag bits.
func EncodeStatusWord(rt int, flags StatusFlags) uint16 {
	var word uint16
	word |= uint16(rt&0x1F) << 11
	if flags.MessageError {
		word |= 1 << 10
	}
	if flags.InstrumentationBit {
		word |= 1 << 9
	}
	if flags.ServiceRequest {
		word |= 1 << 8
	}
	// bits 7-5 reserved
	if flags.BroadcastReceived {
		word |= 1 << 4
	}
	if flags.Busy {
		word |= 1 << 3
	}
	if flags.SubsystemFlag {
		word |= 1 << 2
	}
	if flags.DynamicBusControl {
		word |= 1 << 1
	}
	if flags.TerminalFlag {
		word |= 1
	}
	return word
}

// DecodeStatusWord is the inverse of EncodeStatusWord.
func DecodeStatusWord(word uint16) (rt int, flags StatusFlags) {
	rt = int((word >> 11) & 0x1F)
	flags = StatusFlags{
		MessageError:       (word>>10)&1 == 1,
		InstrumentationBit: (word>>9)&1 == 1,
		ServiceRequest:     (word>>8)&1 == 1,
		BroadcastReceived:  (word>>4)&1 == 1,
		Busy:               (word>>3)&1 == 1,
		SubsystemFlag:      (word>>2)&1 == 1,
		DynamicBusControl:  (word>>1)&1 == 1,
		TerminalFlag:       word&1 == 1,
	}
	return
}

// IsModeCode reports whether a subaddress value denotes a mode-code
// message (sa == 0 or sa == 31 per MIL-STD-1553B).
func IsModeCode(sa int) bool {
	return sa == 0 || sa == 31
}
