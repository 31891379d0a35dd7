// Package icd models an Interface Control Document: the 1553 message and
// word/bitfield layout that the rest of the pipeline generates data
// against. Loading validates every invariant in spec.md §4.2 and
// resolves a read-only per-message slot layout.
package icd

import (
	"fmt"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
)

// Field belongs to one message and carries its encoding parameters and
// placement.
type Field struct {
	Name      string
	Encoding  codec.Encoding
	Scale     float64
	Offset    float64
	Min       *float64
	Max       *float64
	Const     *float64
	WordIndex int // resolved, 0-based
	Mask      *uint16
	Shift     *uint
	WordOrder codec.WordOrder
	Source    string // scenario binding path, e.g. "msg.field"
}

// IsPacked reports whether this field shares its word with others via
// a mask/shift placement.
func (f Field) IsPacked() bool {
	return f.Mask != nil
}

// ScalarSpec adapts this field's parameters into the codec package's
// encoding spec.
func (f Field) ScalarSpec() codec.ScalarSpec {
	return codec.ScalarSpec{
		Encoding:  f.Encoding,
		Scale:     f.Scale,
		Offset:    f.Offset,
		Min:       f.Min,
		Max:       f.Max,
		WordOrder: f.WordOrder,
	}.Normalized()
}

// SlotKind distinguishes the three ways a word (or word pair) may be
// occupied.
type SlotKind int

const (
	SlotScalar SlotKind = iota
	SlotSplit
	SlotPacked
)

// WordSlot is one resolved 16-bit word position (or, for a split slot,
// the first of two adjacent positions) in a message's wc-length word
// array.
type WordSlot struct {
	Index  int
	Kind   SlotKind
	Fields []Field // exactly 1 for Scalar/Split, 1+ for Packed
}

// Message is one 1553 transaction definition: addressing, rate, and its
// resolved slot layout.
type Message struct {
	Name string
	Rate float64 // Hz
	RT   int
	TR   codec.TransferDirection
	SA   int
	WC   int // 1..32; wire value 0 means 32
	Slots []WordSlot
}

// ICD is a named, validated, immutable collection of message
// definitions for one bus designator.
type ICD struct {
	Bus      string // "A" or "B"
	Messages []Message
}

// MessageByName looks up a message, returning ok=false if absent.
func (i *ICD) MessageByName(name string) (Message, bool) {
	for _, m := range i.Messages {
		if m.Name == name {
			return m, true
		}
	}
	return Message{}, false
}

// FieldByName looks up a field within the given message name.
func (i *ICD) FieldByName(message, field string) (Field, bool) {
	m, ok := i.MessageByName(message)
	if !ok {
		return Field{}, false
	}
	for _, slot := range m.Slots {
		for _, f := range slot.Fields {
			if f.Name == field {
				return f, true
			}
		}
	}
	return Field{}, false
}

func (f Field) String() string {
	return fmt.Sprintf("%s(%s)", f.Name, f.Encoding)
}
