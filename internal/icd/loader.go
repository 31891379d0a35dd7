package icd

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
)

// rawDoc mirrors the recognized ICD fields from spec.md §6 directly, so
// the YAML document's shape is obvious from the struct tags alone.
type rawDoc struct {
	Bus      string       `yaml:"bus"`
	Messages []rawMessage `yaml:"messages"`
}

type rawMessage struct {
	Name   string    `yaml:"name"`
	RateHz float64   `yaml:"rate_hz"`
	RT     int       `yaml:"rt"`
	TR     string    `yaml:"tr"`
	SA     int       `yaml:"sa"`
	WC     int       `yaml:"wc"`
	Words  []rawWord `yaml:"words"`
}

type rawWord struct {
	Name      string   `yaml:"name"`
	Encode    string   `yaml:"encode"`
	Src       string   `yaml:"src"`
	Const     *float64 `yaml:"const"`
	Scale     *float64 `yaml:"scale"`
	Offset    *float64 `yaml:"offset"`
	MinValue  *float64 `yaml:"min_value"`
	MaxValue  *float64 `yaml:"max_value"`
	Mask      *int     `yaml:"mask"`
	Shift     *int     `yaml:"shift"`
	WordIndex *int     `yaml:"word_index"`
	WordOrder string   `yaml:"word_order"`
}

var validEncodings = map[string]codec.Encoding{
	"u16":           codec.U16,
	"i16":           codec.I16,
	"bnr16":         codec.BNR16,
	"bcd":           codec.BCD,
	"float32_split": codec.Float32Split,
}

// LoadFile reads and validates an ICD document from path.
func LoadFile(path string) (*ICD, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Load parses and validates an ICD document from raw YAML bytes.
func Load(data []byte) (*ICD, error) {
	var raw rawDoc
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	errs := &ValidationErrors{}
	icdBus := raw.Bus
	if icdBus != "A" && icdBus != "B" {
		errs.Add(CodeInvalidMessageAddressing, "icd bus must be 'A' or 'B'", icdBus)
	}

	seenNames := map[string]bool{}
	messages := make([]Message, 0, len(raw.Messages))
	for _, rm := range raw.Messages {
		if seenNames[rm.Name] {
			errs.Add(CodeDuplicateFieldName, "duplicate message name", rm.Name)
			continue
		}
		seenNames[rm.Name] = true
		msg, msgErrs := buildMessage(rm)
		errs.Errors = append(errs.Errors, msgErrs...)
		messages = append(messages, msg)
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return &ICD{Bus: icdBus, Messages: messages}, nil
}

func buildMessage(rm rawMessage) (Message, []*LoadError) {
	var errs []*LoadError
	msg := Message{
		Name: rm.Name,
		Rate: rm.RateHz,
		RT:   rm.RT,
		TR:   codec.TransferDirection(rm.TR),
		SA:   rm.SA,
		WC:   rm.WC,
	}

	if msg.RT < 0 || msg.RT > 31 {
		errs = append(errs, &LoadError{Code: CodeInvalidMessageAddressing, Message: "rt out of [0,31]", Ref: rm.Name})
	}
	if msg.SA < 0 || msg.SA > 31 {
		errs = append(errs, &LoadError{Code: CodeInvalidMessageAddressing, Message: "sa out of [0,31]", Ref: rm.Name})
	}
	if msg.WC < 1 || msg.WC > 32 {
		errs = append(errs, &LoadError{Code: CodeInvalidMessageAddressing, Message: "wc out of [1,32]", Ref: rm.Name})
	}
	if msg.Rate <= 0 {
		errs = append(errs, &LoadError{Code: CodeInvalidMessageAddressing, Message: "rate_hz must be > 0", Ref: rm.Name})
	}
	switch msg.TR {
	case codec.BC2RT, codec.RT2BC, codec.RT2RT, codec.ModeCode:
	default:
		errs = append(errs, &LoadError{Code: CodeInvalidMessageAddressing, Message: "tr must be one of BC2RT, RT2BC, RT2RT, MODE", Ref: rm.Name})
	}

	fields, fieldErrs := buildFields(rm)
	errs = append(errs, fieldErrs...)

	slots, slotErrs := resolveSlots(rm.Name, fields, msg.WC)
	errs = append(errs, slotErrs...)
	msg.Slots = slots

	return msg, errs
}

func buildFields(rm rawMessage) ([]Field, []*LoadError) {
	var errs []*LoadError
	seen := map[string]bool{}
	fields := make([]Field, 0, len(rm.Words))
	nextFree := 0

	for _, rw := range rm.Words {
		ref := rm.Name + "." + rw.Name
		if rw.Name == "" {
			errs = append(errs, &LoadError{Code: CodeDuplicateFieldName, Message: "word missing name", Ref: rm.Name})
			continue
		}
		if seen[rw.Name] {
			errs = append(errs, &LoadError{Code: CodeDuplicateFieldName, Message: "duplicate field name", Ref: ref})
			continue
		}
		seen[rw.Name] = true

		enc, ok := validEncodings[rw.Encode]
		if !ok {
			errs = append(errs, &LoadError{Code: CodeUnknownEncoding, Message: "unknown encoding " + rw.Encode, Ref: ref})
			continue
		}

		f := Field{Name: rw.Name, Encoding: enc, Scale: 1, Source: rw.Src}
		if rw.Scale != nil {
			f.Scale = *rw.Scale
		}
		if rw.Offset != nil {
			f.Offset = *rw.Offset
		}
		f.Min = rw.MinValue
		f.Max = rw.MaxValue
		f.Const = rw.Const
		f.WordOrder = codec.WordOrder(rw.WordOrder)

		if rw.Mask != nil {
			m := uint16(*rw.Mask)
			f.Mask = &m
			var shift uint
			if rw.Shift != nil {
				shift = uint(*rw.Shift)
			}
			f.Shift = &shift
			if enc == codec.BNR16 || enc == codec.Float32Split {
				errs = append(errs, &LoadError{Code: CodeInvalidBitfieldPlacement, Message: "bnr16/float32_split may not share a slot", Ref: ref})
				continue
			}
			if err := codec.ValidatePlacement(m, shift); err != nil {
				errs = append(errs, &LoadError{Code: CodeInvalidBitfieldPlacement, Message: err.Error(), Ref: ref})
				continue
			}
		}

		if rw.WordIndex != nil {
			f.WordIndex = *rw.WordIndex
		} else {
			f.WordIndex = nextFree
			if enc == codec.Float32Split {
				nextFree += 2
			} else {
				nextFree++
			}
		}

		fields = append(fields, f)
	}
	return fields, errs
}

// resolveSlots groups fields by word_index into scalar, split, or
// packed slots, verifies total width equals wc, and verifies no two
// slots claim the same physical word — a float32_split slot occupies
// both word_index and word_index+1, so a scalar or packed field placed
// explicitly at that second word would otherwise pass the width check
// (the two group widths still sum to wc) while silently colliding at
// encode time.
func resolveSlots(msgName string, fields []Field, wc int) ([]WordSlot, []*LoadError) {
	var errs []*LoadError
	byIndex := map[int][]Field{}
	for _, f := range fields {
		byIndex[f.WordIndex] = append(byIndex[f.WordIndex], f)
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	claimed := make([]bool, wc)
	claim := func(idx int, ref string) {
		if idx < 0 || idx >= wc {
			errs = append(errs, &LoadError{Code: CodeSlotCountMismatch, Message: "word_index out of range for wc", Ref: ref})
			return
		}
		if claimed[idx] {
			errs = append(errs, &LoadError{Code: CodeInvalidBitfieldPlacement, Message: "physical word already claimed by another field", Ref: ref})
			return
		}
		claimed[idx] = true
	}

	var slots []WordSlot
	totalWidth := 0
	for _, idx := range indices {
		group := byIndex[idx]
		if len(group) == 1 && group[0].Mask == nil {
			f := group[0]
			width := codec.SlotWidth(f.Encoding)
			claim(idx, msgName+"."+f.Name)
			if width == 2 {
				claim(idx+1, msgName+"."+f.Name)
			}
			slots = append(slots, WordSlot{Index: idx, Kind: kindFor(f.Encoding), Fields: []Field{f}})
			totalWidth += width
			continue
		}
		// packed slot: verify non-overlap among placed masks.
		var placed []uint16
		for _, f := range group {
			if f.Mask == nil {
				errs = append(errs, &LoadError{Code: CodeInvalidBitfieldPlacement, Message: "word_index shared without mask/shift", Ref: msgName + "." + f.Name})
				continue
			}
			candidate := *f.Mask << *f.Shift
			if overlap, _ := codec.OverlapsAny(*f.Mask, *f.Shift, placed); overlap {
				errs = append(errs, &LoadError{Code: CodeBitfieldOverlap, Message: "bitfield overlaps another field in the same word", Ref: msgName + "." + f.Name})
				continue
			}
			placed = append(placed, candidate)
		}
		claim(idx, msgName+"."+group[0].Name)
		slots = append(slots, WordSlot{Index: idx, Kind: SlotPacked, Fields: group})
		totalWidth++
	}

	if totalWidth != wc {
		errs = append(errs, &LoadError{Code: CodeSlotCountMismatch, Message: "slot width does not equal wc", Ref: msgName})
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Index < slots[j].Index })
	return slots, errs
}

func kindFor(enc codec.Encoding) SlotKind {
	if enc == codec.Float32Split {
		return SlotSplit
	}
	return SlotScalar
}
