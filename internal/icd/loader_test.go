package icd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalICD = `
bus: A
messages:
  - name: TEST
    rate_hz: 1
    rt: 1
    tr: BC2RT
    sa: 1
    wc: 1
    words:
      - name: data
        encode: u16
        const: 42
`

func TestLoadMinimalICD(t *testing.T) {
	doc, err := Load([]byte(minimalICD))
	require.NoError(t, err)
	require.Len(t, doc.Messages, 1)
	msg := doc.Messages[0]
	assert.Equal(t, "TEST", msg.Name)
	assert.Equal(t, 1, msg.WC)
	require.Len(t, msg.Slots, 1)
	assert.Equal(t, SlotScalar, msg.Slots[0].Kind)
}

const bitfieldICD = `
bus: A
messages:
  - name: PACKED
    rate_hz: 1
    rt: 1
    tr: BC2RT
    sa: 2
    wc: 1
    words:
      - name: a
        encode: u16
        word_index: 0
        mask: 255
        shift: 0
        const: 170
      - name: b
        encode: u16
        word_index: 0
        mask: 255
        shift: 8
        const: 85
`

func TestLoadBitfieldICD(t *testing.T) {
	doc, err := Load([]byte(bitfieldICD))
	require.NoError(t, err)
	msg := doc.Messages[0]
	require.Len(t, msg.Slots, 1)
	assert.Equal(t, SlotPacked, msg.Slots[0].Kind)
	assert.Len(t, msg.Slots[0].Fields, 2)
}

const overlapICD = `
bus: A
messages:
  - name: OVERLAP
    rate_hz: 1
    rt: 1
    tr: BC2RT
    sa: 2
    wc: 1
    words:
      - name: a
        encode: u16
        word_index: 0
        mask: 15
        shift: 0
      - name: b
        encode: u16
        word_index: 0
        mask: 15
        shift: 2
`

func TestLoadRejectsBitfieldOverlap(t *testing.T) {
	_, err := Load([]byte(overlapICD))
	require.Error(t, err)
	var verr *ValidationErrors
	require.ErrorAs(t, err, &verr)
	found := false
	for _, e := range verr.Errors {
		if e.Code == CodeBitfieldOverlap {
			found = true
		}
	}
	assert.True(t, found)
}

const slotMismatchICD = `
bus: A
messages:
  - name: BAD
    rate_hz: 1
    rt: 1
    tr: BC2RT
    sa: 2
    wc: 2
    words:
      - name: a
        encode: u16
`

func TestLoadRejectsSlotCountMismatch(t *testing.T) {
	_, err := Load([]byte(slotMismatchICD))
	require.Error(t, err)
	var verr *ValidationErrors
	require.ErrorAs(t, err, &verr)
	found := false
	for _, e := range verr.Errors {
		if e.Code == CodeSlotCountMismatch {
			found = true
		}
	}
	assert.True(t, found)
}

const splitOverlapICD = `
bus: A
messages:
  - name: SPLITBAD
    rate_hz: 1
    rt: 1
    tr: BC2RT
    sa: 3
    wc: 3
    words:
      - name: alt
        encode: float32_split
        word_index: 0
      - name: deriv
        encode: u16
        word_index: 1
`

func TestLoadRejectsFloat32SplitOverlappingAdjacentField(t *testing.T) {
	_, err := Load([]byte(splitOverlapICD))
	require.Error(t, err)
	var verr *ValidationErrors
	require.ErrorAs(t, err, &verr)
	found := false
	for _, e := range verr.Errors {
		if e.Code == CodeInvalidBitfieldPlacement {
			found = true
		}
	}
	assert.True(t, found)
}

const splitOKICD = `
bus: A
messages:
  - name: SPLITOK
    rate_hz: 1
    rt: 1
    tr: BC2RT
    sa: 4
    wc: 3
    words:
      - name: alt
        encode: float32_split
        word_index: 0
      - name: deriv
        encode: u16
        word_index: 2
`

func TestLoadAcceptsFloat32SplitWithNonOverlappingAdjacentField(t *testing.T) {
	doc, err := Load([]byte(splitOKICD))
	require.NoError(t, err)
	msg := doc.Messages[0]
	require.Len(t, msg.Slots, 2)
	assert.Equal(t, SlotSplit, msg.Slots[0].Kind)
	assert.Equal(t, 0, msg.Slots[0].Index)
	assert.Equal(t, SlotScalar, msg.Slots[1].Kind)
	assert.Equal(t, 2, msg.Slots[1].Index)
}

func TestLoadRejectsDuplicateFieldName(t *testing.T) {
	doc := `
bus: A
messages:
  - name: DUP
    rate_hz: 1
    rt: 1
    tr: BC2RT
    sa: 2
    wc: 2
    words:
      - name: a
        encode: u16
      - name: a
        encode: u16
`
	_, err := Load([]byte(doc))
	require.Error(t, err)
}

func TestLoadRejectsBNR16InBitfield(t *testing.T) {
	doc := `
bus: A
messages:
  - name: BADENC
    rate_hz: 1
    rt: 1
    tr: BC2RT
    sa: 2
    wc: 1
    words:
      - name: a
        encode: bnr16
        word_index: 0
        mask: 255
        shift: 0
`
	_, err := Load([]byte(doc))
	require.Error(t, err)
}

func TestLoadRejectsInvalidAddressing(t *testing.T) {
	doc := `
bus: A
messages:
  - name: BADRT
    rate_hz: 1
    rt: 99
    tr: BC2RT
    sa: 2
    wc: 1
    words:
      - name: a
        encode: u16
`
	_, err := Load([]byte(doc))
	require.Error(t, err)
}
