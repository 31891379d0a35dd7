package genkernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/codec"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
)

func navICD() *icd.ICD {
	return &icd.ICD{Bus: "A", Messages: []icd.Message{
		{
			Name: "NAV", Rate: 10, RT: 1, TR: codec.BC2RT, SA: 1, WC: 2,
			Slots: []icd.WordSlot{
				{Index: 0, Kind: icd.SlotScalar, Fields: []icd.Field{{Name: "alt", Encoding: codec.U16}}},
				{Index: 1, Kind: icd.SlotScalar, Fields: []icd.Field{{Name: "deriv", Encoding: codec.U16}}},
			},
		},
	}}
}

func TestBuildEvaluatesIndependentThenExpressionFields(t *testing.T) {
	bindings := map[FieldPath]Spec{
		{Message: "NAV", Field: "alt"}:   {Kind: KindConstant, Value: 1000},
		{Message: "NAV", Field: "deriv"}: {Kind: KindExpression, Formula: "alt * 2"},
	}
	k, err := Build(navICD(), bindings, 1)
	require.NoError(t, err)

	vals, _, err := k.EvaluateMessage("NAV", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, vals["alt"])
	assert.Equal(t, 2000.0, vals["deriv"])
}

func TestBuildDetectsExpressionCycle(t *testing.T) {
	bindings := map[FieldPath]Spec{
		{Message: "NAV", Field: "alt"}:   {Kind: KindExpression, Formula: "deriv + 1"},
		{Message: "NAV", Field: "deriv"}: {Kind: KindExpression, Formula: "alt + 1"},
	}
	_, err := Build(navICD(), bindings, 1)
	require.Error(t, err)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestBuildRejectsUnboundFieldWithoutConst(t *testing.T) {
	bindings := map[FieldPath]Spec{
		{Message: "NAV", Field: "alt"}: {Kind: KindConstant, Value: 1000},
		// "deriv" left unbound and has no const
	}
	_, err := Build(navICD(), bindings, 1)
	require.Error(t, err)
}

func TestBuildDefaultsUnboundFieldToICDConst(t *testing.T) {
	doc := navICD()
	c := 55.0
	doc.Messages[0].Slots[1].Fields[0].Const = &c
	bindings := map[FieldPath]Spec{
		{Message: "NAV", Field: "alt"}: {Kind: KindConstant, Value: 1000},
	}
	k, err := Build(doc, bindings, 1)
	require.NoError(t, err)
	vals, _, err := k.EvaluateMessage("NAV", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 55.0, vals["deriv"])
}

func TestEvaluateMessagePersistsCrossMessageValues(t *testing.T) {
	bindings := map[FieldPath]Spec{
		{Message: "NAV", Field: "alt"}:   {Kind: KindConstant, Value: 500},
		{Message: "NAV", Field: "deriv"}: {Kind: KindConstant, Value: 1},
	}
	k, err := Build(navICD(), bindings, 1)
	require.NoError(t, err)
	_, _, err = k.EvaluateMessage("NAV", 0, 1)
	require.NoError(t, err)

	v, ok := k.lastValue("NAV", "alt")
	require.True(t, ok)
	assert.Equal(t, 500.0, v)
}

func TestErrorInjectorWithoutSpecNeverFires(t *testing.T) {
	inj := NewErrorInjector(1, "NAV", ErrorInjectionSpec{})
	for i := 0; i < 50; i++ {
		d := inj.Decide(float64(i))
		assert.False(t, d.ParityError)
		assert.False(t, d.NoResponse)
		assert.False(t, d.LateResponse)
		assert.False(t, d.WordCountError)
		assert.False(t, d.SyncError)
	}
}

func TestErrorInjectorFailoverPersists(t *testing.T) {
	failoverAt := 10.0
	inj := NewErrorInjector(1, "NAV", ErrorInjectionSpec{BusFailoverTimeS: &failoverAt})
	before := inj.Decide(5)
	assert.False(t, before.FailedOver)
	assert.False(t, before.NoResponse)

	after := inj.Decide(11)
	assert.True(t, after.FailedOver)
	assert.False(t, after.NoResponse) // failover reroutes the message, it does not suppress it

	// Sticky: a later emission still reports FailedOver even though its
	// own timestamp alone wouldn't retrigger the threshold check.
	still := inj.Decide(12)
	assert.True(t, still.FailedOver)
}
